// Package api is the HTTP client for the deployment backend. All console
// functionality is mediated through its JSON/SSE endpoints; this package owns
// transport, the error taxonomy, and nothing else.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"modelops/internal/jsonutil"
)

// DefaultTimeout bounds any single non-streaming request.
const DefaultTimeout = 60 * time.Second

// ErrNotFound marks a 404 on a previously known resource. It is a cleanup
// signal (purge local state, warn the user), not a failure.
var ErrNotFound = errors.New("resource not found")

// APIError is a backend-reported application error: a non-2xx status or an
// HTTP 200 envelope with success=false. Its message is surfaced verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error (%d)", e.StatusCode)
}

// Client talks to the backend API.
type Client struct {
	base   string
	hc     *http.Client // bounded by DefaultTimeout
	stream *http.Client // no client timeout; streams end via ctx
	tracer oteltrace.Tracer

	statusTimeout      time.Duration
	forceStatusTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client (used in tests). It replaces
// both the bounded and the streaming client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
		c.stream = hc
	}
}

// WithTimeout overrides the bounded client's timeout. The streaming client
// stays unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithStatusTimeouts overrides how long a status check may take before the
// client synthesizes fallback statuses.
func WithStatusTimeouts(regular, force time.Duration) Option {
	return func(c *Client) {
		c.statusTimeout = regular
		c.forceStatusTimeout = force
	}
}

// WithTracer enables client spans around every request.
func WithTracer(t oteltrace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// NewClient creates a client for the backend at base (e.g.
// "http://localhost:8000").
func NewClient(base string, opts ...Option) *Client {
	c := &Client{
		base:   base,
		hc:     &http.Client{Timeout: DefaultTimeout},
		stream: &http.Client{},

		statusTimeout:      StatusTimeout,
		forceStatusTimeout: ForceStatusTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do issues one bounded request. The caller owns the response body.
func (c *Client) do(ctx context.Context, method, path string, in interface{}, accept string) (*http.Response, error) {
	return c.doWith(ctx, c.hc, method, path, in, accept)
}

// doStream is do without a client-level timeout, for SSE responses whose
// lifetime is governed by ctx alone.
func (c *Client) doStream(ctx context.Context, method, path string, in interface{}, accept string) (*http.Response, error) {
	return c.doWith(ctx, c.stream, method, path, in, accept)
}

func (c *Client) doWith(ctx context.Context, hc *http.Client, method, path string, in interface{}, accept string) (*http.Response, error) {
	if c.tracer != nil {
		var span oteltrace.Span
		ctx, span = c.tracer.Start(ctx, method+" "+path)
		span.SetAttributes(attribute.String("http.method", method), attribute.String("url.path", path))
		defer span.End()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	return resp, nil
}

// getJSON issues a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp, out)
}

// postJSON issues a POST with a JSON body and decodes the response into out
// (out may be nil).
func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	resp, err := c.do(ctx, http.MethodPost, path, in, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp, out)
}

// getBytes issues a GET and returns the raw body, for report downloads.
func (c *Client) getBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "*/*")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// envelope is the backend's generic response wrapper. Some endpoints report
// application errors as HTTP 200 with success=false.
type envelope struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// decodeEnvelope reads the body once, rejects success=false envelopes, and
// otherwise decodes into out.
func decodeEnvelope(resp *http.Response, out interface{}) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var env envelope
	if json.Unmarshal(data, &env) == nil && env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return jsonutil.UnmarshalWithContext(data, out, "decode response")
}

// readErrorMessage pulls a human-readable message out of an error body.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var env envelope
	if json.Unmarshal(data, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return string(bytes.TrimSpace(data))
}
