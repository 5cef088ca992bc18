package sse

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"modelops/internal/jsonutil"
)

// Result statuses for one model inside a multi-inference run.
const (
	ResultSuccess     = "success"
	ResultError       = "error"
	ResultNotDeployed = "not_deployed"
	ResultLoading     = "loading"
)

// Result is the per-model payload carried by inference frames.
type Result struct {
	Status   string                 `json:"status"`
	Response string                 `json:"response,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// EventKind classifies consumer events.
type EventKind int

const (
	// KindResult carries a per-model update; later results for the same
	// model supersede earlier ones.
	KindResult EventKind = iota
	// KindComplete is the stream's terminal success signal.
	KindComplete
	// KindError terminates the stream after a transport or protocol
	// failure. Exactly one of KindComplete or KindError ends every stream,
	// so a consumer can never be left in a perpetual in-progress state.
	KindError
)

// Event is one consumer-level stream event.
type Event struct {
	Kind   EventKind
	Model  string
	Result Result
	Err    error
}

// frame is the wire shape of one data payload.
type frame struct {
	Type     string                 `json:"type,omitempty"`
	Model    string                 `json:"model,omitempty"`
	Status   string                 `json:"status,omitempty"`
	Response string                 `json:"response,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Consume reads an SSE response body until a terminal frame, the body ends,
// or ctx is cancelled, delivering events on the returned channel. The body
// is always closed and the channel always ends with a terminal event.
func Consume(ctx context.Context, body io.ReadCloser) <-chan Event {
	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer body.Close()

		stop := context.AfterFunc(ctx, func() { body.Close() })
		defer stop()

		var dec Decoder
		buf := make([]byte, 4096)
		for {
			n, err := body.Read(buf)
			if n > 0 {
				for _, f := range dec.Write(buf[:n]) {
					if done := dispatch(out, f); done {
						return
					}
				}
			}
			if err != nil {
				for _, f := range dec.Flush() {
					if done := dispatch(out, f); done {
						return
					}
				}
				if ctx.Err() != nil {
					out <- Event{Kind: KindError, Err: ctx.Err()}
					return
				}
				if err == io.EOF {
					// The backend closed without a complete frame; the UI
					// must still leave its in-progress state.
					out <- Event{Kind: KindError, Err: fmt.Errorf("stream ended before completion")}
					return
				}
				out <- Event{Kind: KindError, Err: fmt.Errorf("read stream: %w", err)}
				return
			}
		}
	}()
	return out
}

// dispatch converts one decoded frame into consumer events. Returns true
// when the frame terminates the stream.
func dispatch(out chan<- Event, f Frame) bool {
	if len(f.Data) == 0 {
		return false
	}
	var p frame
	if !jsonutil.UnmarshalLineSafe(string(f.Data), &p) {
		// Malformed frames are logged and skipped; they never abort the
		// stream.
		slog.Warn("skipping malformed stream frame", "data", truncate(string(f.Data), 120))
		return false
	}
	switch {
	case p.Type == "complete":
		out <- Event{Kind: KindComplete}
		return true
	case p.Type == "heartbeat":
		return false
	case p.Model != "":
		out <- Event{
			Kind:  KindResult,
			Model: p.Model,
			Result: Result{
				Status:   p.Status,
				Response: p.Response,
				Error:    p.Error,
				Metadata: p.Metadata,
			},
		}
		return false
	default:
		slog.Warn("stream frame without model or type", "data", truncate(string(f.Data), 120))
		return false
	}
}

// Collect drains a consumer channel into a final result map, for callers
// that do not need incremental updates. Last write per model wins.
func Collect(events <-chan Event) (map[string]Result, error) {
	results := make(map[string]Result)
	for ev := range events {
		switch ev.Kind {
		case KindResult:
			results[ev.Model] = ev.Result
		case KindError:
			return results, ev.Err
		}
	}
	return results, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
