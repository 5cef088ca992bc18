package api

import (
	"context"
	"io"
	"net/http"
)

// MultiInference starts a multi-model inference run and returns the SSE
// response body for internal/sse to consume. The stream is tied to ctx:
// cancelling it aborts the read mid-flight. The caller (or the consumer)
// must close the body.
func (c *Client) MultiInference(ctx context.Context, req InferenceRequest) (io.ReadCloser, error) {
	resp, err := c.doStream(ctx, http.MethodPost, "/api/multi-inference", req, "text/event-stream")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
