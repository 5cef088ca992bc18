package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"modelops/internal/lifecycle"
)

// Status check timeouts. A missed deadline synthesizes fallback statuses
// instead of leaving the caller waiting on a slow backend.
const (
	StatusTimeout      = 5 * time.Second
	ForceStatusTimeout = 30 * time.Second
)

// ListModels fetches the categorized model catalog.
func (c *Client) ListModels(ctx context.Context) (Catalog, error) {
	var cat Catalog
	if err := c.getJSON(ctx, "/api/model-list", &cat); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

type checkStatusRequest struct {
	Models       []string `json:"models"`
	ForceRefresh bool     `json:"force_refresh,omitempty"`
}

type checkStatusResponse struct {
	Statuses StatusMap `json:"statuses"`
}

// CheckModelStatus fetches statuses for exactly the given keys. The request
// races a timeout (longer when force bypasses the backend cache); on a miss
// it returns a synthesized "unknown" status per key so the caller always gets
// an answer for every requested key.
func (c *Client) CheckModelStatus(ctx context.Context, keys []string, force bool) (StatusMap, error) {
	if len(keys) == 0 {
		return StatusMap{}, nil
	}
	timeout := c.statusTimeout
	if force {
		timeout = c.forceStatusTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		statuses StatusMap
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		var out checkStatusResponse
		err := c.postJSON(ctx, "/api/check-model-status", checkStatusRequest{Models: keys, ForceRefresh: force}, &out)
		ch <- result{statuses: out.Statuses, err: err}
	}()

	select {
	case r := <-ch:
		if errors.Is(r.err, context.DeadlineExceeded) {
			slog.Warn("status check timed out, synthesizing unknown", "keys", len(keys), "force", force)
			return synthesizeUnknown(keys), nil
		}
		if r.err != nil {
			return nil, r.err
		}
		if r.statuses == nil {
			r.statuses = StatusMap{}
		}
		return r.statuses, nil
	case <-ctx.Done():
		slog.Warn("status check timed out, synthesizing unknown", "keys", len(keys), "force", force)
		return synthesizeUnknown(keys), nil
	}
}

// synthesizeUnknown builds the fallback map for a timed-out status check.
func synthesizeUnknown(keys []string) StatusMap {
	out := make(StatusMap, len(keys))
	for _, k := range keys {
		out[k] = lifecycle.ModelStatus{
			Status:  lifecycle.StatusUnknown,
			Message: "status check timed out",
		}
	}
	return out
}

type deployModelsRequest struct {
	Models []string `json:"models"`
}

type modelActionRequest struct {
	Model string `json:"model"`
}

// DeployModels starts deployment for several models at once.
func (c *Client) DeployModels(ctx context.Context, keys []string) error {
	return c.postJSON(ctx, "/api/deploy-models", deployModelsRequest{Models: keys}, nil)
}

// DeployModel starts deployment for one model.
func (c *Client) DeployModel(ctx context.Context, key string) error {
	return c.postJSON(ctx, "/api/deploy-model", modelActionRequest{Model: key}, nil)
}

// StopModel stops a deployed model.
func (c *Client) StopModel(ctx context.Context, key string) error {
	return c.postJSON(ctx, "/api/stop-model", modelActionRequest{Model: key}, nil)
}

// DeleteModel deletes a model deployment entirely.
func (c *Client) DeleteModel(ctx context.Context, key string) error {
	return c.postJSON(ctx, "/api/delete-model", modelActionRequest{Model: key}, nil)
}
