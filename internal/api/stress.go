package api

import (
	"context"
)

// StartStressTest submits a stress test and returns the server-issued
// session. Parameter validation happens client-side in internal/session
// before this is ever called.
func (c *Client) StartStressTest(ctx context.Context, req StressTestRequest) (StressTestSession, error) {
	var s StressTestSession
	if err := c.postJSON(ctx, "/api/stress-test/start", req, &s); err != nil {
		return StressTestSession{}, err
	}
	return s, nil
}

// StressTestStatus fetches the current state of a session. A 404 yields
// ErrNotFound: the backend lost the session and local state should be
// purged.
func (c *Client) StressTestStatus(ctx context.Context, sessionID string) (StressTestSession, error) {
	var s StressTestSession
	if err := c.getJSON(ctx, "/api/stress-test/status/"+sessionID, &s); err != nil {
		return StressTestSession{}, err
	}
	return s, nil
}

// DownloadReport fetches the rendered report for a finished session.
func (c *Client) DownloadReport(ctx context.Context, sessionID string) ([]byte, error) {
	return c.getBytes(ctx, "/api/stress-test/download/"+sessionID)
}

// SaveReport asks the backend to persist a report server-side.
func (c *Client) SaveReport(ctx context.Context, req SaveReportRequest) error {
	return c.postJSON(ctx, "/api/stress-test/save-report", req, nil)
}

// DownloadResultsZip fetches the raw results archive for a session.
func (c *Client) DownloadResultsZip(ctx context.Context, sessionID string) ([]byte, error) {
	return c.getBytes(ctx, "/api/stress-test/download-zip/"+sessionID)
}
