// Package session tracks stress-test sessions: parameter validation before
// submit, the active session, and a bounded history — all persisted so a
// restart can resume polling a still-running test.
package session

import (
	"fmt"
	"strconv"
	"strings"
)

// Params are the user-entered stress-test parameters. NumRequests and
// Concurrency are comma-separated positive-int lists paired positionally
// into test stages, so their lengths must match.
type Params struct {
	Model       string `json:"model"`
	NumRequests string `json:"num_requests"`
	Concurrency string `json:"concurrency"`
	InputTokens int    `json:"input_tokens,omitempty"`
	Stream      bool   `json:"stream,omitempty"`
}

// Validate rejects malformed parameters before any network call is made.
func (p Params) Validate() error {
	if p.Model == "" {
		return fmt.Errorf("model is required")
	}
	reqs, err := parseIntList(p.NumRequests)
	if err != nil {
		return fmt.Errorf("num_requests: %w", err)
	}
	conc, err := parseIntList(p.Concurrency)
	if err != nil {
		return fmt.Errorf("concurrency: %w", err)
	}
	if len(reqs) != len(conc) {
		return fmt.Errorf("num_requests has %d values but concurrency has %d; counts must match", len(reqs), len(conc))
	}
	if p.InputTokens < 0 {
		return fmt.Errorf("input_tokens must not be negative")
	}
	return nil
}

// Stages returns the number of request/concurrency pairs. Only meaningful
// after Validate.
func (p Params) Stages() int {
	return len(strings.Split(p.NumRequests, ","))
}

// parseIntList parses a non-empty comma-separated list of positive ints.
func parseIntList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("value is required")
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", strings.TrimSpace(part))
		}
		if n <= 0 {
			return nil, fmt.Errorf("%d is not positive", n)
		}
		out = append(out, n)
	}
	return out, nil
}
