package poll

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"modelops/internal/api"
	"modelops/internal/lifecycle"
)

// FetchFunc issues one batched status request for exactly the given keys.
type FetchFunc func(ctx context.Context, keys []string) (api.StatusMap, error)

// StatusPoller keeps a set of non-terminal model keys fresh with one batched
// request per tick. Keys leave the set when a fetched status is terminal;
// the poller idles (without stopping) while the set is empty so a later
// Track picks up on the next tick.
type StatusPoller struct {
	interval time.Duration
	fetch    FetchFunc
	sink     func(api.StatusMap) // receives every merge, batched per cycle
	orphan   func(keys []string) // backend lost the resources; purge local state
	terminal func(key string, st lifecycle.ModelStatus) bool

	mu      sync.Mutex
	keys    map[string]struct{}
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// StatusOption configures a StatusPoller.
type StatusOption func(*StatusPoller)

// WithOrphanHandler sets the callback invoked when a status probe reports
// the polled resources gone (HTTP 404).
func WithOrphanHandler(fn func(keys []string)) StatusOption {
	return func(p *StatusPoller) { p.orphan = fn }
}

// WithTerminalCheck overrides the default terminal test. Used when a merge
// target (e.g. the lifecycle registry) can demote a key to a terminal state
// the raw fetch result does not show.
func WithTerminalCheck(fn func(key string, st lifecycle.ModelStatus) bool) StatusOption {
	return func(p *StatusPoller) { p.terminal = fn }
}

// NewStatusPoller creates a poller. sink receives each cycle's fetched batch.
func NewStatusPoller(interval time.Duration, fetch FetchFunc, sink func(api.StatusMap), opts ...StatusOption) *StatusPoller {
	p := &StatusPoller{
		interval: interval,
		fetch:    fetch,
		sink:     sink,
		keys:     make(map[string]struct{}),
		terminal: func(_ string, st lifecycle.ModelStatus) bool { return st.Status.Terminal() },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Track adds keys to the polling set. Terminal keys should not be added;
// they would be dropped after the next fetch anyway.
func (p *StatusPoller) Track(keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		p.keys[k] = struct{}{}
	}
}

// Untrack removes keys from the polling set.
func (p *StatusPoller) Untrack(keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		delete(p.keys, k)
	}
}

// Pending returns the keys currently being polled.
func (p *StatusPoller) Pending() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.keys))
	for k := range p.keys {
		out = append(out, k)
	}
	return out
}

// Running reports whether the poll loop is active.
func (p *StatusPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start launches the poll loop. Idempotent: a second Start while running is
// a no-op, so rehydration paths can never create duplicate intervals.
func (p *StatusPoller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		_ = Until(ctx, p.interval, p.tick)
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()
}

// Stop cancels the poll loop and waits for it to exit.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// tick runs one cycle: fetch exactly the pending keys, forward the batch,
// drop keys that went terminal.
func (p *StatusPoller) tick(ctx context.Context) (bool, error) {
	p.mu.Lock()
	keys := make([]string, 0, len(p.keys))
	for k := range p.keys {
		keys = append(keys, k)
	}
	p.mu.Unlock()
	if len(keys) == 0 {
		return false, nil
	}

	batch, err := p.fetch(ctx, keys)
	if errors.Is(err, api.ErrNotFound) {
		// The backend lost these resources entirely. Not a client error:
		// purge and stop asking.
		slog.Warn("status probe returned not found, purging", "keys", keys)
		p.Untrack(keys...)
		if p.orphan != nil {
			p.orphan(keys)
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if p.sink != nil {
		p.sink(batch)
	}
	for k, st := range batch {
		if p.terminal(k, st) {
			p.Untrack(k)
		}
	}
	return false, nil
}
