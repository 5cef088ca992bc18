package lifecycle

import (
	"context"
	"fmt"
	"sync"
)

// unknownStrikeLimit is how many consecutive synthesized "unknown" results a
// key absorbs before it is demoted to not_deployed and polling stops.
const unknownStrikeLimit = 3

// Entry is the tracked state for one model key.
type Entry struct {
	Status     Status
	Message    string
	Tag        string
	Optimistic bool // set by a user action, not yet confirmed by a poll

	prior   Status // status before the optimistic transition, for rollback
	strikes int    // consecutive unknown results
}

// Registry holds exactly one Entry per model key and reconciles optimistic
// updates with poll responses. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Set unconditionally records a status for a key. Used for initial catalog
// hydration.
func (r *Registry) Set(key string, st ModelStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = &Entry{Status: st.Status, Message: st.Message, Tag: st.Tag}
}

// Get returns the entry for a key.
func (r *Registry) Get(key string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Snapshot returns a copy of all entries.
func (r *Registry) Snapshot() map[string]Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Entry, len(r.entries))
	for k, e := range r.entries {
		out[k] = *e
	}
	return out
}

// NonTerminalKeys returns the keys that still need polling.
func (r *Registry) NonTerminalKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var keys []string
	for k, e := range r.entries {
		if !e.Status.Terminal() {
			keys = append(keys, k)
		}
	}
	return keys
}

// BeginDeploy applies the optimistic "deploy requested" transition for key.
// The prior status is remembered so a request-level failure can roll back.
func (r *Registry) BeginDeploy(key string) error {
	return r.begin(key, EventDeploy)
}

// BeginStop applies the optimistic "stop requested" transition for key.
func (r *Registry) BeginStop(key string) error {
	return r.begin(key, EventStop)
}

func (r *Registry) begin(key, event string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &Entry{Status: StatusNotDeployed}
		r.entries[key] = e
	}
	m := NewMachine(e.Status)
	if err := m.Fire(context.Background(), event); err != nil {
		return fmt.Errorf("%s %q from %s: %w", event, key, e.Status, err)
	}
	e.prior = e.Status
	e.Status = m.Current()
	e.Message = ""
	e.Optimistic = true
	return nil
}

// Rollback undoes an optimistic transition after the deploy/stop HTTP call
// itself failed, restoring the prior status with the error attached.
func (r *Registry) Rollback(key string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok || !e.Optimistic {
		return
	}
	e.Status = e.prior
	e.Optimistic = false
	if cause != nil {
		e.Message = cause.Error()
	}
}

// Merge unions a poll response into the registry. Only the keys present in
// batch are touched. A poll result is authoritative per key, with one
// exception: while a key holds an unconfirmed optimistic transition, a result
// that still shows the pre-action status is ignored (the backend simply has
// not observed the action yet).
func (r *Registry) Merge(batch map[string]ModelStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, st := range batch {
		e, ok := r.entries[key]
		if !ok {
			e = &Entry{}
			r.entries[key] = e
		}
		if st.Status == StatusUnknown {
			// Synthesized fallback from a timed-out check. Strike the key;
			// enough strikes demote it to not_deployed so polling stops.
			e.strikes++
			if e.strikes >= unknownStrikeLimit {
				e.Status = StatusNotDeployed
				e.Message = "status checks timed out"
				e.Optimistic = false
				e.strikes = 0
			}
			continue
		}
		if e.Optimistic && st.Status == e.prior {
			continue
		}
		e.Status = st.Status
		e.Message = st.Message
		e.Tag = st.Tag
		e.Optimistic = false
		e.strikes = 0
	}
}

// Delete removes a key, e.g. when the backend reports the resource gone.
func (r *Registry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Reset drops all entries.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*Entry)
}
