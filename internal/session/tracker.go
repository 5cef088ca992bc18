package session

import (
	"encoding/json"
	"sync"
	"time"

	"modelops/internal/lifecycle"
	"modelops/internal/store"
)

// Store keys within the stresstest namespace.
const (
	keyActive  = "active"
	keyHistory = "history"
)

// maxHistory bounds the persisted history list.
const maxHistory = 20

// Session is one stress test as tracked locally. Status and Progress mirror
// the backend; the rest is local bookkeeping.
type Session struct {
	ID        string           `json:"id"`
	Params    Params           `json:"params"`
	Status    lifecycle.Status `json:"status"`
	Progress  int              `json:"progress"`
	Message   string           `json:"message,omitempty"`
	StartedAt time.Time        `json:"started_at"`
	Results   json.RawMessage  `json:"results,omitempty"`
}

// Done reports whether the session reached a terminal state.
func (s Session) Done() bool {
	return s.Status.Terminal()
}

// Tracker owns the active session pointer and the history list, persisting
// both through the store. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	st      *store.Store
	active  *Session
	history []Session
	resumed bool
}

// NewTracker creates a tracker backed by st.
func NewTracker(st *store.Store) *Tracker {
	return &Tracker{st: st}
}

// Rehydrate loads persisted session state. If the active session was still
// running it is returned so the caller can resume polling — exactly once:
// subsequent calls return nil even if the session is still running, so
// re-renders can never spawn duplicate pollers.
func (t *Tracker) Rehydrate() *Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	var active Session
	if t.st.Get(store.NSStressTest, keyActive, &active) && active.ID != "" {
		t.active = &active
	}
	var history []Session
	if t.st.Get(store.NSStressTest, keyHistory, &history) {
		t.history = history
	}

	if t.resumed || t.active == nil || t.active.Status != lifecycle.StatusRunning {
		return nil
	}
	t.resumed = true
	resumed := *t.active
	return &resumed
}

// Begin records a freshly started session as active and prepends it to
// history.
func (t *Tracker) Begin(s Session) {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	if s.Status == "" {
		s.Status = lifecycle.StatusRunning
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = &s
	t.history = append([]Session{s}, t.history...)
	if len(t.history) > maxHistory {
		t.history = t.history[:maxHistory]
	}
	t.persist()
}

// Update applies a poll result to the session with the given id. Unknown
// ids are ignored (the session may have been orphaned meanwhile).
func (t *Tracker) Update(id string, status lifecycle.Status, progress int, message string, results json.RawMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil && t.active.ID == id {
		t.active.Status = status
		t.active.Progress = progress
		t.active.Message = message
		if len(results) > 0 {
			t.active.Results = results
		}
	}
	for i := range t.history {
		if t.history[i].ID == id {
			t.history[i].Status = status
			t.history[i].Progress = progress
			t.history[i].Message = message
			if len(results) > 0 {
				t.history[i].Results = results
			}
			break
		}
	}
	t.persist()
}

// Orphan purges a session the backend no longer knows (expired or lost).
// Returns true when it was the active session, which also clears the active
// pointer.
func (t *Tracker) Orphan(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	wasActive := t.active != nil && t.active.ID == id
	if wasActive {
		t.active = nil
		t.st.Delete(store.NSStressTest, keyActive)
	}
	kept := t.history[:0]
	for _, s := range t.history {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	t.history = kept
	t.persist()
	return wasActive
}

// Active returns a copy of the active session, if any.
func (t *Tracker) Active() (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return Session{}, false
	}
	return *t.active, true
}

// History returns a copy of the session history, newest first.
func (t *Tracker) History() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Session, len(t.history))
	copy(out, t.history)
	return out
}

// Reset drops all session state, persisted and in memory.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = nil
	t.history = nil
	t.resumed = false
	t.st.Delete(store.NSStressTest, keyActive)
	t.st.Delete(store.NSStressTest, keyHistory)
}

// persist writes current state through the store. Callers hold t.mu.
func (t *Tracker) persist() {
	if t.active != nil {
		t.st.Put(store.NSStressTest, keyActive, *t.active)
	}
	t.st.Put(store.NSStressTest, keyHistory, t.history)
}
