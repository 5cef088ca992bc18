// Package store persists UI state that should survive a restart: model
// selections, manual configs, session bookkeeping, history lists. One JSON
// file per namespace under the state dir. Live deployment status is never
// written here — status is always re-fetched fresh so the console cannot
// show stale deployment state.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// StateDirEnv is the env var override for the state directory.
	StateDirEnv = "MODELOPS_STATE_DIR"
	// DefaultStateBase is the default state location under $HOME.
	DefaultStateBase = ".modelops/state"

	// DefaultDebounce batches rapid writes into one disk flush.
	DefaultDebounce = 300 * time.Millisecond
)

// Namespaces, one per page.
const (
	NSModelHub   = "modelhub"
	NSPlayground = "playground"
	NSStressTest = "stresstest"
)

var namespaces = []string{NSModelHub, NSPlayground, NSStressTest}

// Store is a namespaced key-value file store with debounced writes.
// Safe for concurrent use.
type Store struct {
	dir      string
	debounce time.Duration

	mu     sync.Mutex
	groups map[string]*group
	closed bool
}

// group is one namespace's in-memory state plus its flush timer.
type group struct {
	data  map[string]json.RawMessage
	timer *time.Timer
	dirty bool
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce overrides the write debounce interval (tests use ~0).
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// New creates a store rooted at dir. Empty dir falls back to the env
// override, then $HOME/.modelops/state.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		dir = os.Getenv(StateDirEnv)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, DefaultStateBase)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	s := &Store{
		dir:      dir,
		debounce: DefaultDebounce,
		groups:   make(map[string]*group),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Get reads a key into out. Returns false — leaving out untouched, so the
// caller's default survives — when the key is missing or the stored value
// does not parse. It never returns an error: a corrupt store must not take
// the UI down.
func (s *Store) Get(ns, key string, out interface{}) bool {
	s.mu.Lock()
	g := s.load(ns)
	raw, ok := g.data[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		slog.Warn("discarding unparseable stored value", "namespace", ns, "key", key, "err", err)
		return false
	}
	return true
}

// Put stores a value under ns/key and schedules a debounced flush.
// Unmarshalable values are logged and dropped.
func (s *Store) Put(ns, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cannot marshal value for store", "namespace", ns, "key", key, "err", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.load(ns)
	g.data[key] = raw
	s.markDirty(ns, g)
}

// Delete removes a key and schedules a flush.
func (s *Store) Delete(ns, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.load(ns)
	if _, ok := g.data[key]; !ok {
		return
	}
	delete(g.data, key)
	s.markDirty(ns, g)
}

// Flush writes every dirty namespace to disk immediately.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for ns, g := range s.groups {
		if err := s.flushLocked(ns, g); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close stops pending timers and flushes.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	for _, g := range s.groups {
		if g.timer != nil {
			g.timer.Stop()
			g.timer = nil
		}
	}
	s.mu.Unlock()
	return s.Flush()
}

// Reset clears every namespace, in memory and on disk. Used on manual
// cache-clear.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, g := range s.groups {
		if g.timer != nil {
			g.timer.Stop()
			g.timer = nil
		}
		g.data = make(map[string]json.RawMessage)
		g.dirty = false
	}
	for _, ns := range namespaces {
		if err := os.Remove(s.path(ns)); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// load returns the group for ns, reading its file on first touch. Callers
// hold s.mu.
func (s *Store) load(ns string) *group {
	if g, ok := s.groups[ns]; ok {
		return g
	}
	g := &group{data: make(map[string]json.RawMessage)}
	data, err := os.ReadFile(s.path(ns))
	if err == nil {
		if err := json.Unmarshal(data, &g.data); err != nil {
			// Corrupt namespace file: start fresh rather than fail.
			slog.Warn("discarding corrupt state file", "namespace", ns, "err", err)
			g.data = make(map[string]json.RawMessage)
		}
	}
	s.groups[ns] = g
	return g
}

// markDirty schedules a debounced flush for ns. Callers hold s.mu.
func (s *Store) markDirty(ns string, g *group) {
	g.dirty = true
	if s.closed {
		return
	}
	if g.timer != nil {
		g.timer.Reset(s.debounce)
		return
	}
	g.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		gg, ok := s.groups[ns]
		if !ok {
			return
		}
		gg.timer = nil
		if err := s.flushLocked(ns, gg); err != nil {
			slog.Warn("state flush failed", "namespace", ns, "err", err)
		}
	})
}

// flushLocked writes one namespace if dirty. Callers hold s.mu.
func (s *Store) flushLocked(ns string, g *group) error {
	if !g.dirty {
		return nil
	}
	data, err := json.MarshalIndent(g.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode namespace %s: %w", ns, err)
	}
	tmp := s.path(ns) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write namespace %s: %w", ns, err)
	}
	if err := os.Rename(tmp, s.path(ns)); err != nil {
		return fmt.Errorf("replace namespace %s: %w", ns, err)
	}
	g.dirty = false
	return nil
}

func (s *Store) path(ns string) string {
	return filepath.Join(s.dir, ns+".json")
}
