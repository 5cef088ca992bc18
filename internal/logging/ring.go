package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultRingSize is how many recent log records the console keeps.
const DefaultRingSize = 200

// Entry is one captured log record, pre-formatted for display.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

// Ring is a bounded in-memory log sink. Safe for concurrent use.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

// NewRing creates a ring holding at most max entries.
func NewRing(max int) *Ring {
	if max <= 0 {
		max = DefaultRingSize
	}
	return &Ring{max: max}
}

// Add appends an entry, evicting the oldest when full.
func (r *Ring) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if len(r.entries) > r.max {
		r.entries = r.entries[len(r.entries)-r.max:]
	}
}

// Entries returns a copy of the captured entries, oldest first.
func (r *Ring) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Last returns up to n most recent entries, oldest first.
func (r *Ring) Last(n int) []Entry {
	all := r.Entries()
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// ringHandler adapts Ring to slog.Handler. slog-multi provides the fanout
// combinator but no sinks, so this is the one hand-written handler.
type ringHandler struct {
	ring  *Ring
	level slog.Level
	attrs []slog.Attr
}

// NewRingHandler returns a slog.Handler that captures records into ring.
func NewRingHandler(ring *Ring, level slog.Level) slog.Handler {
	return &ringHandler{ring: ring, level: level}
}

func (h *ringHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level
}

func (h *ringHandler) Handle(_ context.Context, rec slog.Record) error {
	var b strings.Builder
	b.WriteString(rec.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	rec.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	h.ring.Add(Entry{Time: rec.Time, Level: rec.Level, Message: b.String()})
	return nil
}

func (h *ringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &ringHandler{ring: h.ring, level: h.level, attrs: merged}
}

func (h *ringHandler) WithGroup(string) slog.Handler { return h }
