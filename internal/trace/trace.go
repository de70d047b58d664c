// Package trace records the observability log of the engine.
//
// Every step of the command/event pipeline appends one Entry to a bounded
// Ring owned by the System. Entries never affect control flow; external
// consumers read them through Snapshot, which returns most-recent-first.
package trace

import (
	"fmt"
	"sync"
	"time"
)

// Kind identifies the pipeline step an Entry records.
type Kind string

const (
	// KindCommandReceived records a command entering a unit's dispatch.
	KindCommandReceived Kind = "command.received"
	// KindContextResolved records successful context resolution.
	KindContextResolved Kind = "context.resolved"
	// KindEventProduced records one event returned by decide.
	KindEventProduced Kind = "event.produced"
	// KindStateEvolved records one event folded into unit state.
	KindStateEvolved Kind = "state.evolved"
	// KindProjectionUpdated records a read model folding one event.
	KindProjectionUpdated Kind = "projection.updated"
	// KindReactionFired records a reaction emitting commands.
	KindReactionFired Kind = "reaction.fired"
	// KindError records any pipeline failure.
	KindError Kind = "error"
)

// Entry is one append-only trace record.
//
// Seq comes from the engine's logical clock and totally orders entries.
// Token correlates all entries caused by one root dispatch.
type Entry struct {
	Seq    int64     `json:"seq"`
	Time   time.Time `json:"time"`
	Kind   Kind      `json:"kind"`
	Unit   string    `json:"unit,omitempty"`
	Name   string    `json:"name,omitempty"` // command or event kind, projector or reactor name
	Token  string    `json:"token,omitempty"`
	Detail string    `json:"detail,omitempty"`
	Err    string    `json:"error,omitempty"`
}

// String renders the entry for text output.
func (e Entry) String() string {
	s := fmt.Sprintf("#%d %s", e.Seq, e.Kind)
	if e.Unit != "" {
		s += " unit=" + e.Unit
	}
	if e.Name != "" {
		s += " name=" + e.Name
	}
	if e.Detail != "" {
		s += " " + e.Detail
	}
	if e.Err != "" {
		s += " error=" + e.Err
	}
	return s
}

// DefaultCapacity is the default bound of a Ring.
const DefaultCapacity = 512

// Ring is a fixed-capacity trace log. Once full, appending evicts the
// oldest entry. The zero value is not usable; construct with NewRing.
//
// Thread-safety: all methods are safe for concurrent use. In practice
// the single-writer engine appends and external readers snapshot.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewRing creates a Ring holding at most capacity entries.
// A non-positive capacity falls back to DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{entries: make([]Entry, capacity)}
}

// Append adds an entry, evicting the oldest when at capacity.
func (r *Ring) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = e
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

// Snapshot returns the retained entries most-recent-first.
// The returned slice is a copy; callers cannot mutate the ring.
func (r *Ring) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.entries)
	}

	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		// Walk backwards from the slot before next, wrapping.
		idx := (r.next - i + len(r.entries)) % len(r.entries)
		out = append(out, r.entries[idx])
	}
	return out
}

// Len returns the number of retained entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Capacity returns the ring's fixed capacity.
func (r *Ring) Capacity() int {
	return len(r.entries)
}
