// Package globals holds the process-wide state conditions read through the
// globals identifier.
//
// Readers never block: Load returns an immutable snapshot. Writers are
// serialized and publish a new snapshot atomically, so an evaluation that
// already took a snapshot keeps seeing it until it finishes.
package globals

import (
	"sync"
	"sync/atomic"
)

type snapshot[G any] struct {
	value   G
	version uint64
}

// Slot stores the current globals value.
type Slot[G any] struct {
	mu  sync.Mutex
	cur atomic.Pointer[snapshot[G]]
}

// New creates a slot holding initial.
func New[G any](initial G) *Slot[G] {
	s := &Slot[G]{}
	s.cur.Store(&snapshot[G]{value: initial})
	return s
}

// Load returns a pointer to the current snapshot. The pointee must not be
// modified.
func (s *Slot[G]) Load() *G {
	return &s.cur.Load().value
}

// Value returns a copy of the current snapshot.
func (s *Slot[G]) Value() G {
	return s.cur.Load().value
}

// Version counts the updates published so far.
func (s *Slot[G]) Version() uint64 {
	return s.cur.Load().version
}

// Update applies fn to a copy of the current value and publishes the result.
// fn runs under the writer lock; it must not call Update on the same slot.
// The copy is shallow: reference fields shared with the previous snapshot
// must be replaced, not mutated.
func (s *Slot[G]) Update(fn func(g *G)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.cur.Load()
	next := &snapshot[G]{value: old.value, version: old.version + 1}
	fn(&next.value)
	s.cur.Store(next)
	return next.version
}
