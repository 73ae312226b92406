package canvas

import (
	"time"

	"github.com/aretw0/easel/pkg/core"
)

// Store owns the live snapshot of one whiteboard. Every Apply supersedes the
// current snapshot; nothing is ever modified in place.
type Store struct {
	snap core.Snapshot
	now  func() time.Time
}

// NewStore creates a store holding initial.
func NewStore(initial core.Snapshot, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{snap: initial, now: now}
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() core.Snapshot {
	return s.snap
}

// Apply runs m against the current snapshot and makes the result current.
// On error the current snapshot is kept.
func (s *Store) Apply(m core.Mutation) (core.Snapshot, error) {
	next, err := s.snap.Apply(m)
	if err != nil {
		return s.snap, err
	}
	if !next.Equal(s.snap) {
		next = next.Touch(s.now())
	}
	s.snap = next
	return next, nil
}

// Reset replaces the current snapshot, e.g. when history moves.
func (s *Store) Reset(snap core.Snapshot) {
	s.snap = snap
}
