package history

import (
	"iter"
	"sync"

	"github.com/convocli/convo/core"
)

// InMemoryStore is a volatile core.Store keeping one agent's turns in a
// process-local slice. It is safe for concurrent access and best suited for
// tests or ephemeral demo sessions. Snapshots are cloned on read so callers
// cannot mutate internal state; "backups" are in-memory snapshots honoring
// the same retention as the file store.
type InMemoryStore struct {
	mu      sync.RWMutex
	turns   core.History
	backups []core.History
	cap     int
}

// NewInMemoryStore constructs an empty in-memory store with the given cap.
func NewInMemoryStore(capTurns int) *InMemoryStore {
	if capTurns <= 0 {
		capTurns = 1000
	}
	return &InMemoryStore{cap: capTurns}
}

// Load returns a snapshot of the stored turns.
func (s *InMemoryStore) Load() (core.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turns.Clone(), nil
}

func (s *InMemoryStore) snapshotLocked() {
	s.backups = append(s.backups, s.turns.Clone())
	if len(s.backups) > retention {
		s.backups = s.backups[len(s.backups)-retention:]
	}
}

// Append finalizes and stores the turn, evicting down to cap afterwards.
func (s *InMemoryStore) Append(t core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !t.Role.Valid() {
		return &core.ValidationError{Field: "role", Value: string(t.Role), Reason: "must be user or assistant"}
	}
	if t.Seq == 0 {
		t.Seq = s.turns.NextSeq()
	}
	s.snapshotLocked()
	s.turns = append(s.turns, t)
	if len(s.turns) > s.cap {
		s.snapshotLocked()
		s.turns = s.turns.Tail(s.cap).Clone()
	}
	return nil
}

// Clear snapshots then truncates the stored turns.
func (s *InMemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotLocked()
	s.turns = core.History{}
	return nil
}

// Search yields matching turns in chronological order.
func (s *InMemoryStore) Search(term string) (iter.Seq[core.Turn], error) {
	h, err := s.Load()
	if err != nil {
		return nil, err
	}
	return h.Match(term), nil
}

// Stats recomputes aggregates over the stored turns.
func (s *InMemoryStore) Stats() (core.Stats, error) {
	h, err := s.Load()
	if err != nil {
		return core.Stats{}, err
	}
	return Compute(h), nil
}

// RecoverFromLatestBackup restores the newest snapshot.
func (s *InMemoryStore) RecoverFromLatestBackup() (core.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.backups) == 0 {
		return nil, &core.NotFoundError{What: "usable backup"}
	}
	s.turns = s.backups[len(s.backups)-1].Clone()
	return s.turns.Clone(), nil
}

var _ core.Store = (*InMemoryStore)(nil)
