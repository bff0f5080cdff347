// Package history houses concrete implementations of core.Store: a durable
// file-backed store with crash-safe rotating backups, and a volatile
// in-memory store for tests and prototypes. The interface itself lives in
// core to keep higher level packages off concrete storage.
package history

import (
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/convocli/convo/core"
	"github.com/convocli/convo/internal/fsx"
	"github.com/convocli/convo/logging"
)

// On-disk names under one agent directory.
const (
	liveFileName = "history.json"
	lockFileName = ".lock"
	backupDir    = "backups"
)

// FileStore is the durable core.Store implementation. One FileStore owns one
// agent directory exclusively: Open takes a lock file so a second process
// (or a second store in this one) fails fast with *core.LockedError instead
// of interleaving writes.
//
// Every mutation follows the same discipline: snapshot the current live
// file into backups/, then atomically replace the live file. A crash between
// the two steps leaves the live file at most one turn behind, never corrupt.
type FileStore struct {
	mu      sync.Mutex
	dir     string
	agentID string
	cap     int
	lock    *flock.Flock
	log     logging.Logger
}

// StoreOptions configure FileStore construction.
type StoreOptions struct {
	// Cap bounds the live working set: after an append that exceeds it the
	// oldest turns are evicted down to Cap. Durability is unaffected; the
	// backup taken immediately before eviction holds the full set.
	Cap int
	// Logger receives persistence events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Open creates the agent directory layout if needed and acquires the
// exclusive per-agent lock. Callers must Close the store to release it.
func Open(dir, agentID string, optFns ...func(o *StoreOptions)) (*FileStore, error) {
	opts := StoreOptions{Cap: 1000, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := os.MkdirAll(filepath.Join(dir, backupDir), 0o755); err != nil {
		return nil, &core.PersistenceError{AgentID: agentID, Op: "create agent directory", Err: err}
	}
	lockPath := filepath.Join(dir, lockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, &core.PersistenceError{AgentID: agentID, Op: "acquire lock", Err: err}
	}
	if !ok {
		return nil, &core.LockedError{AgentID: agentID, Path: lockPath}
	}
	return &FileStore{dir: dir, agentID: agentID, cap: opts.Cap, lock: lock, log: opts.Logger}, nil
}

// Close releases the agent lock. The store must not be used afterwards.
func (s *FileStore) Close() error { return s.lock.Unlock() }

// SetCap updates the live-history cap for subsequent appends. Used when the
// agent's configuration changes within a session.
func (s *FileStore) SetCap(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.cap = n
	}
}

func (s *FileStore) livePath() string { return filepath.Join(s.dir, liveFileName) }

// Load returns the persisted history snapshot. A missing live file is an
// empty history; an unparsable one is a *core.CorruptionError pointing the
// caller at RecoverFromLatestBackup.
func (s *FileStore) Load() (core.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileStore) loadLocked() (core.History, error) {
	data, err := os.ReadFile(s.livePath())
	if os.IsNotExist(err) {
		return core.History{}, nil
	}
	if err != nil {
		return nil, &core.PersistenceError{AgentID: s.agentID, Op: "read history", Err: err}
	}
	h, err := decode(data)
	if err != nil {
		return nil, &core.CorruptionError{AgentID: s.agentID, Path: s.livePath(), Err: err}
	}
	return h, nil
}

func decode(data []byte) (core.History, error) {
	var h core.History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// writeLocked atomically replaces the live file with the encoded history.
func (s *FileStore) writeLocked(h core.History) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return &core.PersistenceError{AgentID: s.agentID, Op: "encode history", Err: err}
	}
	if err := fsx.WriteFile(s.livePath(), data, 0o644); err != nil {
		return &core.PersistenceError{AgentID: s.agentID, Op: "write history", Err: err}
	}
	return nil
}

// Append finalizes the turn and persists it. Order of operations: backup the
// current live file, atomically write history+turn, then (when the cap is
// exceeded) backup the uncapped file and atomically write the evicted one.
func (s *FileStore) Append(t core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !t.Role.Valid() {
		return &core.ValidationError{Field: "role", Value: string(t.Role), Reason: "must be user or assistant"}
	}
	h, err := s.loadLocked()
	if err != nil {
		return err
	}
	if t.Seq == 0 {
		t.Seq = h.NextSeq()
	} else if t.Seq != h.NextSeq() {
		return &core.PersistenceError{
			AgentID: s.agentID, Op: "append",
			Err: fmt.Errorf("sequence %d would break gapless order, want %d", t.Seq, h.NextSeq()),
		}
	}

	if err := s.backupLocked(); err != nil {
		return err
	}
	merged := append(h.Clone(), t)
	if err := s.writeLocked(merged); err != nil {
		s.log.Error("append failed, live history unchanged", "seq", t.Seq, "error", err)
		return err
	}
	s.log.Info("turn appended", "seq", t.Seq, "role", string(t.Role))

	if len(merged) > s.cap {
		// Eviction is its own mutation: the backup taken here holds the
		// full uncapped set before the oldest turns leave the live file.
		if err := s.backupLocked(); err != nil {
			return err
		}
		evicted := merged.Tail(s.cap).Clone()
		if err := s.writeLocked(evicted); err != nil {
			return err
		}
		s.log.Info("history evicted to cap", "cap", s.cap, "removed", len(merged)-s.cap)
	}
	return nil
}

// Clear takes a backup, then truncates the live history to empty.
// Irreversible except via backup restoration.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backupLocked(); err != nil {
		return err
	}
	if err := s.writeLocked(core.History{}); err != nil {
		return err
	}
	s.log.Info("history cleared")
	return nil
}

// Search yields turns containing term, case-insensitively, in chronological
// order. The sequence is computed over an immutable snapshot and therefore
// restartable.
func (s *FileStore) Search(term string) (iter.Seq[core.Turn], error) {
	h, err := s.Load()
	if err != nil {
		return nil, err
	}
	return h.Match(term), nil
}

// Stats recomputes aggregate statistics from the persisted log.
func (s *FileStore) Stats() (core.Stats, error) {
	h, err := s.Load()
	if err != nil {
		return core.Stats{}, err
	}
	return Compute(h), nil
}

var _ core.Store = (*FileStore)(nil)
