package history

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/convocli/convo/core"
	"github.com/convocli/convo/internal/fsx"
)

// retention bounds the rotating backup set; the oldest snapshot is deleted
// once a new one pushes the count past this.
const retention = 10

const backupGlob = "history_*.json"

// backupLocked snapshots the current live file into backups/ and rotates
// the set. A missing live file (brand-new agent) is not an error.
// Caller holds s.mu.
func (s *FileStore) backupLocked() error {
	live := s.livePath()
	if _, err := os.Stat(live); os.IsNotExist(err) {
		return nil
	}
	stamp := time.Now().UTC().Format("20060102_150405.000000000")
	dst := filepath.Join(s.dir, backupDir, "history_"+stamp+".json")
	if err := fsx.CopyFile(live, dst, 0o644); err != nil {
		return &core.PersistenceError{AgentID: s.agentID, Op: "backup history", Err: err}
	}
	s.rotateLocked()
	return nil
}

// rotateLocked deletes the oldest backups beyond the retention limit.
// Rotation failures are logged, not fatal: the snapshot itself succeeded.
func (s *FileStore) rotateLocked() {
	names, err := s.backupPaths()
	if err != nil {
		s.log.Warn("backup rotation skipped", "error", err)
		return
	}
	for len(names) > retention {
		oldest := names[0]
		names = names[1:]
		if err := os.Remove(oldest); err != nil {
			s.log.Warn("failed to remove old backup", "path", oldest, "error", err)
		}
	}
}

// backupPaths returns backup file paths sorted oldest first. The timestamp
// naming makes lexical order chronological.
func (s *FileStore) backupPaths() ([]string, error) {
	names, err := filepath.Glob(filepath.Join(s.dir, backupDir, backupGlob))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Backups lists the retained snapshot paths, oldest first.
func (s *FileStore) Backups() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backupPaths()
}

// RecoverFromLatestBackup restores the live history from the newest parsable
// backup, skipping any snapshot that no longer decodes. It returns the
// restored history, or *core.NotFoundError when no usable backup exists.
func (s *FileStore) RecoverFromLatestBackup() (core.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.backupPaths()
	if err != nil {
		return nil, &core.PersistenceError{AgentID: s.agentID, Op: "list backups", Err: err}
	}
	for i := len(names) - 1; i >= 0; i-- {
		data, err := os.ReadFile(names[i])
		if err != nil {
			continue
		}
		h, err := decode(data)
		if err != nil {
			s.log.Warn("skipping unparsable backup", "path", names[i], "error", err)
			continue
		}
		if err := s.writeLocked(h); err != nil {
			return nil, err
		}
		s.log.Info("history recovered from backup", "path", names[i], "turns", len(h))
		return h, nil
	}
	return nil, &core.NotFoundError{AgentID: s.agentID, What: "usable backup"}
}
