package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convocli/convo/core"
	"github.com/convocli/convo/internal/testutil"
)

func openStore(t *testing.T, capTurns int) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir, "a1", func(o *StoreOptions) { o.Cap = capTurns })
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func readLive(t *testing.T, dir string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "history.json"))
	require.NoError(t, err)
	return data
}

func TestFileStore_AppendAssignsGaplessSequence(t *testing.T) {
	s, _ := openStore(t, 100)
	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, s.Append(core.NewTurn(core.RoleUser, content)))
	}
	h, err := s.Load()
	require.NoError(t, err)
	require.Len(t, h, 3)
	require.NoError(t, h.Validate())
	assert.Equal(t, 1, h[0].Seq)
	assert.Equal(t, 3, h[2].Seq)
}

func TestFileStore_AppendRejectsSequenceBreak(t *testing.T) {
	s, _ := openStore(t, 100)
	require.NoError(t, s.Append(testutil.NewTurnBuilder().Seq(1).User("a").Build()))
	err := s.Append(testutil.NewTurnBuilder().Seq(5).User("b").Build())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrPersistence))

	h, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, h, 1, "failed append must leave history unchanged")
}

func TestFileStore_AppendRejectsBadRole(t *testing.T) {
	s, _ := openStore(t, 100)
	err := s.Append(core.Turn{Role: "system", Content: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestFileStore_BackupBeforeEveryMutation(t *testing.T) {
	s, dir := openStore(t, 100)
	require.NoError(t, s.Append(core.NewTurn(core.RoleUser, "first")))

	// First append had no live file yet, so no backup exists.
	backups, err := s.Backups()
	require.NoError(t, err)
	assert.Empty(t, backups)

	require.NoError(t, s.Append(core.NewTurn(core.RoleAssistant, "second")))
	backups, err = s.Backups()
	require.NoError(t, err)
	require.Len(t, backups, 1)

	// The backup is the pre-append state: exactly the first turn.
	var snap core.History
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &snap))
	require.Len(t, snap, 1)
	assert.Equal(t, "first", snap[0].Content)

	live := readLive(t, dir)
	var h core.History
	require.NoError(t, json.Unmarshal(live, &h))
	assert.Len(t, h, 2)
}

func TestFileStore_EvictionKeepsCapAndPreservesFullBackup(t *testing.T) {
	s, _ := openStore(t, 3)
	for _, content := range []string{"one", "two", "three", "four"} {
		require.NoError(t, s.Append(core.NewTurn(core.RoleUser, content)))
	}

	h, err := s.Load()
	require.NoError(t, err)
	require.Len(t, h, 3, "live working set bounded by cap")
	assert.Equal(t, "two", h[0].Content)
	assert.Equal(t, "four", h[2].Content)
	require.NoError(t, h.Validate(), "retained turns stay gapless")

	// The backup taken immediately before eviction holds the full
	// uncapped set.
	backups, err := s.Backups()
	require.NoError(t, err)
	require.NotEmpty(t, backups)
	data, err := os.ReadFile(backups[len(backups)-1])
	require.NoError(t, err)
	var full core.History
	require.NoError(t, json.Unmarshal(data, &full))
	require.Len(t, full, 4)
	assert.Equal(t, "one", full[0].Content)
}

func TestFileStore_BackupRotation(t *testing.T) {
	s, _ := openStore(t, 100)
	// Each append past the first produces one backup; push well past the
	// retention limit.
	for i := 0; i < retention+5; i++ {
		require.NoError(t, s.Append(core.NewTurn(core.RoleUser, "msg")))
	}
	backups, err := s.Backups()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), retention)
}

func TestFileStore_ClearBacksUpThenTruncates(t *testing.T) {
	s, _ := openStore(t, 100)
	require.NoError(t, s.Append(core.NewTurn(core.RoleUser, "keep me")))
	require.NoError(t, s.Clear())

	h, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, h)

	restored, err := s.RecoverFromLatestBackup()
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, "keep me", restored[0].Content)
}

func TestFileStore_CorruptLiveAndRecovery(t *testing.T) {
	s, dir := openStore(t, 100)
	require.NoError(t, s.Append(core.NewTurn(core.RoleUser, "hello")))
	require.NoError(t, s.Append(core.NewTurn(core.RoleAssistant, "hi")))

	// Simulate a corrupted live file (e.g. external truncation).
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.json"), []byte("{garbled"), 0o644))

	_, err := s.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrCorruption))

	restored, err := s.RecoverFromLatestBackup()
	require.NoError(t, err)
	require.Len(t, restored, 1, "newest backup holds the pre-append state")
	assert.Equal(t, "hello", restored[0].Content)

	// The live file is readable again after recovery.
	h, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

func TestFileStore_InterruptedWriteLeavesPriorStateReadable(t *testing.T) {
	s, dir := openStore(t, 100)
	require.NoError(t, s.Append(core.NewTurn(core.RoleUser, "stable")))
	before := readLive(t, dir)

	// A crash between backup and rename leaves only a temp file behind;
	// the live file must still parse to the pre-append state.
	tmp := filepath.Join(dir, ".history.json.tmp-crash")
	require.NoError(t, os.WriteFile(tmp, []byte("partial wr"), 0o644))

	h, err := s.Load()
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, before, readLive(t, dir))
}

func TestFileStore_RecoverWithoutBackups(t *testing.T) {
	s, _ := openStore(t, 100)
	_, err := s.RecoverFromLatestBackup()
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestFileStore_LockContention(t *testing.T) {
	s, dir := openStore(t, 100)
	_ = s

	_, err := Open(dir, "a1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrLocked))

	var le *core.LockedError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "a1", le.AgentID)
}

func TestFileStore_LockReleasedOnClose(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "a1")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(dir, "a1")
	require.NoError(t, err)
	s2.Close()
}

func TestFileStore_Search(t *testing.T) {
	s, _ := openStore(t, 100)
	require.NoError(t, s.Append(core.NewTurn(core.RoleUser, "Hello World")))
	require.NoError(t, s.Append(core.NewTurn(core.RoleAssistant, "salutations")))
	require.NoError(t, s.Append(core.NewTurn(core.RoleUser, "goodbye world")))

	seq, err := s.Search("WORLD")
	require.NoError(t, err)
	var seqs []int
	for turn := range seq {
		seqs = append(seqs, turn.Seq)
	}
	assert.Equal(t, []int{1, 3}, seqs, "chronological, case-insensitive")

	empty, err := s.Search("no such term")
	require.NoError(t, err)
	count := 0
	for range empty {
		count++
	}
	assert.Zero(t, count, "zero matches is an empty sequence, not an error")
}

func TestFileStore_LoadMissingIsEmpty(t *testing.T) {
	s, _ := openStore(t, 100)
	h, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, h)
}
