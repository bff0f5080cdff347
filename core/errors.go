package core

import (
	"errors"
	"fmt"
)

// Sentinel values for errors.Is matching. The concrete *Error types below
// carry the agent id, operation and underlying cause; each reports Is(...)
// against its sentinel so callers can branch without unpacking.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrPersistence       = errors.New("persistence failed")
	ErrCorruption        = errors.New("history corrupted")
	ErrTimeout           = errors.New("call timed out")
	ErrStreamInterrupted = errors.New("stream interrupted")
	ErrExport            = errors.New("export failed")
	ErrLocked            = errors.New("agent locked")
)

// ValidationError reports a configuration value outside its domain. Raised
// before persistence; invalid values are never clamped or written.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is matches the ErrValidation sentinel.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a missing agent, configuration or file.
type NotFoundError struct {
	AgentID string
	What    string
}

func (e *NotFoundError) Error() string {
	if e.AgentID == "" {
		return fmt.Sprintf("%s not found", e.What)
	}
	return fmt.Sprintf("agent %s: %s not found", e.AgentID, e.What)
}

// Is matches the ErrNotFound sentinel.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PersistenceError reports a durable-write failure. The prior on-disk state
// is guaranteed unchanged when this is returned.
type PersistenceError struct {
	AgentID string
	Op      string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("agent %s: %s: %v", e.AgentID, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is matches the ErrPersistence sentinel.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// CorruptionError reports an unparsable live history file. Callers should
// attempt RecoverFromLatestBackup.
type CorruptionError struct {
	AgentID string
	Path    string
	Err     error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("agent %s: history %s unreadable: %v", e.AgentID, e.Path, e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }

// Is matches the ErrCorruption sentinel.
func (e *CorruptionError) Is(target error) bool { return target == ErrCorruption }

// TimeoutError reports that a model call exceeded its policy window. The
// in-flight call was cancelled and nothing was persisted. Resubmitting,
// possibly with lower reasoning effort, is a user decision; the core never
// retries.
type TimeoutError struct {
	AgentID string
	Window  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent %s: model call exceeded %s timeout", e.AgentID, e.Window)
}

// Is matches the ErrTimeout sentinel.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// StreamInterruptedError reports a streaming call that ended without a
// completion signal. Partially assembled content is discarded; history is
// untouched.
type StreamInterruptedError struct {
	AgentID string
	Err     error
}

func (e *StreamInterruptedError) Error() string {
	return fmt.Sprintf("agent %s: stream interrupted: %v", e.AgentID, e.Err)
}

func (e *StreamInterruptedError) Unwrap() error { return e.Err }

// Is matches the ErrStreamInterrupted sentinel.
func (e *StreamInterruptedError) Is(target error) bool { return target == ErrStreamInterrupted }

// ExportError reports an artifact that could not be rendered or written.
// Artifacts are written atomically, so a failed export leaves no partial file.
type ExportError struct {
	AgentID string
	Format  string
	Err     error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("agent %s: export %s: %v", e.AgentID, e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Is matches the ErrExport sentinel.
func (e *ExportError) Is(target error) bool { return target == ErrExport }

// LockedError reports contention on an agent directory: another process or
// session already holds the exclusive lock.
type LockedError struct {
	AgentID string
	Path    string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("agent %s: locked by another session (%s)", e.AgentID, e.Path)
}

// Is matches the ErrLocked sentinel.
func (e *LockedError) Is(target error) bool { return target == ErrLocked }
