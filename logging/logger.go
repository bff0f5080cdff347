// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing callers to plug
// any structured logger. It also offers an agent-scoped logger writing to
// the agent's per-day operational log file with helpers for model-call and
// persistence events.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Level is a thin enum for user friendly level configuration decoupled from slog.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger defines the minimal logging interface used across the module.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger { return &SlogAdapter{Logger: logger} }

// NoOpLogger discards all log messages. Useful for tests or when logging is
// disabled.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the message.
func (NoOpLogger) Error(string, ...any) {}

// AgentLogger is a Logger scoped to one agent. Entries carry the agent id
// and go to the agent's logs/ directory as JSON lines, one file per day.
type AgentLogger struct {
	logger  *slog.Logger
	file    *os.File
	agentID string
}

// Options configure agent logger construction.
type Options struct {
	Level  Level
	Mirror io.Writer // optional second sink (e.g. stderr), warnings and up
}

// NewAgentLogger opens (or creates) logs/<YYYY-MM-DD>.log under the agent
// directory. Close releases the file handle.
func NewAgentLogger(agentDir, agentID string, optFns ...func(o *Options)) (*AgentLogger, error) {
	opts := Options{Level: LevelInfo}
	for _, fn := range optFns {
		fn(&opts)
	}
	logDir := filepath.Join(agentDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	name := time.Now().UTC().Format("2006-01-02") + ".log"
	f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	var w io.Writer = f
	if opts.Mirror != nil {
		w = io.MultiWriter(f, opts.Mirror)
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level.slog()})
	logger := slog.New(handler).With(slog.String("agent_id", agentID))
	return &AgentLogger{logger: logger, file: f, agentID: agentID}, nil
}

// Close releases the underlying log file.
func (l *AgentLogger) Close() error { return l.file.Close() }

// Debug logs at debug level.
func (l *AgentLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Info logs at info level.
func (l *AgentLogger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

// Warn logs at warn level.
func (l *AgentLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// Error logs at error level.
func (l *AgentLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// LogModelCall records model call latency, token usage and outcome.
func (l *AgentLogger) LogModelCall(model string, tokens int, dur time.Duration, err error) {
	attrs := []any{
		slog.String("model", model),
		slog.Int("token_count", tokens),
		slog.Duration("duration", dur),
		slog.Bool("success", err == nil),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		l.logger.Error("model call failed", attrs...)
		return
	}
	l.logger.Info("model call completed", attrs...)
}

// LogPersistence records the outcome of a durable-write operation.
func (l *AgentLogger) LogPersistence(op string, turns int, err error) {
	attrs := []any{slog.String("operation", op), slog.Int("turns", turns)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		l.logger.Error("persistence failed", attrs...)
		return
	}
	l.logger.Info("persistence completed", attrs...)
}
