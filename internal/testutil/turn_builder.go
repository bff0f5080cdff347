// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing turns and histories. They are intentionally
// minimal and not intended for production usage.
package testutil

import (
	"time"

	"github.com/convocli/convo/core"
)

// TurnBuilder provides a fluent helper for constructing turns in tests.
// Example:
//
//	turn := NewTurnBuilder().Seq(3).Assistant("hello").Tokens(12).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type TurnBuilder struct {
	turn core.Turn
}

// NewTurnBuilder creates a builder defaulting to a user turn at a fixed
// timestamp so tests stay deterministic.
func NewTurnBuilder() *TurnBuilder {
	return &TurnBuilder{turn: core.Turn{
		Role:      core.RoleUser,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}
}

// Seq sets the sequence number (chainable).
func (b *TurnBuilder) Seq(n int) *TurnBuilder { b.turn.Seq = n; return b }

// User sets role user with the given content (chainable).
func (b *TurnBuilder) User(content string) *TurnBuilder {
	b.turn.Role = core.RoleUser
	b.turn.Content = content
	return b
}

// Assistant sets role assistant with the given content (chainable).
func (b *TurnBuilder) Assistant(content string) *TurnBuilder {
	b.turn.Role = core.RoleAssistant
	b.turn.Content = content
	return b
}

// At sets the timestamp (chainable).
func (b *TurnBuilder) At(ts time.Time) *TurnBuilder { b.turn.Timestamp = ts; return b }

// Tokens attaches metadata with the given total token count (chainable).
func (b *TurnBuilder) Tokens(n int) *TurnBuilder {
	b.ensureMetadata()
	b.turn.Metadata.TotalTokens = n
	return b
}

// Latency attaches metadata with the given latency (chainable).
func (b *TurnBuilder) Latency(d time.Duration) *TurnBuilder {
	b.ensureMetadata()
	b.turn.Metadata.LatencyMS = d.Milliseconds()
	return b
}

func (b *TurnBuilder) ensureMetadata() {
	if b.turn.Metadata == nil {
		b.turn.Metadata = &core.Metadata{}
	}
}

// Build returns the constructed turn.
func (b *TurnBuilder) Build() core.Turn { return b.turn }

// HistoryOf builds a gapless history from alternating role contents: even
// indices become user turns, odd indices assistant turns, sequenced from 1
// and spaced one minute apart.
func HistoryOf(contents ...string) core.History {
	h := make(core.History, 0, len(contents))
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range contents {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		h = append(h, core.Turn{
			Seq:       i + 1,
			Role:      role,
			Content:   content,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return h
}
