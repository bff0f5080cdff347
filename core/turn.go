// Package core holds the domain contracts shared by every other package:
// the Turn and History conversation model and the typed error taxonomy.
// Keeping them here prevents higher level packages (engine, export, cmd)
// from depending on concrete storage or transport.
package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role tags a Turn with its conversational author.
type Role string

// Conversation roles. System prompts are injected at request-build time and
// never stored as turns.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the storable conversation roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAssistant }

// Metadata captures optional per-turn measurements recorded at assembly time.
// All fields are treated as absent/zero when not recorded.
type Metadata struct {
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	TotalTokens      int    `json:"total_tokens,omitempty"`
	LatencyMS        int64  `json:"latency_ms,omitempty"`
	ReasoningSummary string `json:"reasoning_summary,omitempty"`
	FinishReason     string `json:"finish_reason,omitempty"`
}

// Turn is one immutable exchange unit in a conversation.
//
// Contract:
//   - Seq is assigned by the history store and is strictly increasing and
//     gapless within one agent's live history
//   - a Turn is never edited after append; history mutates only by append,
//     cap eviction of the oldest turns, or full truncation
type Turn struct {
	Seq       int       `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// NewTurn builds an unfinalized turn (Seq 0) timestamped now in UTC. The
// store assigns the sequence number on append.
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// Matches reports whether the turn content contains term, case-insensitively.
func (t Turn) Matches(term string) bool {
	return strings.Contains(strings.ToLower(t.Content), strings.ToLower(term))
}

// Preview returns the first n characters of content, with an ellipsis when
// content is longer. Used by search results and the CLI history view.
func (t Turn) Preview(n int) string {
	runes := []rune(t.Content)
	if len(runes) <= n {
		return t.Content
	}
	return string(runes[:n]) + "..."
}

// NewID generates the correlation id tying one model call's log lines
// together.
func NewID() string { return uuid.NewString() }
