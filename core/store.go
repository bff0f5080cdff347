package core

import (
	"iter"
	"time"
)

// Stats aggregates read-only measurements over one agent's history. Token
// and latency figures come from turn metadata and are zero when never
// recorded.
type Stats struct {
	TotalTurns     int           `json:"total_turns"`
	UserTurns      int           `json:"user_turns"`
	AssistantTurns int           `json:"assistant_turns"`
	TotalChars     int           `json:"total_characters"`
	AvgChars       int           `json:"average_turn_length"`
	TotalTokens    int           `json:"total_tokens"`
	AvgTokens      int           `json:"average_tokens"`
	MinLatency     time.Duration `json:"min_latency"`
	MaxLatency     time.Duration `json:"max_latency"`
	MeanLatency    time.Duration `json:"mean_latency"`
	FirstTurn      time.Time     `json:"first_turn,omitzero"`
	LastTurn       time.Time     `json:"last_turn,omitzero"`
	Duration       time.Duration `json:"conversation_duration"`
}

// Store persists one agent's ordered turn log with crash-safe backups.
//
// Contract:
//   - Append takes a backup of the current on-disk history before every
//     mutating write, then atomically replaces the live file
//   - on any Append failure the prior live file remains intact and readable
//   - reads observe either the pre- or post-append state, never a partial one
//   - Search and Stats recompute from the persisted log on every call
type Store interface {
	// Load returns the persisted history snapshot. A missing live file is
	// an empty history, not an error; an unparsable one is a *CorruptionError.
	Load() (History, error)

	// Append finalizes the turn (assigning the next sequence number when
	// Seq is zero), persists it, and applies cap eviction to the live file.
	Append(t Turn) error

	// Clear takes a backup, then truncates the live history to empty.
	Clear() error

	// Search yields turns whose content contains term, case-insensitively,
	// in chronological order.
	Search(term string) (iter.Seq[Turn], error)

	// Stats aggregates counts, token usage, latency and timing.
	Stats() (Stats, error)

	// RecoverFromLatestBackup restores the live history from the newest
	// parsable backup, returning the restored snapshot.
	RecoverFromLatestBackup() (History, error)
}
