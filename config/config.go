// Package config defines the typed, validated per-agent settings schema and
// its YAML persistence. Every field has an explicit domain checked at load
// and at edit time; invalid values are rejected, never clamped.
package config

import (
	"time"

	"github.com/convocli/convo/core"
)

// Effort selects how much internal reasoning the remote model performs, and
// with it the expected response latency.
type Effort string

// Reasoning effort tiers.
const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Valid reports whether the effort is one of the enumerated tiers.
func (e Effort) Valid() bool {
	return e == EffortLow || e == EffortMedium || e == EffortHigh
}

// SummaryMode controls whether the model returns a reasoning summary.
type SummaryMode string

// Reasoning summary modes.
const (
	SummaryAuto     SummaryMode = "auto"
	SummaryDetailed SummaryMode = "detailed"
	SummaryNone     SummaryMode = "none"
)

// Valid reports whether the mode is one of the enumerated values.
func (s SummaryMode) Valid() bool {
	return s == SummaryAuto || s == SummaryDetailed || s == SummaryNone
}

// Config is one agent's persisted settings. Zero MaxOutputTokens means
// "unset" (provider default applies).
type Config struct {
	Model           Variant     `yaml:"model" json:"model"`
	Temperature     float64     `yaml:"temperature" json:"temperature"`
	ReasoningEffort Effort      `yaml:"reasoning_effort" json:"reasoning_effort"`
	ReasoningSum    SummaryMode `yaml:"reasoning_summary" json:"reasoning_summary"`
	Stream          bool        `yaml:"stream" json:"stream"`
	MaxOutputTokens int         `yaml:"max_output_tokens,omitempty" json:"max_output_tokens,omitempty"`
	MaxHistorySize  int         `yaml:"max_history_size" json:"max_history_size"`
	SystemPrompt    string      `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`
	CreatedAt       time.Time   `yaml:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `yaml:"updated_at" json:"updated_at"`
}

// Default returns the baseline configuration for a variant.
func Default(v Variant) Config {
	now := time.Now().UTC()
	return Config{
		Model:           v,
		Temperature:     1.0,
		ReasoningEffort: EffortMedium,
		ReasoningSum:    SummaryAuto,
		Stream:          true,
		MaxHistorySize:  1000,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate checks every field's domain. It returns a *core.ValidationError
// naming the first offending field, or nil. The variant/effort pair must be
// jointly enumerated in the variant catalog's timeout table.
func (c Config) Validate() error {
	if !c.Model.Valid() {
		return &core.ValidationError{Field: "model", Value: string(c.Model), Reason: "unknown model variant"}
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return &core.ValidationError{Field: "temperature", Value: c.Temperature, Reason: "must be within [0.0, 2.0]"}
	}
	if !c.ReasoningEffort.Valid() {
		return &core.ValidationError{Field: "reasoning_effort", Value: string(c.ReasoningEffort), Reason: "must be low, medium or high"}
	}
	if _, ok := timeouts[c.Model][c.ReasoningEffort]; !ok {
		return &core.ValidationError{Field: "reasoning_effort", Value: string(c.ReasoningEffort), Reason: "not enumerated for model " + string(c.Model)}
	}
	if !c.ReasoningSum.Valid() {
		return &core.ValidationError{Field: "reasoning_summary", Value: string(c.ReasoningSum), Reason: "must be auto, detailed or none"}
	}
	if c.MaxOutputTokens < 0 {
		return &core.ValidationError{Field: "max_output_tokens", Value: c.MaxOutputTokens, Reason: "must be positive or unset"}
	}
	if c.MaxHistorySize <= 0 {
		return &core.ValidationError{Field: "max_history_size", Value: c.MaxHistorySize, Reason: "must be positive"}
	}
	return nil
}

// Timeout resolves the cancellation window for this configuration's
// model/effort pair.
func (c Config) Timeout() time.Duration {
	return TimeoutFor(c.Model, c.ReasoningEffort)
}
