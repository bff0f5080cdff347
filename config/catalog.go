package config

import "time"

// Variant identifies a model tier. The three tiers trade speed against
// quality and carry different cancellation windows.
type Variant string

// Supported model variants.
const (
	VariantFull Variant = "gpt-5"
	VariantMini Variant = "gpt-5-mini"
	VariantNano Variant = "gpt-5-nano"
)

// Valid reports whether the variant is in the catalog.
func (v Variant) Valid() bool {
	_, ok := catalog[v]
	return ok
}

// DisplayName returns the human-readable name, falling back to the raw id.
func (v Variant) DisplayName() string {
	if info, ok := catalog[v]; ok {
		return info.Name
	}
	return string(v)
}

// Description returns the catalog description, empty for unknown variants.
func (v Variant) Description() string { return catalog[v].Description }

// VariantInfo describes one catalog entry.
type VariantInfo struct {
	Name        string
	Description string
}

var catalog = map[Variant]VariantInfo{
	VariantFull: {
		Name:        "GPT-5",
		Description: "Full-featured model with advanced reasoning capabilities",
	},
	VariantMini: {
		Name:        "GPT-5 Mini",
		Description: "Compact model balancing performance and efficiency",
	},
	VariantNano: {
		Name:        "GPT-5 Nano",
		Description: "Lightweight model optimized for speed",
	},
}

// Per variant/effort cancellation windows. Effort selects the position
// within each variant's documented range: full tier 3-12 minutes, mini
// 1.5-6 minutes, nano 1-4 minutes.
var timeouts = map[Variant]map[Effort]time.Duration{
	VariantFull: {
		EffortLow:    3 * time.Minute,
		EffortMedium: 6 * time.Minute,
		EffortHigh:   12 * time.Minute,
	},
	VariantMini: {
		EffortLow:    90 * time.Second,
		EffortMedium: 3 * time.Minute,
		EffortHigh:   6 * time.Minute,
	},
	VariantNano: {
		EffortLow:    time.Minute,
		EffortMedium: 2 * time.Minute,
		EffortHigh:   4 * time.Minute,
	},
}

// defaultTimeout applies when the pair is not enumerated. Validation rejects
// such configurations before persistence, so this only covers ad hoc calls.
const defaultTimeout = 5 * time.Minute

// TimeoutFor maps (variant, effort) to the bounded wait window for one
// model call. Pure function of its inputs.
func TimeoutFor(v Variant, e Effort) time.Duration {
	if d, ok := timeouts[v][e]; ok {
		return d
	}
	return defaultTimeout
}

// Variants returns the catalog ids in display order.
func Variants() []Variant { return []Variant{VariantFull, VariantMini, VariantNano} }
