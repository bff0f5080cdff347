package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutFor_Table(t *testing.T) {
	cases := []struct {
		variant Variant
		effort  Effort
		want    time.Duration
	}{
		{VariantFull, EffortLow, 3 * time.Minute},
		{VariantFull, EffortMedium, 6 * time.Minute},
		{VariantFull, EffortHigh, 12 * time.Minute},
		{VariantMini, EffortLow, 90 * time.Second},
		{VariantMini, EffortMedium, 3 * time.Minute},
		{VariantMini, EffortHigh, 6 * time.Minute},
		{VariantNano, EffortLow, time.Minute},
		{VariantNano, EffortMedium, 2 * time.Minute},
		{VariantNano, EffortHigh, 4 * time.Minute},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TimeoutFor(tc.variant, tc.effort), "%s/%s", tc.variant, tc.effort)
	}
}

func TestTimeoutFor_EffortSelectsPositionInRange(t *testing.T) {
	// Top tier: high effort resolves at the documented ceiling, low at the
	// floor, and the two differ.
	high := TimeoutFor(VariantFull, EffortHigh)
	low := TimeoutFor(VariantFull, EffortLow)
	assert.Equal(t, 12*time.Minute, high)
	assert.Equal(t, 3*time.Minute, low)
	assert.NotEqual(t, high, low)
}

func TestTimeoutFor_UnknownPairFallsBack(t *testing.T) {
	assert.Equal(t, defaultTimeout, TimeoutFor("gpt-99", EffortHigh))
}

func TestVariantCatalog(t *testing.T) {
	assert.True(t, VariantFull.Valid())
	assert.False(t, Variant("gpt-99").Valid())
	assert.Equal(t, "GPT-5 Mini", VariantMini.DisplayName())
	assert.Equal(t, "gpt-99", Variant("gpt-99").DisplayName(), "unknown variant falls back to raw id")
	assert.NotEmpty(t, VariantNano.Description())
	assert.Len(t, Variants(), 3)
}
