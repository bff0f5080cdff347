package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convocli/convo/core"
)

func TestDefault_IsValid(t *testing.T) {
	for _, v := range Variants() {
		require.NoError(t, Default(v).Validate(), "default config for %s", v)
	}
}

func TestValidate_RejectsOutOfDomain(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown model", func(c *Config) { c.Model = "gpt-99" }},
		{"temperature below range", func(c *Config) { c.Temperature = -0.1 }},
		{"temperature above range", func(c *Config) { c.Temperature = 2.01 }},
		{"bad effort", func(c *Config) { c.ReasoningEffort = "extreme" }},
		{"bad summary mode", func(c *Config) { c.ReasoningSum = "verbose" }},
		{"negative max tokens", func(c *Config) { c.MaxOutputTokens = -1 }},
		{"zero history cap", func(c *Config) { c.MaxHistorySize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default(VariantFull)
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrValidation), "want validation error, got %v", err)
		})
	}
}

func TestValidate_NeverClamps(t *testing.T) {
	c := Default(VariantFull)
	c.Temperature = 5.0
	require.Error(t, c.Validate())
	assert.Equal(t, 5.0, c.Temperature, "validation must reject, not clamp")
}

func TestEffortAndSummaryDomains(t *testing.T) {
	assert.True(t, EffortLow.Valid())
	assert.True(t, EffortHigh.Valid())
	assert.False(t, Effort("max").Valid())
	assert.True(t, SummaryAuto.Valid())
	assert.False(t, SummaryMode("full").Valid())
}
