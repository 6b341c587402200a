// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Interaction.RetryAttempts)
	assert.Equal(t, time.Second, cfg.Interaction.RetryBaseDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Interaction.FirstRetryDelay)
	assert.Equal(t, 10*time.Second, cfg.Interaction.DefaultTimeout)
	assert.False(t, cfg.Interaction.EnableHealthChecks, "strict checks are opt-in")
	assert.False(t, cfg.Interaction.EnableFillVerification)
	assert.True(t, cfg.Browser.Headless)
}

func TestNewConfigFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("interaction.retry_attempts", 5)
	v.Set("interaction.default_timeout", "30s")
	v.Set("interaction.enable_fill_verification", true)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Interaction.RetryAttempts)
	assert.Equal(t, 30*time.Second, cfg.Interaction.DefaultTimeout)
	assert.True(t, cfg.Interaction.EnableFillVerification)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero retry attempts", func(c *Config) { c.Interaction.RetryAttempts = 0 }},
		{"negative base delay", func(c *Config) { c.Interaction.RetryBaseDelay = -time.Second }},
		{"zero default timeout", func(c *Config) { c.Interaction.DefaultTimeout = 0 }},
		{"zero poll interval", func(c *Config) { c.Interaction.PollInterval = 0 }},
		{"zero viewport", func(c *Config) { c.Browser.ViewportWidth = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewConfigFromViperRejectsInvalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("interaction.retry_attempts", 0)

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry_attempts")
}
