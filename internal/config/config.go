// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration. Every behavioral toggle of
// the interaction layer lives here so that components stay fully determined by
// their injected inputs.
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Browser     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	Interaction InteractionConfig `mapstructure:"interaction" yaml:"interaction"`
}

// LoggerConfig holds all the configuration for the zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	ViewportWidth     int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// InteractionConfig tunes the resilient element-interaction layer.
//
// The Enable* flags trade strictness for speed: with everything off, an
// operation only waits for visibility before acting, which is sufficient for
// the vast majority of clicks and reads. Teams chasing flaky suites can turn
// on the detailed checks and pay the latency cost.
type InteractionConfig struct {
	// DefaultTimeout bounds a single resolve-wait-act cycle.
	DefaultTimeout time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	// ActionTimeout bounds the inner browser primitive (the click itself).
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// PollInterval paces condition polling in the wait engine.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// StabilizeDelay is the settle pause applied for the Stable wait condition.
	StabilizeDelay time.Duration `mapstructure:"stabilize_delay" yaml:"stabilize_delay"`

	RetryAttempts   int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	FirstRetryDelay time.Duration `mapstructure:"first_retry_delay" yaml:"first_retry_delay"`

	// EnableHealthChecks turns on the diagnostic element inspection pass.
	EnableHealthChecks bool `mapstructure:"enable_health_checks" yaml:"enable_health_checks"`
	// EnableFillVerification reads the value back after a fill and fails on mismatch.
	EnableFillVerification bool `mapstructure:"enable_fill_verification" yaml:"enable_fill_verification"`
	// DetailedChecks upgrades every wait to include the Stable condition.
	DetailedChecks bool `mapstructure:"detailed_checks" yaml:"detailed_checks"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "xwp-automation")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 800)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.post_load_wait", "500ms")

	// -- Interaction --
	v.SetDefault("interaction.default_timeout", "10s")
	v.SetDefault("interaction.action_timeout", "5s")
	v.SetDefault("interaction.poll_interval", "100ms")
	v.SetDefault("interaction.stabilize_delay", "300ms")
	v.SetDefault("interaction.retry_attempts", 3)
	v.SetDefault("interaction.retry_base_delay", "1s")
	v.SetDefault("interaction.first_retry_delay", "250ms")
	v.SetDefault("interaction.enable_health_checks", false)
	v.SetDefault("interaction.enable_fill_verification", false)
	v.SetDefault("interaction.detailed_checks", false)
}

// NewDefaultConfig returns a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with static defaults, but fail loudly if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper builds and validates a configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport dimensions must be positive")
	}
	return c.Interaction.Validate()
}

// Validate checks the interaction layer settings.
func (ic *InteractionConfig) Validate() error {
	if ic.RetryAttempts <= 0 {
		return fmt.Errorf("interaction.retry_attempts must be a positive integer")
	}
	if ic.RetryBaseDelay < 0 || ic.FirstRetryDelay < 0 {
		return fmt.Errorf("interaction retry delays must not be negative")
	}
	if ic.DefaultTimeout <= 0 {
		return fmt.Errorf("interaction.default_timeout must be a positive duration")
	}
	if ic.PollInterval <= 0 {
		return fmt.Errorf("interaction.poll_interval must be a positive duration")
	}
	return nil
}
