// Package config holds all tunable timing, retry, and endpoint settings.
//
// Every sleep, timeout, and retry ceiling in the scraper lives here so that
// tests can run the same code paths with zero delays.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the explicit configuration object passed into each component.
type Config struct {
	// Portal endpoints.
	PortalURL string `mapstructure:"portal_url" validate:"required,url"`

	// Browser settings.
	Headless    bool          `mapstructure:"headless"`
	UserAgent   string        `mapstructure:"user_agent"`
	PageTimeout time.Duration `mapstructure:"page_timeout" validate:"min=0"`

	// Retry ceilings.
	NavAttempts    int `mapstructure:"nav_attempts" validate:"min=1"`
	RegionAttempts int `mapstructure:"region_attempts" validate:"min=1"`
	PhaseAttempts  int `mapstructure:"phase_attempts" validate:"min=1"`
	ClickAttempts  int `mapstructure:"click_attempts" validate:"min=1"`
	MaxPages       int `mapstructure:"max_pages" validate:"min=1"`

	// Fixed delays. Not adaptive to server load.
	SettleDelay   time.Duration `mapstructure:"settle_delay" validate:"min=0"`
	PageDelay     time.Duration `mapstructure:"page_delay" validate:"min=0"`
	RecordDelay   time.Duration `mapstructure:"record_delay" validate:"min=0"`
	DistrictDelay time.Duration `mapstructure:"district_delay" validate:"min=0"`
	StateDelay    time.Duration `mapstructure:"state_delay" validate:"min=0"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" validate:"min=0"`
	ContentWait   time.Duration `mapstructure:"content_wait" validate:"min=0"`

	// Output.
	OutputDir string `mapstructure:"output_dir"`

	// Optional selector profile file overriding the built-in selectors.
	ProfilePath string `mapstructure:"profile"`
}

// Default returns the production configuration.
func Default() Config {
	return Config{
		PortalURL:      "https://udiseplus.gov.in/#/en/home",
		Headless:       true,
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		PageTimeout:    25 * time.Second,
		NavAttempts:    3,
		RegionAttempts: 3,
		PhaseAttempts:  3,
		ClickAttempts:  3,
		MaxPages:       100,
		SettleDelay:    2 * time.Second,
		PageDelay:      3 * time.Second,
		RecordDelay:    time.Second,
		DistrictDelay:  2 * time.Second,
		StateDelay:     10 * time.Second,
		RetryDelay:     30 * time.Second,
		ContentWait:    10 * time.Second,
		OutputDir:      ".",
	}
}

// Test returns a configuration with zero delays for deterministic tests.
func Test() Config {
	cfg := Default()
	cfg.SettleDelay = 0
	cfg.PageDelay = 0
	cfg.RecordDelay = 0
	cfg.DistrictDelay = 0
	cfg.StateDelay = 0
	cfg.RetryDelay = 0
	cfg.ContentWait = 0
	return cfg
}

// Load reads the configuration from viper, applying defaults for unset keys.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func Validate(cfg Config) error {
	return validator.New().Struct(cfg)
}
