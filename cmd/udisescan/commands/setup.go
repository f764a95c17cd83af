package commands

import (
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/udisescan/udisescan/internal/browser"
	"github.com/udisescan/udisescan/internal/checkpoint"
	"github.com/udisescan/udisescan/internal/config"
	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/profile"
)

// checkpointFile is the resume database, kept next to the output CSVs.
const checkpointFile = "udisescan_checkpoint.db"

// loadSettings initializes logging and resolves config plus the selector
// profile from viper, flags already bound.
func loadSettings() (config.Config, profile.Profile, error) {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return cfg, profile.Profile{}, err
	}

	prof := profile.Default()
	if cfg.ProfilePath != "" {
		prof, err = profile.FromFile(cfg.ProfilePath)
		if err != nil {
			return cfg, prof, err
		}
		logger.Info("selector profile loaded", "path", cfg.ProfilePath)
	}
	return cfg, prof, nil
}

// startBrowser launches the run's single browser session.
func startBrowser(cfg config.Config) (*browser.Session, error) {
	return browser.NewSession(browser.Config{
		Headless:  cfg.Headless,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.PageTimeout,
	})
}

// openCheckpoints opens the resume store in the output directory.
func openCheckpoints(cfg config.Config) (*checkpoint.Store, error) {
	return checkpoint.Open(filepath.Join(cfg.OutputDir, checkpointFile))
}
