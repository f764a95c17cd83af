// Package commands implements the CLI commands for udisescan.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "udisescan",
	Short: "School records scraper for the UDISE Plus portal",
	Long: `Udisescan extracts school records from the UDISE Plus education
portal by driving a headless browser through the advance search:
state and district selection, paginated listings, and per-school
detail pages. Results are written to CSV incrementally, so an
interrupted run keeps everything extracted so far.

Examples:
  # Interactive run (pick states/districts from a menu)
  udisescan run

  # Scrape one state end to end
  udisescan run --state "KERALA"

  # One district only, Phase 1 listing data only
  udisescan run --state "KERALA" --district "ERNAKULAM" --skip-details

  # Enrich an existing listing file from detail pages
  udisescan phase2 --input KERALA_phase1_complete_20250101_120000.csv

  # Project processing time for 50,000 schools
  udisescan estimate --schools 50000`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.udisescan.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".udisescan")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("UDISESCAN")
	viper.AutomaticEnv()

	// Config file is optional.
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
