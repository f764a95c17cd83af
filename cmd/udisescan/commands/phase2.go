package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/udisescan/udisescan/internal/detail"
)

var phase2Cmd = &cobra.Command{
	Use:   "phase2",
	Short: "Enrich an existing listing CSV from school detail pages",
	Long: `Visit the detail page of every school in a listing CSV that has a
usable link, and write the enriched rows to a new wide CSV.

Progress is checkpointed per school, so rerunning the command on the
same input resumes where the previous run stopped.`,
	RunE: runPhase2,
}

func init() {
	rootCmd.AddCommand(phase2Cmd)

	flags := phase2Cmd.Flags()
	flags.StringP("input", "i", "", "listing CSV to enrich (required)")
	flags.String("output-dir", ".", "directory for the enriched CSV")
	flags.Bool("headed", false, "run the browser with a visible window")

	_ = phase2Cmd.MarkFlagRequired("input")
	_ = viper.BindPFlag("output_dir", flags.Lookup("output-dir"))
}

func runPhase2(cmd *cobra.Command, args []string) error {
	cfg, prof, err := loadSettings()
	if err != nil {
		logError("invalid configuration: %v", err)
		return err
	}
	if headed, _ := cmd.Flags().GetBool("headed"); headed {
		cfg.Headless = false
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	session, err := startBrowser(cfg)
	if err != nil {
		logError("browser failed to start: %v", err)
		return err
	}
	defer session.Close()

	store, err := openCheckpoints(cfg)
	if err != nil {
		logError("checkpoint store unavailable: %v", err)
		return err
	}
	defer store.Close()

	proc := detail.NewProcessor(cfg,
		detail.NewParser(prof),
		detail.NewBrowserFetcher(session, cfg, prof),
		detail.NewStaticFetcher(cfg.UserAgent),
		store,
	)

	input, _ := cmd.Flags().GetString("input")
	sum, err := proc.Run(ctx, input)
	if err != nil {
		logError("enrichment failed: %v", err)
		return err
	}

	logInfo("enriched %d schools (%d succeeded, %d failed, %d already done) in %s",
		sum.Processed, sum.Succeeded, sum.Failed, sum.Skipped,
		sum.Elapsed.Round(time.Second))
	logInfo("output: %s", sum.Output)
	return nil
}
