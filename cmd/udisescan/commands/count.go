package commands

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/udisescan/udisescan/internal/count"
	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/portal"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count schools per district without extracting records",
	Long: `Tally the total school count of every district by reading the
result counter of each search, writing one counts CSV per state.
Much faster than a full scrape; useful for sizing a run before
starting it (see the estimate command).`,
	RunE: runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)

	flags := countCmd.Flags()
	flags.String("state", "", "state to count (default: all states)")
	flags.String("output-dir", ".", "directory for counts CSV files")
	flags.Bool("headed", false, "run the browser with a visible window")

	_ = viper.BindPFlag("output_dir", flags.Lookup("output-dir"))
}

func runCount(cmd *cobra.Command, args []string) error {
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

	nav := portal.New(session, cfg, prof)
	if err := nav.Open(ctx); err != nil {
		logError("portal entry failed: %v", err)
		return err
	}

	states, err := nav.States(ctx)
	if err != nil {
		return err
	}
	only, _ := cmd.Flags().GetString("state")

	counter := count.New(cfg, nav)
	counted := 0
	for _, st := range states {
		if only != "" && !strings.EqualFold(st.Name, only) {
			continue
		}
		path, counts, err := counter.CountState(ctx, st)
		if err != nil {
			logger.Error("state count failed", "state", st.Name, "error", err)
			continue
		}
		total := 0
		for _, dc := range counts {
			total += dc.Schools
		}
		logInfo("%s: %d schools across %d districts -> %s", st.Name, total, len(counts), path)
		counted++
	}
	if counted == 0 && only != "" {
		logError("no state matches %q", only)
	}
	return nil
}
