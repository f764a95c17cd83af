package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/udisescan/udisescan/internal/detail"
	"github.com/udisescan/udisescan/internal/extract"
	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/orchestrate"
	"github.com/udisescan/udisescan/internal/portal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape school listings (and detail pages) to CSV",
	Long: `Run the scrape. Without --state an interactive menu offers the
scope: every state, a single state, or a single district.

Each state produces one timestamped listing CSV, appended to after
every page. Unless --skip-details is set, each completed listing is
then enriched from the per-school detail pages into a second CSV.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("state", "", "state name to scrape (skips the menu)")
	flags.String("district", "", "district name to scrape (requires --state)")
	flags.String("output-dir", ".", "directory for output CSV files")
	flags.Bool("headed", false, "run the browser with a visible window")
	flags.Bool("skip-details", false, "stop after listing extraction, no detail pages")

	_ = viper.BindPFlag("output_dir", flags.Lookup("output-dir"))
}

func runRun(cmd *cobra.Command, args []string) error {
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

	sel := orchestrate.Selection{}
	sel.State, _ = cmd.Flags().GetString("state")
	sel.District, _ = cmd.Flags().GetString("district")
	if sel.State == "" {
		var quit bool
		sel, quit, err = chooseScope(ctx, nav)
		if err != nil {
			return err
		}
		if quit {
			logInfo("nothing selected, exiting")
			return nil
		}
	}

	var phase2 orchestrate.DetailRunner
	if skip, _ := cmd.Flags().GetBool("skip-details"); !skip {
		store, err := openCheckpoints(cfg)
		if err != nil {
			logError("checkpoint store unavailable: %v", err)
			return err
		}
		defer store.Close()

		phase2 = detail.NewProcessor(cfg,
			detail.NewParser(prof),
			detail.NewBrowserFetcher(session, cfg, prof),
			detail.NewStaticFetcher(cfg.UserAgent),
			store,
		)
	}

	orch := orchestrate.New(cfg, nav,
		orchestrate.NewHarvester(
			portal.NewListing(session, cfg, prof),
			extract.New(prof),
			cfg,
			prof.NextControls,
		),
		phase2,
	)

	sum, err := orch.Run(ctx, sel)
	if err != nil {
		logError("run aborted: %v", err)
		return err
	}

	printRunSummary(sum)
	// Partial failure is reported in the summary, not the exit code: the
	// written CSVs are valid regardless.
	return nil
}

// chooseScope walks the interactive menu. quit reports that the user chose
// to exit rather than scrape.
func chooseScope(ctx context.Context, nav *portal.Navigator) (sel orchestrate.Selection, quit bool, err error) {
	fmt.Println()
	fmt.Println("What should be scraped?")
	fmt.Println("  1. All states")
	fmt.Println("  2. A single state")
	fmt.Println("  3. A single district")
	fmt.Println("  4. Exit")

	choice, err := promptNumber("Choice", 1, 4)
	if err != nil {
		return sel, false, err
	}
	switch choice {
	case 1:
		return orchestrate.Selection{}, false, nil
	case 4:
		return sel, true, nil
	}

	// Listing regions needs the portal open. The orchestrator re-enters the
	// portal itself afterwards; entry is repeatable.
	if err := nav.Open(ctx); err != nil {
		return sel, false, err
	}
	states, err := nav.States(ctx)
	if err != nil {
		return sel, false, err
	}
	st, err := pickRegion("state", states)
	if err != nil {
		return sel, false, err
	}
	if choice == 2 {
		return orchestrate.Selection{State: st.Name}, false, nil
	}

	if err := nav.SelectState(ctx, st); err != nil {
		return sel, false, err
	}
	districts, err := nav.Districts(ctx)
	if err != nil {
		return sel, false, err
	}
	d, err := pickRegion("district", districts)
	if err != nil {
		return sel, false, err
	}
	return orchestrate.Selection{State: st.Name, District: d.Name}, false, nil
}

// pickRegion prints a numbered region table and reads the pick.
func pickRegion(kind string, regions []portal.Region) (portal.Region, error) {
	if len(regions) == 0 {
		return portal.Region{}, fmt.Errorf("no %ss available", kind)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", strings.ToUpper(kind[:1]) + kind[1:], "ID"})
	for i, r := range regions {
		t.AppendRow(table.Row{i + 1, r.Name, r.ID})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	n, err := promptNumber("Pick a "+kind, 1, len(regions))
	if err != nil {
		return portal.Region{}, err
	}
	return regions[n-1], nil
}

// promptNumber reads an integer in [lo, hi] from stdin, reprompting on bad
// input.
func promptNumber(label string, lo, hi int) (int, error) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s [%d-%d]: ", label, lo, hi)
		line, err := reader.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("input closed: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < lo || n > hi {
			fmt.Println("Please enter a number in range.")
			continue
		}
		return n, nil
	}
}

func printRunSummary(sum orchestrate.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Run summary", ""})
	t.AppendRow(table.Row{"States processed", sum.StatesProcessed})
	t.AppendRow(table.Row{"States failed", sum.StatesFailed})
	t.AppendRow(table.Row{"Districts processed", sum.DistrictsProcessed})
	t.AppendRow(table.Row{"Districts failed", sum.DistrictsFailed})
	t.AppendRow(table.Row{"Records extracted", sum.Records})
	t.AppendRow(table.Row{"Elapsed", sum.Elapsed.Round(time.Second)})
	t.SetStyle(table.StyleRounded)
	t.Render()

	for _, out := range sum.Outputs {
		logInfo("output: %s", out)
	}
	logger.Info("done")
}
