package commands

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/udisescan/udisescan/internal/estimate"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Project processing time for a school count",
	Long: `Project how long a scrape will take, from measured per-school
rates. Without --schools the command reads counts interactively
until an empty line.

Modes: phase1 (listing only), phase2 (detail pages only), combined.`,
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	flags := estimateCmd.Flags()
	flags.IntP("schools", "n", 0, "number of schools (0 = interactive)")
	flags.String("phase", "combined", "processing mode: phase1, phase2, combined")
	flags.Bool("no-buffer", false, "exclude the risk buffer from the projection")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	phaseStr, _ := cmd.Flags().GetString("phase")
	phase, err := parsePhase(phaseStr)
	if err != nil {
		return err
	}
	noBuffer, _ := cmd.Flags().GetBool("no-buffer")

	if n, _ := cmd.Flags().GetInt("schools"); n > 0 {
		estimate.Render(os.Stdout, estimate.For(n, phase, !noBuffer))
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Number of schools (empty to quit): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n <= 0 {
			fmt.Println("Please enter a positive number.")
			continue
		}
		estimate.Render(os.Stdout, estimate.For(n, phase, !noBuffer))
		fmt.Println()
	}
}

func parsePhase(s string) (estimate.Phase, error) {
	switch strings.ToLower(s) {
	case "phase1":
		return estimate.Phase1, nil
	case "phase2":
		return estimate.Phase2, nil
	case "combined", "":
		return estimate.Combined, nil
	default:
		return "", fmt.Errorf("unknown phase %q (want phase1, phase2, or combined)", s)
	}
}
