// Package count tallies per-district school totals without extracting
// records, reading the listing's "Showing X to Y of Z" label.
package count

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/udisescan/udisescan/internal/config"
	"github.com/udisescan/udisescan/internal/csvout"
	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/portal"
)

// showingRe reads the total from the primary pagination label.
var showingRe = regexp.MustCompile(`(?i)Showing\s+\d+\s+to\s+\d+\s+of\s+(\d+)`)

// Looser patterns for when the label text does not match the primary form.
var altPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)of\s+(\d+)`),
	regexp.MustCompile(`(?i)total[:\s]*(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s+schools?`),
	regexp.MustCompile(`(?i)(\d+)\s+results?`),
}

// FromSnapshot parses the school total out of a rendered listing page,
// trying the primary label pattern then the loose fallbacks. Zero means no
// count was found.
func FromSnapshot(html string) int {
	if m := showingRe.FindStringSubmatch(html); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	for _, re := range altPatterns {
		if m := re.FindStringSubmatch(html); m != nil {
			n, _ := strconv.Atoi(m[1])
			logger.Debug("school count recovered with loose pattern", "count", n)
			return n
		}
	}
	return 0
}

// Counter walks selected regions and records each district's total.
type Counter struct {
	cfg config.Config
	nav *portal.Navigator
	now func() time.Time
}

// New creates a counter over an open navigator.
func New(cfg config.Config, nav *portal.Navigator) *Counter {
	return &Counter{cfg: cfg, nav: nav, now: time.Now}
}

// DistrictCount is one counted district.
type DistrictCount struct {
	State    string
	District string
	Schools  int
}

// CountState tallies every district of one state and writes the counts CSV.
// District failures are recorded as zero, not fatal.
func (c *Counter) CountState(ctx context.Context, st portal.Region) (string, []DistrictCount, error) {
	if err := c.nav.SelectState(ctx, st); err != nil {
		return "", nil, err
	}
	districts, err := c.nav.Districts(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("district listing failed: %w", err)
	}

	counts := make([]DistrictCount, 0, len(districts))
	for _, d := range districts {
		if err := ctx.Err(); err != nil {
			return "", counts, err
		}
		n, err := c.countDistrict(ctx, d)
		if err != nil {
			logger.Warn("district count failed", "district", d.Name, "error", err)
		}
		counts = append(counts, DistrictCount{State: st.Name, District: d.Name, Schools: n})
		logger.Info("district counted", "district", d.Name, "schools", n)
		sleep(ctx, c.cfg.DistrictDelay)
	}

	path, err := c.save(st.Name, counts)
	return path, counts, err
}

func (c *Counter) countDistrict(ctx context.Context, d portal.Region) (int, error) {
	if err := c.nav.SelectDistrict(ctx, d); err != nil {
		return 0, err
	}
	if err := c.nav.ClickSearch(ctx); err != nil {
		return 0, err
	}
	if err := c.nav.ConfirmResults(ctx); err != nil {
		return 0, err
	}
	html, err := c.nav.Session().Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return FromSnapshot(html), nil
}

func (c *Counter) save(stateName string, counts []DistrictCount) (string, error) {
	path := filepath.Join(c.cfg.OutputDir,
		csvout.CleanRegionName(stateName)+"_school_counts.csv")
	w := csvout.New(path, []string{"State", "District", "Total_Schools"})
	defer w.Close()

	rows := make([][]string, 0, len(counts))
	for _, dc := range counts {
		rows = append(rows, []string{dc.State, dc.District, strconv.Itoa(dc.Schools)})
	}
	if err := w.Append(rows); err != nil {
		return "", err
	}
	return path, nil
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
