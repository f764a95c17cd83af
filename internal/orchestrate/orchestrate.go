// Package orchestrate runs the end-to-end scrape: region selection, search,
// pagination, and per-state output, one region at a time.
//
// Everything is sequential. One browser session serves the whole run, so
// regions are processed strictly in order with fixed delays between them.
package orchestrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/udisescan/udisescan/internal/config"
	"github.com/udisescan/udisescan/internal/csvout"
	"github.com/udisescan/udisescan/internal/detail"
	"github.com/udisescan/udisescan/internal/extract"
	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/paginate"
	"github.com/udisescan/udisescan/internal/portal"
	"github.com/udisescan/udisescan/internal/record"
)

// step is one phase of the per-district machine. Steps advance forward
// only; a failed step fails the district attempt.
type step int

const (
	stepPending step = iota
	stepSelectRegion
	stepSearch
	stepPaginateExtract
	stepSave
	stepDone
)

func (s step) String() string {
	switch s {
	case stepPending:
		return "PENDING"
	case stepSelectRegion:
		return "SELECT_REGION"
	case stepSearch:
		return "SEARCH"
	case stepPaginateExtract:
		return "PAGINATE_EXTRACT"
	case stepSave:
		return "SAVE"
	default:
		return "DONE"
	}
}

// Portal is the navigator surface the orchestrator drives.
type Portal interface {
	Open(ctx context.Context) error
	States(ctx context.Context) ([]portal.Region, error)
	Districts(ctx context.Context) ([]portal.Region, error)
	SelectState(ctx context.Context, r portal.Region) error
	SelectDistrict(ctx context.Context, r portal.Region) error
	ClickSearch(ctx context.Context) error
	SetPageSize(ctx context.Context)
	ConfirmResults(ctx context.Context) error
}

// Lister walks the current search results and hands batches to sink.
type Lister interface {
	Harvest(ctx context.Context, rctx extract.Context, sink paginate.SinkFunc) (int, error)
}

// DetailRunner is the optional Phase 2 stage run after each state's listing
// completes.
type DetailRunner interface {
	Run(ctx context.Context, inputCSV string) (detail.Summary, error)
}

// Selection narrows a run. Empty fields mean "all".
type Selection struct {
	State    string
	District string
}

// Summary reports one full run.
type Summary struct {
	StatesProcessed    int
	StatesFailed       int
	DistrictsProcessed int
	DistrictsFailed    int
	Records            int
	Outputs            []string
	Elapsed            time.Duration
}

// Orchestrator sequences the scrape.
type Orchestrator struct {
	cfg    config.Config
	portal Portal
	lister Lister
	phase2 DetailRunner // nil disables enrichment
	now    func() time.Time
}

// New assembles an orchestrator.
func New(cfg config.Config, p Portal, l Lister, phase2 DetailRunner) *Orchestrator {
	return &Orchestrator{cfg: cfg, portal: p, lister: l, phase2: phase2, now: time.Now}
}

// Run processes every selected state. Individual region failures are logged
// and counted, never escalated; only portal entry failure or context
// cancellation aborts the run.
func (o *Orchestrator) Run(ctx context.Context, sel Selection) (Summary, error) {
	start := o.now()
	var sum Summary

	if err := o.portal.Open(ctx); err != nil {
		return sum, err
	}

	states, err := o.portal.States(ctx)
	if err != nil {
		return sum, fmt.Errorf("state listing failed: %w", err)
	}
	states = filterRegions(states, sel.State)
	if len(states) == 0 {
		return sum, fmt.Errorf("no state matches %q", sel.State)
	}
	logger.Info("run starting", "states", len(states))

	for i, st := range states {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = o.now().Sub(start)
			return sum, err
		}

		out, err := o.state(ctx, st, sel, &sum)
		if err != nil {
			sum.StatesFailed++
			logger.Error("state failed", "state", st.Name, "error", err)
		} else {
			sum.StatesProcessed++
			if out != "" {
				sum.Outputs = append(sum.Outputs, out)
			}
		}

		if i < len(states)-1 {
			sleep(ctx, o.cfg.StateDelay)
		}
	}

	sum.Elapsed = o.now().Sub(start)
	logger.Info("run finished",
		"states_processed", sum.StatesProcessed,
		"states_failed", sum.StatesFailed,
		"districts_processed", sum.DistrictsProcessed,
		"districts_failed", sum.DistrictsFailed,
		"records", sum.Records,
		"elapsed", sum.Elapsed.Round(time.Second))
	return sum, nil
}

// state runs Phase 1 for every selected district of one state, then Phase 2
// over the fresh listing file. A state with zero successful districts skips
// Phase 2: there is nothing trustworthy to enrich.
func (o *Orchestrator) state(ctx context.Context, st portal.Region, sel Selection, sum *Summary) (string, error) {
	logger.Info("state starting", "state", st.Name, "state_id", st.ID)

	if err := o.retry(ctx, "state selection", func() error {
		return o.portal.SelectState(ctx, st)
	}); err != nil {
		return "", err
	}

	districts, err := o.portal.Districts(ctx)
	if err != nil {
		return "", fmt.Errorf("district listing failed: %w", err)
	}
	districts = filterRegions(districts, sel.District)
	if len(districts) == 0 {
		return "", fmt.Errorf("no district matches %q", sel.District)
	}

	out := csvout.New(
		csvout.Filename(o.cfg.OutputDir, st.Name, "phase1_complete", o.now()),
		record.ListingHeader,
	)
	defer out.Close()

	succeeded := 0
	for i, d := range districts {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := o.districtWithRetry(ctx, st, d, out)
		if err != nil {
			sum.DistrictsFailed++
			logger.Error("district failed, continuing", "state", st.Name, "district", d.Name, "error", err)
		} else {
			sum.DistrictsProcessed++
			sum.Records += n
			succeeded++
		}

		if i < len(districts)-1 {
			sleep(ctx, o.cfg.DistrictDelay)
		}
	}

	if succeeded == 0 {
		return "", fmt.Errorf("all %d districts failed", len(districts))
	}

	if o.phase2 != nil && out.Rows() > 0 {
		if _, err := o.phase2.Run(ctx, out.Path()); err != nil {
			logger.Error("detail enrichment failed", "state", st.Name, "error", err)
		}
	}

	logger.Info("state finished", "state", st.Name, "districts_ok", succeeded, "rows", out.Rows())
	return out.Path(), nil
}

// districtWithRetry runs the district machine up to PhaseAttempts times.
func (o *Orchestrator) districtWithRetry(ctx context.Context, st, d portal.Region, out *csvout.Writer) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= o.cfg.PhaseAttempts; attempt++ {
		n, err := o.district(ctx, st, d, out)
		if err == nil {
			return n, nil
		}
		lastErr = err
		logger.Warn("district attempt failed",
			"district", d.Name, "attempt", attempt, "of", o.cfg.PhaseAttempts, "error", err)
		if attempt < o.cfg.PhaseAttempts {
			sleep(ctx, o.cfg.RetryDelay)
		}
	}
	return 0, lastErr
}

// district walks one district through the step machine.
func (o *Orchestrator) district(ctx context.Context, st, d portal.Region, out *csvout.Writer) (int, error) {
	rctx := extract.Context{
		State:      st.Name,
		StateID:    st.ID,
		District:   d.Name,
		DistrictID: d.ID,
	}

	records := 0
	for s := stepSelectRegion; s != stepDone; s++ {
		logger.Debug("district step", "district", d.Name, "step", s.String())

		var err error
		switch s {
		case stepSelectRegion:
			err = o.retry(ctx, "district selection", func() error {
				return o.portal.SelectDistrict(ctx, d)
			})
		case stepSearch:
			err = o.retry(ctx, "search", func() error {
				if err := o.portal.ClickSearch(ctx); err != nil {
					return err
				}
				if err := o.portal.ConfirmResults(ctx); err != nil {
					return err
				}
				o.portal.SetPageSize(ctx)
				return nil
			})
		case stepPaginateExtract:
			records, err = o.lister.Harvest(ctx, rctx, func(page int, recs []record.Record) error {
				rows := make([][]string, 0, len(recs))
				for _, r := range recs {
					rows = append(rows, record.ListingRow(r))
				}
				return out.Append(rows)
			})
		case stepSave:
			// Batches were flushed page by page; this step just settles
			// the district's bookkeeping.
			logger.Info("district saved", "district", d.Name, "records", records)
		}
		if err != nil {
			return 0, fmt.Errorf("%s failed for %s: %w", s.String(), d.Name, err)
		}
	}
	return records, nil
}

// retry runs fn up to RegionAttempts times with the configured delay.
func (o *Orchestrator) retry(ctx context.Context, what string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= o.cfg.RegionAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(); err != nil {
			lastErr = err
			logger.Warn("step failed", "step", what, "attempt", attempt, "error", err)
			if attempt < o.cfg.RegionAttempts {
				sleep(ctx, o.cfg.RetryDelay)
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("%s failed after %d attempts: %w", what, o.cfg.RegionAttempts, lastErr)
}

// filterRegions keeps regions whose name matches the filter, or everything
// when the filter is empty. Matching is case-insensitive on the full name.
func filterRegions(regions []portal.Region, name string) []portal.Region {
	if name == "" {
		return regions
	}
	var keep []portal.Region
	for _, r := range regions {
		if strings.EqualFold(r.Name, name) {
			keep = append(keep, r)
		}
	}
	return keep
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
