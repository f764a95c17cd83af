package detail

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/udisescan/udisescan/internal/checkpoint"
	"github.com/udisescan/udisescan/internal/config"
	"github.com/udisescan/udisescan/internal/csvout"
	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/record"
)

// Summary reports one Phase 2 run.
type Summary struct {
	Input     string
	Output    string
	Eligible  int
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
}

// Processor enriches Phase 1 listing rows from their detail pages, writing
// each widened row as soon as it is ready.
type Processor struct {
	cfg      config.Config
	parser   *Parser
	fetch    Fetcher
	fallback Fetcher
	store    *checkpoint.Store
	now      func() time.Time
}

// NewProcessor assembles a Phase 2 processor. fallback may be nil to disable
// the static retry.
func NewProcessor(cfg config.Config, parser *Parser, fetch, fallback Fetcher, store *checkpoint.Store) *Processor {
	return &Processor{
		cfg:      cfg,
		parser:   parser,
		fetch:    fetch,
		fallback: fallback,
		store:    store,
		now:      time.Now,
	}
}

// Run processes every eligible row of a Phase 1 CSV. Rows already in the
// checkpoint store are skipped, which is what makes an interrupted run
// resumable. Per-record failures are recorded in the output, not returned.
func (p *Processor) Run(ctx context.Context, inputCSV string) (Summary, error) {
	start := p.now()
	sum := Summary{Input: inputCSV}

	rows, err := readListing(inputCSV)
	if err != nil {
		return sum, err
	}

	eligible := make([]record.Record, 0, len(rows))
	for _, r := range rows {
		if Eligible(r) {
			eligible = append(eligible, r)
		}
	}
	sum.Eligible = len(eligible)
	if len(eligible) == 0 {
		return sum, fmt.Errorf("no rows with usable detail links in %s", inputCSV)
	}

	state := eligible[0].Get("state")
	if state == record.Sentinel {
		state = strings.TrimSuffix(filepath.Base(inputCSV), filepath.Ext(inputCSV))
	}
	out := csvout.New(
		csvout.Filename(p.cfg.OutputDir, state, "phase2_complete", p.now()),
		record.DetailHeader,
	)
	defer out.Close()
	sum.Output = out.Path()

	scope := filepath.Base(inputCSV)
	logger.Info("detail enrichment started",
		"input", inputCSV, "eligible", len(eligible), "output", out.Path())

	for i, base := range eligible {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = p.now().Sub(start)
			return sum, err
		}

		code := base.Get("udise_code")
		seen, err := p.store.Seen(ctx, scope, code)
		if err != nil {
			return sum, err
		}
		if seen {
			sum.Skipped++
			logger.Debug("already processed, skipping", "udise_code", code)
			continue
		}

		det := p.enrich(ctx, base)
		if err := out.Append([][]string{record.DetailRow(base, det)}); err != nil {
			sum.Elapsed = p.now().Sub(start)
			return sum, fmt.Errorf("failed to write enriched row: %w", err)
		}
		if err := p.store.Mark(ctx, scope, code); err != nil {
			logger.Warn("checkpoint mark failed", "udise_code", code, "error", err)
		}

		sum.Processed++
		if det.Get("extraction_status") == StatusSuccess {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
		logger.Info("school enriched",
			"n", i+1, "of", len(eligible),
			"udise_code", code,
			"status", det.Get("extraction_status"))

		sleep(ctx, p.cfg.RecordDelay)
	}

	sum.Elapsed = p.now().Sub(start)
	logger.Info("detail enrichment finished",
		"processed", sum.Processed, "succeeded", sum.Succeeded,
		"failed", sum.Failed, "skipped", sum.Skipped,
		"elapsed", sum.Elapsed.Round(time.Second))
	return sum, nil
}

// enrich fetches and parses one detail page, retrying per config and
// falling back to a static fetch before giving up. Failure yields a record
// carrying only the failure markers.
func (p *Processor) enrich(ctx context.Context, base record.Record) record.Record {
	url := base.Get("know_more_link")

	var lastErr error
	for attempt := 1; attempt <= p.cfg.PhaseAttempts; attempt++ {
		html, title, err := p.fetch.Fetch(ctx, url)
		if err != nil {
			lastErr = err
			logger.Warn("detail fetch failed", "url", url, "attempt", attempt, "error", err)
			sleep(ctx, p.cfg.RetryDelay)
			continue
		}
		rec, err := p.parser.Parse(html, title, url)
		if err != nil {
			lastErr = err
			continue
		}
		return rec
	}

	if p.fallback != nil {
		if html, title, err := p.fallback.Fetch(ctx, url); err == nil {
			if rec, err := p.parser.Parse(html, title, url); err == nil {
				logger.Info("static fallback recovered page", "url", url)
				return rec
			}
		} else {
			logger.Debug("static fallback failed", "url", url, "error", err)
		}
	}

	logger.Warn("detail extraction failed", "url", url, "error", lastErr)
	return p.failureMarkers()
}

func (p *Processor) failureMarkers() record.Record {
	return record.Record{
		"extraction_status":         StatusFailed,
		"extraction_timestamp":      p.now().Format(time.RFC3339),
		"fields_extracted":          "0",
		"critical_fields_extracted": "0",
	}
}

// Eligible reports whether a listing row has a detail link worth visiting.
func Eligible(r record.Record) bool {
	link := r.Get("know_more_link")
	return link != record.Sentinel && strings.Contains(link, "http")
}

// readListing loads a Phase 1 CSV into records keyed by its header columns.
func readListing(path string) ([]record.Record, error) {
	f, err := os.Open(path) //#nosec G304 -- user-specified input file
	if err != nil {
		return nil, fmt.Errorf("failed to open listing csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read listing csv: %w", err)
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("listing csv %s has no data rows", path)
	}

	header := all[0]
	rows := make([]record.Record, 0, len(all)-1)
	for _, raw := range all[1:] {
		rec := make(record.Record, len(header))
		for i, col := range header {
			if i < len(raw) {
				rec[col] = raw[i]
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
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
