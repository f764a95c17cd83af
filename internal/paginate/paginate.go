// Package paginate walks a paginated listing view page by page.
//
// The page sequence is lazy, finite, and non-restartable: pages are visited
// strictly in order 1, 2, 3, … and the walk ends the first time the next
// control is absent or disabled, or when clicking it stops working.
package paginate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/record"
)

// Advance is the outcome of inspecting the next-page control.
type Advance int

const (
	// HasNext means the control exists and is clickable.
	HasNext Advance = iota
	// End means the control is absent, hidden, or disabled. This is the
	// normal termination signal, not an error.
	End
)

// Surface is the live listing view the paginator drives.
type Surface interface {
	// Snapshot returns the current rendered HTML.
	Snapshot(ctx context.Context) (string, error)
	// ScrollBottom scrolls to the bottom so lazy content renders.
	ScrollBottom(ctx context.Context) error
	// ClickNext performs one attempt to activate the next-page control,
	// falling through its click strategies. An error means the attempt
	// failed; it carries no end-of-list meaning.
	ClickNext(ctx context.Context) error
	// WaitForContent waits, bounded, for new listing content to render.
	// A timeout error is advisory; extraction proceeds optimistically.
	WaitForContent(ctx context.Context) error
}

// ExtractFunc turns one page snapshot into records.
type ExtractFunc func(html string) ([]record.Record, error)

// SinkFunc receives each page's batch immediately after extraction.
type SinkFunc func(page int, recs []record.Record) error

// Config bounds the walk.
type Config struct {
	MaxPages      int           // safety ceiling on pages per listing
	ClickAttempts int           // attempts before treating the control as stuck
	PageDelay     time.Duration // fixed wait after a successful advance
	ClickRetryGap time.Duration // fixed wait between click attempts
	NextControls  []string      // next-control selectors, in priority order
}

// Paginator consumes a listing surface.
type Paginator struct {
	cfg Config
}

// New creates a paginator.
func New(cfg Config) *Paginator {
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	if cfg.ClickAttempts < 1 {
		cfg.ClickAttempts = 1
	}
	if len(cfg.NextControls) == 0 {
		cfg.NextControls = []string{"a.nextBtn"}
	}
	return &Paginator{cfg: cfg}
}

// Run extracts every page of the listing, handing each batch to sink before
// advancing. It returns the total record count. Reaching the page ceiling is
// reported in the log, not as an error.
func (p *Paginator) Run(ctx context.Context, s Surface, extract ExtractFunc, sink SinkFunc) (int, error) {
	total := 0

	for page := 1; page <= p.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		if err := s.ScrollBottom(ctx); err != nil {
			logger.Debug("scroll failed", "page", page, "error", err)
		}

		html, err := s.Snapshot(ctx)
		if err != nil {
			return total, fmt.Errorf("snapshot of page %d failed: %w", page, err)
		}

		recs, err := extract(html)
		if err != nil {
			return total, fmt.Errorf("extraction on page %d failed: %w", page, err)
		}
		if err := sink(page, recs); err != nil {
			return total, fmt.Errorf("sink rejected page %d: %w", page, err)
		}
		total += len(recs)
		logger.Info("page extracted", "page", page, "records", len(recs), "total", total)

		if NextState(html, p.cfg.NextControls) == End {
			logger.Info("no more pages", "last_page", page)
			return total, nil
		}

		if !p.advance(ctx, s, page) {
			// Exhausted click attempts. Conservatively treat as the end;
			// a truly stuck page under-counts rather than loops.
			logger.Warn("next control unresponsive, stopping", "page", page)
			return total, nil
		}

		sleep(ctx, p.cfg.PageDelay)
		if err := s.WaitForContent(ctx); err != nil {
			logger.Warn("timeout waiting for next page content", "page", page+1, "error", err)
		}
	}

	logger.Warn("page ceiling reached, more data may exist", "max_pages", p.cfg.MaxPages)
	return total, nil
}

func (p *Paginator) advance(ctx context.Context, s Surface, page int) bool {
	for attempt := 1; attempt <= p.cfg.ClickAttempts; attempt++ {
		err := s.ClickNext(ctx)
		if err == nil {
			logger.Debug("advanced to next page", "from_page", page, "attempt", attempt)
			return true
		}
		logger.Debug("next click attempt failed", "page", page, "attempt", attempt, "error", err)
		if attempt < p.cfg.ClickAttempts {
			sleep(ctx, p.cfg.ClickRetryGap)
		}
	}
	return false
}

// NextState inspects a snapshot and decides whether another page exists.
//
// The disabled check is a heuristic over the signals the portal has been
// observed to emit: a "disabled" class token on the control or its parent
// <li>, a disabled/aria-disabled attribute, or an inline display:none. Any
// one of them ends the sequence.
func NextState(html string, controls []string) Advance {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return End
	}

	for _, q := range controls {
		sel := doc.Find(q).First()
		if sel.Length() == 0 {
			continue
		}
		if controlDisabled(sel) {
			return End
		}
		return HasNext
	}
	return End
}

func controlDisabled(sel *goquery.Selection) bool {
	if hasDisabledToken(sel.AttrOr("class", "")) {
		return true
	}
	if _, ok := sel.Attr("disabled"); ok {
		return true
	}
	if v, ok := sel.Attr("aria-disabled"); ok && strings.EqualFold(v, "true") {
		return true
	}
	if style, ok := sel.Attr("style"); ok && strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none") {
		return true
	}
	// Primary portal signal: the wrapping <li> carries the disabled class.
	parent := sel.Parent()
	if goquery.NodeName(parent) == "li" && hasDisabledToken(parent.AttrOr("class", "")) {
		return true
	}
	return false
}

func hasDisabledToken(class string) bool {
	for _, tok := range strings.Fields(class) {
		if strings.EqualFold(tok, "disabled") {
			return true
		}
	}
	return false
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
