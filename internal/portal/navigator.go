// Package portal drives the UDISE Plus search UI: portal entry, cascading
// region dropdowns, search, and page size.
package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/udisescan/udisescan/internal/browser"
	"github.com/udisescan/udisescan/internal/config"
	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/profile"
)

// Dropdown positions among the region selects on the advance search page.
// The district dropdown only exists after a state is chosen.
const (
	stateDropdown    = 0
	districtDropdown = 1
)

// ErrNoResults means the search completed but no result markup appeared.
var ErrNoResults = errors.New("no search results present")

// Navigator owns portal-level flows on top of a browser session.
type Navigator struct {
	s    *browser.Session
	cfg  config.Config
	prof profile.Profile
}

// New creates a navigator.
func New(s *browser.Session, cfg config.Config, prof profile.Profile) *Navigator {
	return &Navigator{s: s, cfg: cfg, prof: prof}
}

// Session exposes the underlying browser session for listing surfaces.
func (n *Navigator) Session() *browser.Session { return n.s }

// Open walks from the portal home page to the advance search form, retrying
// the whole entry sequence on failure.
func (n *Navigator) Open(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= n.cfg.NavAttempts; attempt++ {
		if err := n.openOnce(ctx); err != nil {
			lastErr = err
			logger.Warn("portal entry failed", "attempt", attempt, "error", err)
			sleep(ctx, n.cfg.RetryDelay)
			continue
		}
		logger.Info("advance search reached", "attempt", attempt)
		return nil
	}
	return fmt.Errorf("portal entry failed after %d attempts: %w", n.cfg.NavAttempts, lastErr)
}

func (n *Navigator) openOnce(ctx context.Context) error {
	if err := n.s.Navigate(ctx, n.cfg.PortalURL); err != nil {
		return err
	}
	sleep(ctx, n.cfg.SettleDelay)

	// The entry link targets a new tab. Force same-tab navigation so the
	// session keeps following the flow.
	if err := n.s.Eval(ctx,
		`document.querySelectorAll("a[target='_blank']").forEach(a => a.removeAttribute('target'))`,
	); err != nil {
		logger.Debug("failed to strip blank targets", "error", err)
	}

	if err := n.s.ClickText(ctx, n.prof.VisitPortalText); err != nil {
		return fmt.Errorf("portal entry link: %w", err)
	}
	sleep(ctx, n.cfg.SettleDelay)

	if err := n.s.WaitVisible(ctx, n.prof.AdvanceSearchID, n.cfg.ContentWait); err != nil {
		logger.Debug("advance search trigger not visible yet", "error", err)
	}
	if err := n.s.Click(ctx, n.prof.AdvanceSearchID); err != nil {
		return fmt.Errorf("advance search trigger: %w", err)
	}
	sleep(ctx, n.cfg.SettleDelay)

	if err := n.s.WaitVisible(ctx, n.prof.RegionSelect, n.cfg.ContentWait); err != nil {
		return fmt.Errorf("region dropdown never appeared: %w", err)
	}
	return nil
}

// States lists the selectable states from the first region dropdown.
func (n *Navigator) States(ctx context.Context) ([]Region, error) {
	return n.regions(ctx, stateDropdown)
}

// Districts lists the selectable districts. Valid only after SelectState.
func (n *Navigator) Districts(ctx context.Context) ([]Region, error) {
	return n.regions(ctx, districtDropdown)
}

func (n *Navigator) regions(ctx context.Context, idx int) ([]Region, error) {
	opts, err := n.s.Options(ctx, n.prof.RegionSelect, idx)
	if err != nil {
		return nil, err
	}
	regions := make([]Region, 0, len(opts))
	for _, o := range opts {
		r := ParseRegion(o.Value, o.Text)
		if r.Placeholder() {
			continue
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// SelectState picks a state, then waits for the district dropdown to load.
func (n *Navigator) SelectState(ctx context.Context, r Region) error {
	if err := n.selectRegion(ctx, stateDropdown, r); err != nil {
		return fmt.Errorf("state selection %q: %w", r.Name, err)
	}
	sleep(ctx, n.cfg.SettleDelay)
	return nil
}

// SelectDistrict picks a district from the cascaded dropdown.
func (n *Navigator) SelectDistrict(ctx context.Context, r Region) error {
	if err := n.selectRegion(ctx, districtDropdown, r); err != nil {
		return fmt.Errorf("district selection %q: %w", r.Name, err)
	}
	sleep(ctx, n.cfg.SettleDelay)
	return nil
}

// selectRegion tries the region's encodings in fixed order: the raw
// composite value, then the bare id, then the visible label.
func (n *Navigator) selectRegion(ctx context.Context, idx int, r Region) error {
	sel := n.prof.RegionSelect

	if r.Raw != "" {
		if err := n.s.SelectValue(ctx, sel, idx, r.Raw); err == nil {
			return nil
		} else if !errors.Is(err, browser.ErrNoMatch) {
			logger.Debug("raw value selection errored", "region", r.Name, "error", err)
		}
	}
	if r.ID != "" && r.ID != r.Raw {
		if err := n.s.SelectValue(ctx, sel, idx, r.ID); err == nil {
			return nil
		}
	}
	if r.Name != "" {
		if err := n.s.SelectLabel(ctx, sel, idx, r.Name); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: no encoding of %q matched", browser.ErrNoMatch, r.Name)
}

// ClickSearch submits the search form, trying each configured button
// selector in order.
func (n *Navigator) ClickSearch(ctx context.Context) error {
	var lastErr error
	for _, sel := range n.prof.SearchButtons {
		if err := n.s.Click(ctx, sel); err == nil {
			sleep(ctx, n.cfg.SettleDelay)
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("no search button responded: %w", lastErr)
}

// SetPageSize switches the listing to its largest page size. Best effort:
// the listing still paginates correctly at the default size.
func (n *Navigator) SetPageSize(ctx context.Context) {
	if err := n.s.SelectValue(ctx, n.prof.PageSizeSelect, 0, n.prof.PageSizeValue); err != nil {
		logger.Debug("page size unchanged", "error", err)
		return
	}
	sleep(ctx, n.cfg.SettleDelay)
}

// ConfirmResults waits for result markup to appear after a search. The
// portal renders nothing distinctive for an empty district, so absence after
// the wait is reported as ErrNoResults.
func (n *Navigator) ConfirmResults(ctx context.Context) error {
	deadline := time.Now().Add(n.cfg.ContentWait)
	for {
		html, err := n.s.Snapshot(ctx)
		if err != nil {
			return err
		}
		if hasAnySelector(html, n.prof.ResultIndicators) {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrNoResults
		}
		sleep(ctx, 500*time.Millisecond)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func hasAnySelector(html string, selectors []string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	for _, q := range selectors {
		if doc.Find(q).Length() > 0 {
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
