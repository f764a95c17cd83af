package portal

import (
	"context"
	"fmt"

	"github.com/udisescan/udisescan/internal/browser"
	"github.com/udisescan/udisescan/internal/config"
	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/profile"
)

// Listing is the live search-result view, adapting the browser session to
// what the paginator needs.
type Listing struct {
	s    *browser.Session
	cfg  config.Config
	prof profile.Profile
}

// NewListing builds the listing surface over an already-searched session.
func NewListing(s *browser.Session, cfg config.Config, prof profile.Profile) *Listing {
	return &Listing{s: s, cfg: cfg, prof: prof}
}

// Snapshot returns the rendered listing HTML.
func (l *Listing) Snapshot(ctx context.Context) (string, error) {
	return l.s.Snapshot(ctx)
}

// ScrollBottom scrolls so lazily rendered rows appear in the snapshot.
func (l *Listing) ScrollBottom(ctx context.Context) error {
	return l.s.ScrollBottom(ctx)
}

// ClickNext performs one attempt to activate the next-page control, trying
// each configured selector through the session's click ladder.
func (l *Listing) ClickNext(ctx context.Context) error {
	var lastErr error
	for _, sel := range l.prof.NextControls {
		if err := l.s.Click(ctx, sel); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("next control not clickable: %w", lastErr)
}

// WaitForContent waits, bounded, for listing rows to render. A timeout is
// advisory; the caller extracts whatever is present.
func (l *Listing) WaitForContent(ctx context.Context) error {
	if len(l.prof.RecordContainers) == 0 {
		return nil
	}
	err := l.s.WaitVisible(ctx, l.prof.RecordContainers[0], l.cfg.ContentWait)
	if err != nil {
		logger.Debug("listing content wait elapsed", "error", err)
	}
	return err
}
