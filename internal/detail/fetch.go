package detail

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/udisescan/udisescan/internal/browser"
	"github.com/udisescan/udisescan/internal/config"
	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/profile"
)

// Fetcher loads one detail page and returns its rendered HTML and title.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (html, title string, err error)
}

// BrowserFetcher renders detail pages in the shared browser session. The
// page is reloaded immediately after navigation; the portal's client-side
// router frequently serves stale content on the first load.
type BrowserFetcher struct {
	s    *browser.Session
	cfg  config.Config
	prof profile.Profile
}

// NewBrowserFetcher wraps a session for detail-page fetches.
func NewBrowserFetcher(s *browser.Session, cfg config.Config, prof profile.Profile) *BrowserFetcher {
	return &BrowserFetcher{s: s, cfg: cfg, prof: prof}
}

// Fetch navigates, reloads, waits for the info panel, and snapshots.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, string, error) {
	if err := f.s.Navigate(ctx, url); err != nil {
		return "", "", err
	}
	if err := f.s.Reload(ctx); err != nil {
		return "", "", fmt.Errorf("detail page reload failed: %w", err)
	}
	if err := f.s.WaitVisible(ctx, f.prof.DetailInfoCols, f.cfg.ContentWait); err != nil {
		logger.Debug("detail panel wait elapsed", "url", url, "error", err)
	}
	sleep(ctx, f.cfg.SettleDelay)

	html, err := f.s.Snapshot(ctx)
	if err != nil {
		return "", "", err
	}
	title, err := f.s.Title(ctx)
	if err != nil {
		title = ""
	}
	return html, title, nil
}

// StaticFetcher fetches a detail page without the browser. It sees only
// server-rendered markup, so it recovers a subset of fields, but that beats
// marking the record failed outright when the browser fetch errors.
type StaticFetcher struct {
	userAgent string
	timeout   time.Duration
}

// NewStaticFetcher creates the fallback fetcher.
func NewStaticFetcher(userAgent string) *StaticFetcher {
	return &StaticFetcher{userAgent: userAgent, timeout: 30 * time.Second}
}

// Fetch performs one plain GET of the URL.
func (f *StaticFetcher) Fetch(ctx context.Context, url string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
	)
	c.SetRequestTimeout(f.timeout)

	var html string
	var title string
	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		html = string(r.Body)
	})
	c.OnHTML("title", func(e *colly.HTMLElement) {
		title = e.Text
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return "", "", fmt.Errorf("static fetch of %s failed: %w", url, err)
	}
	if fetchErr != nil {
		return "", "", fmt.Errorf("static fetch of %s failed: %w", url, fetchErr)
	}
	if html == "" {
		return "", "", fmt.Errorf("static fetch of %s returned no body", url)
	}
	return html, title, nil
}
