// Package browser owns the single headless browser session.
//
// One Session drives one Chrome instance. All portal interaction goes
// through it: navigation, dropdown selection, clicks, scrolling, and HTML
// snapshots. There is exactly one session per run; callers own it
// exclusively.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/udisescan/udisescan/internal/logger"
)

// ErrBrowserStart marks the one fatal failure class: the driver could not
// start. Everything else is retriable at some level.
var ErrBrowserStart = errors.New("browser failed to start")

// Config holds browser settings.
type Config struct {
	Headless  bool
	UserAgent string
	Timeout   time.Duration // default per-action timeout
	ExecPath  string        // explicit Chrome binary, empty = auto-detect
}

// Session wraps a chromedp browser context.
type Session struct {
	cfg        Config
	cancelExec context.CancelFunc
	browserCtx context.Context
	cancelTab  context.CancelFunc
}

// NewSession starts a browser. A start failure is fatal to the run.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 25 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if path := findChromePath(cfg.ExecPath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	allocCtx, cancelExec := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	s := &Session{
		cfg:        cfg,
		cancelExec: cancelExec,
		browserCtx: browserCtx,
		cancelTab:  cancelTab,
	}

	// Force the browser process up now so a missing binary fails the run
	// immediately instead of on the first navigation.
	startCtx, cancel := context.WithTimeout(browserCtx, cfg.Timeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrBrowserStart, err)
	}

	logger.Info("browser session started", "headless", cfg.Headless)
	return s, nil
}

// run executes actions under the session's default timeout, bounded further
// by the caller's context.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	timeoutCtx, cancel := context.WithTimeout(s.browserCtx, s.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(timeoutCtx, actions...) }()
	select {
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Navigate loads a URL and waits for the body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	logger.Debug("navigating", "url", url)
	if err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Reload refreshes the current page and waits for readiness.
func (s *Session) Reload(ctx context.Context) error {
	return s.run(ctx,
		chromedp.Reload(),
		chromedp.WaitReady("body"),
	)
}

// Snapshot returns the full rendered HTML of the current page.
func (s *Session) Snapshot(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("snapshot failed: %w", err)
	}
	return html, nil
}

// Title returns the current document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// Location returns the current page URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// WaitVisible waits, bounded by wait, for the selector to be visible. A
// timeout is returned to the caller but is generally advisory.
func (s *Session) WaitVisible(ctx context.Context, sel string, wait time.Duration) error {
	waitCtx, cancel := context.WithTimeout(s.browserCtx, wait)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(waitCtx, chromedp.WaitVisible(sel)) }()
	select {
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("wait for %q: %w", sel, err)
		}
		return nil
	}
}

// ScrollBottom scrolls the window to the bottom of the document.
func (s *Session) ScrollBottom(ctx context.Context) error {
	return s.run(ctx,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
	)
}

// ScrollIntoView centers the first match of sel in the viewport.
func (s *Session) ScrollIntoView(ctx context.Context, sel string) error {
	return s.run(ctx,
		chromedp.Evaluate(fmt.Sprintf(
			`(() => { const el = document.querySelector(%q); if (el) el.scrollIntoView({block: 'center'}); })()`, sel), nil),
	)
}

// Eval runs a JS expression for its side effect, discarding the result.
func (s *Session) Eval(ctx context.Context, js string) error {
	return s.run(ctx, chromedp.Evaluate(js, nil))
}

// Nodes returns the matching DOM nodes, without waiting for any.
func (s *Session) Nodes(ctx context.Context, sel string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, chromedp.Nodes(sel, &nodes, chromedp.AtLeast(0)))
	return nodes, err
}

// Close tears the browser down.
func (s *Session) Close() {
	if s.cancelTab != nil {
		s.cancelTab()
	}
	if s.cancelExec != nil {
		s.cancelExec()
	}
	logger.Debug("browser session closed")
}

// escapeJSString makes a string safe for embedding in a JS single-quoted
// literal.
func escapeJSString(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	v = strings.ReplaceAll(v, "\n", `\n`)
	return v
}
