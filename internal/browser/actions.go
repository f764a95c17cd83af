package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/udisescan/udisescan/internal/logger"
)

// ErrNoMatch means a selection strategy found nothing to act on.
var ErrNoMatch = errors.New("no matching element")

// Click activates the first match of sel, falling through three strategies:
// a driver-level click, a scripted el.click(), and a dispatched MouseEvent.
// The error from the last strategy is returned if all fail.
func (s *Session) Click(ctx context.Context, sel string) error {
	if err := s.ScrollIntoView(ctx, sel); err != nil {
		logger.Debug("scroll before click failed", "selector", sel, "error", err)
	}

	if err := s.run(ctx, chromedp.Click(sel, chromedp.NodeVisible)); err == nil {
		logger.Debug("clicked", "selector", sel, "strategy", "driver")
		return nil
	} else {
		logger.Debug("driver click failed", "selector", sel, "error", err)
	}

	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(
		`(() => { const el = document.querySelector('%s'); if (!el) return false; el.click(); return true; })()`,
		escapeJSString(sel)), &ok)); err == nil && ok {
		logger.Debug("clicked", "selector", sel, "strategy", "script")
		return nil
	}

	err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(
		`(() => {
			const el = document.querySelector('%s');
			if (!el) return false;
			el.dispatchEvent(new MouseEvent('click', {view: window, bubbles: true, cancelable: true}));
			return true;
		})()`, escapeJSString(sel)), &ok))
	if err != nil {
		return fmt.Errorf("all click strategies failed for %q: %w", sel, err)
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoMatch, sel)
	}
	logger.Debug("clicked", "selector", sel, "strategy", "dispatch")
	return nil
}

// ClickText activates the first anchor or button whose visible text contains
// needle.
func (s *Session) ClickText(ctx context.Context, needle string) error {
	var ok bool
	err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(
		`(() => {
			for (const el of document.querySelectorAll('a, button')) {
				if (el.textContent.includes('%s')) { el.click(); return true; }
			}
			return false;
		})()`, escapeJSString(needle)), &ok))
	if err != nil {
		return fmt.Errorf("click by text %q failed: %w", needle, err)
	}
	if !ok {
		return fmt.Errorf("%w: text %q", ErrNoMatch, needle)
	}
	return nil
}

// Option is one dropdown entry as rendered.
type Option struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// Options lists the entries of the idx-th dropdown matching sel.
func (s *Session) Options(ctx context.Context, sel string, idx int) ([]Option, error) {
	var opts []Option
	err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(
		`(() => {
			const selects = document.querySelectorAll('%s');
			if (selects.length <= %d) return [];
			return Array.from(selects[%d].options).map(o => ({value: o.value, text: o.text.trim()}));
		})()`, escapeJSString(sel), idx, idx), &opts))
	if err != nil {
		return nil, fmt.Errorf("failed to read options of %q[%d]: %w", sel, idx, err)
	}
	return opts, nil
}

// SelectValue sets the idx-th dropdown matching sel to the option with
// exactly this value, firing input and change events so framework bindings
// observe the selection.
func (s *Session) SelectValue(ctx context.Context, sel string, idx int, value string) error {
	return s.selectWhere(ctx, sel, idx,
		fmt.Sprintf(`o.value === '%s'`, escapeJSString(value)),
		fmt.Sprintf("value %q", value))
}

// SelectLabel sets the idx-th dropdown matching sel to the option whose
// visible label matches exactly.
func (s *Session) SelectLabel(ctx context.Context, sel string, idx int, label string) error {
	return s.selectWhere(ctx, sel, idx,
		fmt.Sprintf(`o.text.trim() === '%s'`, escapeJSString(label)),
		fmt.Sprintf("label %q", label))
}

func (s *Session) selectWhere(ctx context.Context, sel string, idx int, cond, desc string) error {
	var ok bool
	err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(
		`(() => {
			const selects = document.querySelectorAll('%s');
			if (selects.length <= %d) return false;
			const el = selects[%d];
			for (const o of el.options) {
				if (%s) {
					el.value = o.value;
					el.dispatchEvent(new Event('input', {bubbles: true}));
					el.dispatchEvent(new Event('change', {bubbles: true}));
					return true;
				}
			}
			return false;
		})()`, escapeJSString(sel), idx, idx, cond), &ok))
	if err != nil {
		return fmt.Errorf("select on %q[%d] failed: %w", sel, idx, err)
	}
	if !ok {
		return fmt.Errorf("%w: no option with %s in %q[%d]", ErrNoMatch, desc, sel, idx)
	}
	return nil
}
