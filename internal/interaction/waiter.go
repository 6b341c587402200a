// internal/interaction/waiter.go
package interaction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WaitConditions describes the readiness predicates an element must satisfy
// before it is acted upon. Conditions are evaluated in a fixed order:
// visibility, stability, enablement, text presence.
type WaitConditions struct {
	Visible bool
	// Stable requires the element's bounding rect to stop moving across a
	// settle window, which filters out mid-animation clicks.
	Stable  bool
	Enabled bool
	// HasText requires the element's trimmed text content to be non-empty.
	HasText bool
	// TextContains, when non-empty, requires the element's text content to
	// contain the given substring.
	TextContains string
}

// DefaultConditions is the baseline applied to interactive operations.
func DefaultConditions() WaitConditions {
	return WaitConditions{Visible: true}
}

// Waiter polls element state until conditions hold or a deadline passes.
type Waiter struct {
	exec           Executor
	logger         *zap.Logger
	pollInterval   time.Duration
	stabilizeDelay time.Duration
}

func NewWaiter(exec Executor, pollInterval, stabilizeDelay time.Duration, logger *zap.Logger) *Waiter {
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	if stabilizeDelay <= 0 {
		stabilizeDelay = 300 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Waiter{exec: exec, logger: logger, pollInterval: pollInterval, stabilizeDelay: stabilizeDelay}
}

// Await blocks until the handle satisfies cond or timeout elapses. The
// returned error names the first condition that failed to hold, wrapped
// around ErrWaitTimeout.
func (w *Waiter) Await(ctx context.Context, h *Handle, cond WaitConditions, timeout time.Duration) error {
	if cond.Visible {
		script := visibilityScript(h.Selector())
		if err := w.pollScript(ctx, script, timeout); err != nil {
			return fmt.Errorf("element %s not visible: %w", h.Describe(), err)
		}
	}
	if cond.Stable {
		if err := w.awaitStable(ctx, h, timeout); err != nil {
			return fmt.Errorf("element %s did not stabilize: %w", h.Describe(), err)
		}
	}
	if cond.Enabled {
		script := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			return !!el && !el.disabled && el.getAttribute("aria-disabled") !== "true";
		})()`, jsString(h.Selector()))
		if err := w.pollScript(ctx, script, timeout); err != nil {
			return fmt.Errorf("element %s not enabled: %w", h.Describe(), err)
		}
	}
	if cond.HasText {
		script := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			return !!el && (el.textContent || "").trim() !== "";
		})()`, jsString(h.Selector()))
		if err := w.pollScript(ctx, script, timeout); err != nil {
			return fmt.Errorf("element %s has no text: %w", h.Describe(), err)
		}
	}
	if cond.TextContains != "" {
		script := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			return !!el && (el.textContent || "").includes(%s);
		})()`, jsString(h.Selector()), jsString(cond.TextContains))
		if err := w.pollScript(ctx, script, timeout); err != nil {
			return fmt.Errorf("element %s missing text %q: %w", h.Describe(), cond.TextContains, err)
		}
	}
	return nil
}

// awaitStable samples the bounding rect twice separated by the settle window
// and requires the two samples to match, repeating until timeout.
func (w *Waiter) awaitStable(ctx context.Context, h *Handle, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	rectScript := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) { return ""; }
		const r = el.getBoundingClientRect();
		return [r.x, r.y, r.width, r.height].map(v => v.toFixed(1)).join(",");
	})()`, jsString(h.Selector()))

	for time.Now().Before(deadline) {
		var first string
		if err := w.exec.Eval(ctx, rectScript, &first); err != nil {
			return err
		}
		select {
		case <-time.After(w.stabilizeDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
		var second string
		if err := w.exec.Eval(ctx, rectScript, &second); err != nil {
			return err
		}
		if first != "" && first == second {
			return nil
		}
	}
	return ErrWaitTimeout
}

// AwaitScript polls an arbitrary boolean JavaScript expression. desc names
// the condition in the timeout error.
func (w *Waiter) AwaitScript(ctx context.Context, desc, script string, timeout time.Duration) error {
	if err := w.pollScript(ctx, script, timeout); err != nil {
		return fmt.Errorf("%s: %w", desc, err)
	}
	return nil
}

// pollScript evaluates script at the configured poll rate until it returns
// true or the timeout elapses. Evaluation errors surface immediately, since
// they indicate a dead target rather than an unmet condition.
func (w *Waiter) pollScript(ctx context.Context, script string, timeout time.Duration) error {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(w.pollInterval), 1)
	for {
		// Wait also fails when it predicts the next slot would overrun the
		// deadline, so a limiter error without caller cancellation is a timeout.
		if err := limiter.Wait(pollCtx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrWaitTimeout
		}
		var ok bool
		if err := w.exec.Eval(pollCtx, script, &ok); err != nil {
			if pollCtx.Err() != nil && ctx.Err() == nil {
				return ErrWaitTimeout
			}
			return err
		}
		if ok {
			return nil
		}
	}
}

// visibilityScript builds the predicate deciding whether the selected element
// is actually renderable: attached, laid out with area, and not hidden by
// display, visibility, or opacity.
func visibilityScript(selector string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) { return false; }
		const rect = el.getBoundingClientRect();
		if (rect.width <= 0 || rect.height <= 0) { return false; }
		const style = window.getComputedStyle(el);
		if (style.display === "none" || style.visibility === "hidden") { return false; }
		if (parseFloat(style.opacity) === 0) { return false; }
		return true;
	})()`, jsString(selector))
}
