// internal/interaction/interactor.go
package interaction

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zahraakhalili20/xwp-automation/internal/config"
	"github.com/zahraakhalili20/xwp-automation/internal/diaglog"
)

// Interactor is the high-level entry point for element interaction. Every
// operation runs the same pipeline: resolve the element, wait for readiness,
// run a pre-flight health check, then perform the action, with the whole
// sequence wrapped in the retry engine.
type Interactor struct {
	exec     Executor
	logger   *zap.Logger
	diag     *diaglog.Logger
	cfg      config.InteractionConfig
	resolver *Resolver
	waiter   *Waiter
	health   *HealthChecker
	retrier  *Retrier
}

// NewInteractor wires the interaction pipeline. diag may be nil when
// diagnostic capture is not wanted.
func NewInteractor(exec Executor, cfg config.InteractionConfig, logger *zap.Logger, diag *diaglog.Logger) *Interactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{
		exec:     exec,
		logger:   logger,
		diag:     diag,
		cfg:      cfg,
		resolver: NewResolver(exec, logger),
		waiter:   NewWaiter(exec, cfg.PollInterval, cfg.StabilizeDelay, logger),
		health:   NewHealthChecker(exec, cfg.EnableHealthChecks, logger),
		retrier: NewRetrier(RetryPolicy{
			MaxAttempts:     cfg.RetryAttempts,
			BaseDelay:       cfg.RetryBaseDelay,
			FirstRetryDelay: cfg.FirstRetryDelay,
		}, logger),
	}
}

// Diagnostics exposes the attached diagnostic logger, which may be nil.
func (i *Interactor) Diagnostics() *diaglog.Logger { return i.diag }

// perform runs the resolve/wait/check/act pipeline for op under the retry
// policy. Each attempt resolves the element fresh so a replaced node is
// re-found, and releases its pin when done.
func (i *Interactor) perform(ctx context.Context, op string, ref ElementRef, cond WaitConditions, kind OpKind, act func(ctx context.Context, h *Handle) error) error {
	i.diag.LogAction(op, ref.Describe(), nil)

	err := i.retrier.Do(ctx, fmt.Sprintf("%s %s", op, ref.Describe()), func(ctx context.Context) error {
		h, err := i.resolver.Resolve(ctx, ref)
		if err != nil {
			return err
		}
		defer h.Release(ctx)

		if i.cfg.DetailedChecks {
			cond.Stable = true
			if kind == OpClick || kind == OpFill {
				cond.Enabled = true
			}
		}
		if err := i.waiter.Await(ctx, h, cond, i.cfg.DefaultTimeout); err != nil {
			return err
		}

		if report := i.health.Check(ctx, h, kind); len(report.Issues) > 0 {
			i.logger.Debug("Element health check reported issues",
				zap.String("operation", op),
				zap.String("element", ref.Describe()),
				zap.Bool("healthy", report.Healthy),
				zap.Strings("issues", report.Issues))
		}

		actCtx, cancel := context.WithTimeout(ctx, i.cfg.ActionTimeout)
		defer cancel()
		return act(actCtx, h)
	})
	if err != nil {
		opErr := &OpError{Op: op, Element: ref.Describe(), Err: err}
		i.diag.LogError(ctx, opErr, i.exec)
		return opErr
	}

	i.logger.Debug("Operation completed", zap.String("operation", op), zap.String("element", ref.Describe()))
	return nil
}

// Click scrolls the element into view and clicks it.
func (i *Interactor) Click(ctx context.Context, ref ElementRef) error {
	return i.perform(ctx, "click", ref, DefaultConditions(), OpClick, func(ctx context.Context, h *Handle) error {
		return i.exec.RunActions(ctx,
			chromedp.ScrollIntoView(h.Selector(), chromedp.ByQuery),
			chromedp.Click(h.Selector(), chromedp.ByQuery),
		)
	})
}

// DoubleClick performs a double click on the element.
func (i *Interactor) DoubleClick(ctx context.Context, ref ElementRef) error {
	return i.perform(ctx, "double-click", ref, DefaultConditions(), OpClick, func(ctx context.Context, h *Handle) error {
		return i.exec.RunActions(ctx,
			chromedp.ScrollIntoView(h.Selector(), chromedp.ByQuery),
			chromedp.DoubleClick(h.Selector(), chromedp.ByQuery),
		)
	})
}

// RightClick opens the element's context menu via a synthesized right button
// press at the element's center.
func (i *Interactor) RightClick(ctx context.Context, ref ElementRef) error {
	return i.perform(ctx, "right-click", ref, DefaultConditions(), OpClick, func(ctx context.Context, h *Handle) error {
		x, y, err := i.elementCenter(ctx, h)
		if err != nil {
			return err
		}
		return i.exec.RunActions(ctx,
			chromedp.ScrollIntoView(h.Selector(), chromedp.ByQuery),
			input.DispatchMouseEvent(input.MousePressed, x, y).
				WithButton(input.MouseButton("right")).WithClickCount(1),
			input.DispatchMouseEvent(input.MouseReleased, x, y).
				WithButton(input.MouseButton("right")).WithClickCount(1),
		)
	})
}

// Hover moves the pointer over the element's center, firing its hover
// handlers without clicking.
func (i *Interactor) Hover(ctx context.Context, ref ElementRef) error {
	return i.perform(ctx, "hover", ref, DefaultConditions(), OpRead, func(ctx context.Context, h *Handle) error {
		x, y, err := i.elementCenter(ctx, h)
		if err != nil {
			return err
		}
		return i.exec.RunActions(ctx,
			chromedp.ScrollIntoView(h.Selector(), chromedp.ByQuery),
			input.DispatchMouseEvent(input.MouseMoved, x, y),
		)
	})
}

// Focus gives the element keyboard focus.
func (i *Interactor) Focus(ctx context.Context, ref ElementRef) error {
	return i.perform(ctx, "focus", ref, DefaultConditions(), OpRead, func(ctx context.Context, h *Handle) error {
		return i.exec.RunActions(ctx, chromedp.Focus(h.Selector(), chromedp.ByQuery))
	})
}

// Blur removes keyboard focus from the element.
func (i *Interactor) Blur(ctx context.Context, ref ElementRef) error {
	return i.perform(ctx, "blur", ref, WaitConditions{}, OpRead, func(ctx context.Context, h *Handle) error {
		return i.exec.RunActions(ctx, chromedp.Blur(h.Selector(), chromedp.ByQuery))
	})
}

// PressKey sends a key chord (for example "Enter" or "Tab") to the element.
func (i *Interactor) PressKey(ctx context.Context, ref ElementRef, key string) error {
	return i.perform(ctx, "press-key", ref, DefaultConditions(), OpFill, func(ctx context.Context, h *Handle) error {
		return i.exec.RunActions(ctx,
			chromedp.Focus(h.Selector(), chromedp.ByQuery),
			chromedp.SendKeys(h.Selector(), key, chromedp.ByQuery),
		)
	})
}

// Fill clears the input and types value into it. When fill verification is
// enabled, the field is read back afterwards and a mismatch is reported as
// ErrValueMismatch so a framework-controlled rewrite of the value is caught.
func (i *Interactor) Fill(ctx context.Context, ref ElementRef, value string) error {
	i.logger.Debug("Filling field",
		zap.String("element", ref.Describe()),
		zap.String("value", diaglog.MaskValue(value)))
	return i.perform(ctx, "fill", ref, DefaultConditions(), OpFill, func(ctx context.Context, h *Handle) error {
		clear := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			if (!el) { return false; }
			el.focus();
			el.value = "";
			el.dispatchEvent(new Event("input", { bubbles: true }));
			el.dispatchEvent(new Event("change", { bubbles: true }));
			return true;
		})()`, jsString(h.Selector()))

		var cleared bool
		if err := i.exec.Eval(ctx, clear, &cleared); err != nil {
			return fmt.Errorf("clearing field: %w", err)
		}
		if !cleared {
			return fmt.Errorf("%w: %s vanished before fill", ErrElementNotFound, h.Describe())
		}
		if err := i.exec.RunActions(ctx, chromedp.SendKeys(h.Selector(), value, chromedp.ByQuery)); err != nil {
			return err
		}
		if !i.cfg.EnableFillVerification {
			return nil
		}

		readback := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			return el ? String(el.value) : "";
		})()`, jsString(h.Selector()))
		var got string
		if err := i.exec.Eval(ctx, readback, &got); err != nil {
			return fmt.Errorf("verifying field: %w", err)
		}
		if got != value {
			return fmt.Errorf("%w: got %s, want %s",
				ErrValueMismatch, diaglog.MaskValue(got), diaglog.MaskValue(value))
		}
		return nil
	})
}

// Clear empties an input field, firing input and change events so framework
// bindings observe the removal.
func (i *Interactor) Clear(ctx context.Context, ref ElementRef) error {
	return i.perform(ctx, "clear", ref, DefaultConditions(), OpFill, func(ctx context.Context, h *Handle) error {
		script := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			if (!el) { return false; }
			el.focus();
			el.value = "";
			el.dispatchEvent(new Event("input", { bubbles: true }));
			el.dispatchEvent(new Event("change", { bubbles: true }));
			return true;
		})()`, jsString(h.Selector()))
		var ok bool
		if err := i.exec.Eval(ctx, script, &ok); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s vanished before clear", ErrElementNotFound, h.Describe())
		}
		return nil
	})
}

// SelectOption picks an option from a select element, matching by value first
// and falling back to visible label text.
func (i *Interactor) SelectOption(ctx context.Context, ref ElementRef, option string) error {
	return i.perform(ctx, "select-option", ref, DefaultConditions(), OpFill, func(ctx context.Context, h *Handle) error {
		script := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			if (!el || el.tagName !== "SELECT") { return "none"; }
			const want = %s;
			for (const opt of el.options) {
				if (opt.value === want) {
					el.value = opt.value;
					el.dispatchEvent(new Event("change", { bubbles: true }));
					return "value";
				}
			}
			for (const opt of el.options) {
				if ((opt.label || opt.text || "").trim() === want) {
					el.value = opt.value;
					el.dispatchEvent(new Event("change", { bubbles: true }));
					return "label";
				}
			}
			return "none";
		})()`, jsString(h.Selector()), jsString(option))

		var matched string
		if err := i.exec.Eval(ctx, script, &matched); err != nil {
			return err
		}
		if matched == "none" {
			return fmt.Errorf("no option %q in %s", option, h.Describe())
		}
		i.logger.Debug("Selected option",
			zap.String("element", h.Describe()),
			zap.String("option", option),
			zap.String("matched_by", matched))
		return nil
	})
}

// SetChecked drives a checkbox or radio to the desired state, clicking only
// when the current state differs.
func (i *Interactor) SetChecked(ctx context.Context, ref ElementRef, checked bool) error {
	op := "check"
	if !checked {
		op = "uncheck"
	}
	return i.perform(ctx, op, ref, DefaultConditions(), OpClick, func(ctx context.Context, h *Handle) error {
		script := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			if (!el) { return { before: false, after: false, found: false }; }
			const before = !!el.checked;
			if (before !== %t) { el.click(); }
			return { before: before, after: !!el.checked, found: true };
		})()`, jsString(h.Selector()), checked)

		var state struct {
			Before bool `json:"before"`
			After  bool `json:"after"`
			Found  bool `json:"found"`
		}
		if err := i.exec.Eval(ctx, script, &state); err != nil {
			return err
		}
		if !state.Found {
			return fmt.Errorf("%w: %s vanished before toggle", ErrElementNotFound, h.Describe())
		}
		if state.After != checked {
			return fmt.Errorf("checkbox %s stayed %t after click", h.Describe(), state.Before)
		}
		return nil
	})
}

// ToggleCheckbox inverts a checkbox's current state.
func (i *Interactor) ToggleCheckbox(ctx context.Context, ref ElementRef) error {
	return i.perform(ctx, "toggle", ref, DefaultConditions(), OpClick, func(ctx context.Context, h *Handle) error {
		script := fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			if (!el) { return { before: false, after: false, found: false }; }
			const before = !!el.checked;
			el.click();
			return { before: before, after: !!el.checked, found: true };
		})()`, jsString(h.Selector()))

		var state struct {
			Before bool `json:"before"`
			After  bool `json:"after"`
			Found  bool `json:"found"`
		}
		if err := i.exec.Eval(ctx, script, &state); err != nil {
			return err
		}
		if !state.Found {
			return fmt.Errorf("%w: %s vanished before toggle", ErrElementNotFound, h.Describe())
		}
		if state.After == state.Before {
			return fmt.Errorf("checkbox %s stayed %t after click", h.Describe(), state.Before)
		}
		return nil
	})
}

// UploadFile attaches local file paths to a file input. File inputs are
// routinely display:none behind styled buttons, so no visibility wait is
// applied.
func (i *Interactor) UploadFile(ctx context.Context, ref ElementRef, paths ...string) error {
	if len(paths) == 0 {
		return &OpError{Op: "upload", Element: ref.Describe(), Err: fmt.Errorf("no files given")}
	}
	return i.perform(ctx, "upload", ref, WaitConditions{}, OpFill, func(ctx context.Context, h *Handle) error {
		return i.exec.RunActions(ctx, chromedp.SetUploadFiles(h.Selector(), paths, chromedp.ByQuery))
	})
}

// Screenshot captures the element as a PNG.
func (i *Interactor) Screenshot(ctx context.Context, ref ElementRef) ([]byte, error) {
	var buf []byte
	err := i.perform(ctx, "screenshot", ref, DefaultConditions(), OpRead, func(ctx context.Context, h *Handle) error {
		return i.exec.RunActions(ctx, chromedp.Screenshot(h.Selector(), &buf, chromedp.ByQuery))
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// DragAndDrop drags the source element onto the target with synthesized
// mouse events. Both elements are resolved and waited on before any pointer
// movement, and a readiness failure names which side was at fault.
func (i *Interactor) DragAndDrop(ctx context.Context, source, target ElementRef) error {
	opName := fmt.Sprintf("drag %s onto %s", source.Describe(), target.Describe())
	i.diag.LogAction("drag-and-drop", opName, nil)

	err := i.retrier.Do(ctx, opName, func(ctx context.Context) error {
		src, err := i.resolver.Resolve(ctx, source)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		defer src.Release(ctx)
		dst, err := i.resolver.Resolve(ctx, target)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		defer dst.Release(ctx)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := i.waiter.Await(gctx, src, DefaultConditions(), i.cfg.DefaultTimeout); err != nil {
				return fmt.Errorf("source: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			if err := i.waiter.Await(gctx, dst, DefaultConditions(), i.cfg.DefaultTimeout); err != nil {
				return fmt.Errorf("target: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		actCtx, cancel := context.WithTimeout(ctx, i.cfg.ActionTimeout)
		defer cancel()
		sx, sy, err := i.elementCenter(actCtx, src)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		tx, ty, err := i.elementCenter(actCtx, dst)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		mx, my := (sx+tx)/2, (sy+ty)/2
		return i.exec.RunActions(actCtx,
			input.DispatchMouseEvent(input.MouseMoved, sx, sy),
			input.DispatchMouseEvent(input.MousePressed, sx, sy).
				WithButton(input.MouseButton("left")).WithClickCount(1),
			input.DispatchMouseEvent(input.MouseMoved, mx, my).
				WithButton(input.MouseButton("left")),
			input.DispatchMouseEvent(input.MouseMoved, tx, ty).
				WithButton(input.MouseButton("left")),
			input.DispatchMouseEvent(input.MouseReleased, tx, ty).
				WithButton(input.MouseButton("left")).WithClickCount(1),
		)
	})
	if err != nil {
		opErr := &OpError{Op: "drag-and-drop", Element: opName, Err: err}
		i.diag.LogError(ctx, opErr, i.exec)
		return opErr
	}
	return nil
}

// elementCenter returns the viewport coordinates of the element's center.
func (i *Interactor) elementCenter(ctx context.Context, h *Handle) (float64, float64, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) { return null; }
		const r = el.getBoundingClientRect();
		return { x: r.x + r.width / 2, y: r.y + r.height / 2 };
	})()`, jsString(h.Selector()))

	var pt *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := i.exec.Eval(ctx, script, &pt); err != nil {
		return 0, 0, err
	}
	if pt == nil {
		return 0, 0, fmt.Errorf("%w: %s vanished before pointer action", ErrElementNotFound, h.Describe())
	}
	return pt.X, pt.Y, nil
}

// waitBudget clamps a caller timeout to the configured default when unset.
func (i *Interactor) waitBudget(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return i.cfg.DefaultTimeout
	}
	return timeout
}
