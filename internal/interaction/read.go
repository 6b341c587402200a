// internal/interaction/read.go
package interaction

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Rect is an element's bounding box in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// readInto runs the resolve/wait pipeline for a read operation and decodes a
// script evaluated against the pinned element into out. Reads share the retry
// policy with interactions, so a transiently hidden element still yields its
// value once it settles.
func (i *Interactor) readInto(ctx context.Context, op string, ref ElementRef, cond WaitConditions, script func(h *Handle) string, out any) error {
	i.diag.LogAction(op, ref.Describe(), nil)
	err := i.retrier.Do(ctx, fmt.Sprintf("%s %s", op, ref.Describe()), func(ctx context.Context) error {
		h, err := i.resolver.Resolve(ctx, ref)
		if err != nil {
			return err
		}
		defer h.Release(ctx)
		if err := i.waiter.Await(ctx, h, cond, i.cfg.DefaultTimeout); err != nil {
			return err
		}
		readCtx, cancel := context.WithTimeout(ctx, i.cfg.ActionTimeout)
		defer cancel()
		return i.exec.Eval(readCtx, script(h), out)
	})
	if err != nil {
		opErr := &OpError{Op: op, Element: ref.Describe(), Err: err}
		i.diag.LogError(ctx, opErr, i.exec)
		return opErr
	}
	return nil
}

// Text returns the element's rendered text content, trimmed. The element
// must be visible.
func (i *Interactor) Text(ctx context.Context, ref ElementRef) (string, error) {
	var text string
	err := i.readInto(ctx, "read-text", ref, DefaultConditions(), func(h *Handle) string {
		return fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			return el ? (el.innerText || el.textContent || "").trim() : "";
		})()`, jsString(h.Selector()))
	}, &text)
	return text, err
}

// InnerText returns the element's raw textContent without trimming, which
// preserves intentional whitespace in preformatted content. The element only
// needs to be attached.
func (i *Interactor) InnerText(ctx context.Context, ref ElementRef) (string, error) {
	var text string
	err := i.readInto(ctx, "read-inner-text", ref, WaitConditions{}, func(h *Handle) string {
		return fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			return el ? (el.textContent || "") : "";
		})()`, jsString(h.Selector()))
	}, &text)
	return text, err
}

// AllTexts returns the trimmed text content of every element matching the
// query, in document order. A query that matches nothing yields an empty
// slice, not an error.
func (i *Interactor) AllTexts(ctx context.Context, query string) ([]string, error) {
	script := fmt.Sprintf(`(() => {
		let nodes;
		try {
			nodes = document.querySelectorAll(%s);
		} catch (e) {
			return null;
		}
		return Array.from(nodes).map(el => (el.innerText || el.textContent || "").trim());
	})()`, jsString(query))

	i.diag.LogAction("read-all-texts", query, nil)
	var texts []string
	if err := i.exec.Eval(ctx, script, &texts); err != nil {
		return nil, &OpError{Op: "read-all-texts", Element: query, Err: err}
	}
	if texts == nil {
		texts = []string{}
	}
	return texts, nil
}

// InputValue returns the current value of an input, textarea, or select.
// Attachment is required but visibility is not, since hidden inputs carry
// meaningful values.
func (i *Interactor) InputValue(ctx context.Context, ref ElementRef) (string, error) {
	var value string
	err := i.readInto(ctx, "read-value", ref, WaitConditions{}, func(h *Handle) string {
		return fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			return el ? String(el.value ?? "") : "";
		})()`, jsString(h.Selector()))
	}, &value)
	return value, err
}

// Attribute returns the named attribute's value. An absent attribute is an
// empty string with ok false, distinguishing it from an empty value.
func (i *Interactor) Attribute(ctx context.Context, ref ElementRef, name string) (value string, ok bool, err error) {
	var res struct {
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}
	err = i.readInto(ctx, "read-attribute", ref, WaitConditions{}, func(h *Handle) string {
		return fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			if (!el || !el.hasAttribute(%s)) { return { present: false, value: "" }; }
			return { present: true, value: el.getAttribute(%s) };
		})()`, jsString(h.Selector()), jsString(name), jsString(name))
	}, &res)
	return res.Value, res.Present, err
}

// CSSProperty returns the computed value of a CSS property.
func (i *Interactor) CSSProperty(ctx context.Context, ref ElementRef, property string) (string, error) {
	var value string
	err := i.readInto(ctx, "read-css", ref, WaitConditions{}, func(h *Handle) string {
		return fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			return el ? window.getComputedStyle(el).getPropertyValue(%s) : "";
		})()`, jsString(h.Selector()), jsString(property))
	}, &value)
	return value, err
}

// HasClass reports whether the element carries the given CSS class.
func (i *Interactor) HasClass(ctx context.Context, ref ElementRef, class string) (bool, error) {
	var has bool
	err := i.readInto(ctx, "read-class", ref, WaitConditions{}, func(h *Handle) string {
		return fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			return !!el && el.classList.contains(%s);
		})()`, jsString(h.Selector()), jsString(class))
	}, &has)
	return has, err
}

// IsDisplayed reports whether the element exists and is visible right now,
// without waiting.
func (i *Interactor) IsDisplayed(ctx context.Context, ref ElementRef) (bool, error) {
	i.diag.LogAction("is-displayed", ref.Describe(), nil)
	if ref.handle != nil {
		var visible bool
		err := i.exec.Eval(ctx, visibilityScript(ref.handle.Selector()), &visible)
		return visible, err
	}
	script := fmt.Sprintf(`(() => {
		let nodes;
		try {
			nodes = document.querySelectorAll(%s);
		} catch (e) {
			return false;
		}
		const el = nodes[%d];
		if (!el) { return false; }
		const rect = el.getBoundingClientRect();
		if (rect.width <= 0 || rect.height <= 0) { return false; }
		const style = window.getComputedStyle(el);
		return style.display !== "none" && style.visibility !== "hidden" && parseFloat(style.opacity) !== 0;
	})()`, jsString(ref.query), ref.index)
	var visible bool
	if err := i.exec.Eval(ctx, script, &visible); err != nil {
		return false, &OpError{Op: "is-displayed", Element: ref.Describe(), Err: err}
	}
	return visible, nil
}

// IsEnabled reports whether the element exists and is not disabled.
func (i *Interactor) IsEnabled(ctx context.Context, ref ElementRef) (bool, error) {
	var enabled bool
	err := i.readInto(ctx, "is-enabled", ref, WaitConditions{}, func(h *Handle) string {
		return fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			return !!el && !el.disabled && el.getAttribute("aria-disabled") !== "true";
		})()`, jsString(h.Selector()))
	}, &enabled)
	return enabled, err
}

// Count reports how many elements match the query. Zero is a valid answer.
func (i *Interactor) Count(ctx context.Context, query string) (int, error) {
	i.diag.LogAction("count", query, nil)
	n, err := i.resolver.Count(ctx, query)
	if err != nil {
		return 0, &OpError{Op: "count", Element: query, Err: err}
	}
	return n, nil
}

// BoundingBox returns the element's viewport rectangle. The element must be
// visible, since a detached or hidden element has no meaningful geometry.
func (i *Interactor) BoundingBox(ctx context.Context, ref ElementRef) (Rect, error) {
	var rect Rect
	err := i.readInto(ctx, "bounding-box", ref, DefaultConditions(), func(h *Handle) string {
		return fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			if (!el) { return { x: 0, y: 0, width: 0, height: 0 }; }
			const r = el.getBoundingClientRect();
			return { x: r.x, y: r.y, width: r.width, height: r.height };
		})()`, jsString(h.Selector()))
	}, &rect)
	if err != nil {
		i.logger.Debug("Bounding box read failed", zap.String("element", ref.Describe()), zap.Error(err))
		return Rect{}, err
	}
	return rect, nil
}
