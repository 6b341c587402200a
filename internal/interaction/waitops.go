// internal/interaction/waitops.go
package interaction

import (
	"context"
	"fmt"
	"time"
)

// The WaitFor family blocks until a page-level condition holds, returning a
// typed error on timeout. Each has a boolean companion (the Within variants)
// that reports the outcome instead of failing, for call sites that branch on
// presence rather than require it. Unlike the element operations these poll
// the raw query directly, since the element under wait frequently does not
// exist yet.

// WaitForDisplayed blocks until at least one match for query is visible.
func (i *Interactor) WaitForDisplayed(ctx context.Context, query string, timeout time.Duration) error {
	desc := fmt.Sprintf("waiting for %q to be displayed", query)
	return i.waitErr(desc, i.waiter.AwaitScript(ctx, desc, queryVisibleScript(query, 0), i.waitBudget(timeout)))
}

// WaitForHidden blocks until query matches nothing visible. A query with no
// matches at all counts as hidden.
func (i *Interactor) WaitForHidden(ctx context.Context, query string, timeout time.Duration) error {
	desc := fmt.Sprintf("waiting for %q to be hidden", query)
	script := fmt.Sprintf(`(() => {
		let nodes;
		try { nodes = document.querySelectorAll(%s); } catch (e) { return true; }
		for (const el of nodes) {
			const rect = el.getBoundingClientRect();
			const style = window.getComputedStyle(el);
			if (rect.width > 0 && rect.height > 0 &&
				style.display !== "none" && style.visibility !== "hidden" &&
				parseFloat(style.opacity) !== 0) {
				return false;
			}
		}
		return true;
	})()`, jsString(query))
	return i.waitErr(desc, i.waiter.AwaitScript(ctx, desc, script, i.waitBudget(timeout)))
}

// WaitForRemoved blocks until query matches no element at all.
func (i *Interactor) WaitForRemoved(ctx context.Context, query string, timeout time.Duration) error {
	desc := fmt.Sprintf("waiting for %q to be removed", query)
	script := fmt.Sprintf(`(() => {
		try { return document.querySelectorAll(%s).length === 0; } catch (e) { return true; }
	})()`, jsString(query))
	return i.waitErr(desc, i.waiter.AwaitScript(ctx, desc, script, i.waitBudget(timeout)))
}

// WaitForText blocks until the first match for query contains the substring.
func (i *Interactor) WaitForText(ctx context.Context, query, text string, timeout time.Duration) error {
	desc := fmt.Sprintf("waiting for %q to contain %q", query, text)
	script := fmt.Sprintf(`(() => {
		let el;
		try { el = document.querySelector(%s); } catch (e) { return false; }
		return !!el && ((el.innerText || el.textContent || "").includes(%s));
	})()`, jsString(query), jsString(text))
	return i.waitErr(desc, i.waiter.AwaitScript(ctx, desc, script, i.waitBudget(timeout)))
}

// WaitForEnabled blocks until the first match for query is enabled.
func (i *Interactor) WaitForEnabled(ctx context.Context, query string, timeout time.Duration) error {
	desc := fmt.Sprintf("waiting for %q to be enabled", query)
	script := fmt.Sprintf(`(() => {
		let el;
		try { el = document.querySelector(%s); } catch (e) { return false; }
		return !!el && !el.disabled && el.getAttribute("aria-disabled") !== "true";
	})()`, jsString(query))
	return i.waitErr(desc, i.waiter.AwaitScript(ctx, desc, script, i.waitBudget(timeout)))
}

// WaitForClass blocks until the first match for query carries the class.
func (i *Interactor) WaitForClass(ctx context.Context, query, class string, timeout time.Duration) error {
	desc := fmt.Sprintf("waiting for %q to have class %q", query, class)
	script := fmt.Sprintf(`(() => {
		let el;
		try { el = document.querySelector(%s); } catch (e) { return false; }
		return !!el && el.classList.contains(%s);
	})()`, jsString(query), jsString(class))
	return i.waitErr(desc, i.waiter.AwaitScript(ctx, desc, script, i.waitBudget(timeout)))
}

// WaitForCount blocks until query matches exactly n elements.
func (i *Interactor) WaitForCount(ctx context.Context, query string, n int, timeout time.Duration) error {
	desc := fmt.Sprintf("waiting for %q to match %d element(s)", query, n)
	script := fmt.Sprintf(`(() => {
		try { return document.querySelectorAll(%s).length === %d; } catch (e) { return false; }
	})()`, jsString(query), n)
	return i.waitErr(desc, i.waiter.AwaitScript(ctx, desc, script, i.waitBudget(timeout)))
}

// WaitForURLChange blocks until the page URL differs from fromURL.
func (i *Interactor) WaitForURLChange(ctx context.Context, fromURL string, timeout time.Duration) error {
	desc := fmt.Sprintf("waiting for navigation away from %s", fromURL)
	script := fmt.Sprintf(`window.location.href !== %s`, jsString(fromURL))
	return i.waitErr(desc, i.waiter.AwaitScript(ctx, desc, script, i.waitBudget(timeout)))
}

// WaitForNetworkIdle blocks until the page's resource entry count holds
// steady for the idle window, a heuristic for in-flight fetches having
// drained.
func (i *Interactor) WaitForNetworkIdle(ctx context.Context, idle, timeout time.Duration) error {
	desc := "waiting for network idle"
	waitCtx, cancel := context.WithTimeout(ctx, i.waitBudget(timeout))
	defer cancel()

	countScript := `performance.getEntriesByType("resource").length`
	deadline := time.Now().Add(i.waitBudget(timeout))
	for time.Now().Before(deadline) {
		var before int
		if err := i.exec.Eval(waitCtx, countScript, &before); err != nil {
			return i.waitErr(desc, err)
		}
		select {
		case <-time.After(idle):
		case <-waitCtx.Done():
			return i.waitErr(desc, ErrWaitTimeout)
		}
		var after int
		if err := i.exec.Eval(waitCtx, countScript, &after); err != nil {
			return i.waitErr(desc, err)
		}
		if before == after {
			return i.waitErr(desc, nil)
		}
	}
	return i.waitErr(desc, ErrWaitTimeout)
}

// DisplayedWithin reports whether query becomes visible before timeout,
// swallowing the timeout instead of erroring.
func (i *Interactor) DisplayedWithin(ctx context.Context, query string, timeout time.Duration) bool {
	return i.WaitForDisplayed(ctx, query, timeout) == nil
}

// HiddenWithin reports whether query becomes hidden before timeout.
func (i *Interactor) HiddenWithin(ctx context.Context, query string, timeout time.Duration) bool {
	return i.WaitForHidden(ctx, query, timeout) == nil
}

// TextWithin reports whether query contains text before timeout.
func (i *Interactor) TextWithin(ctx context.Context, query, text string, timeout time.Duration) bool {
	return i.WaitForText(ctx, query, text, timeout) == nil
}

// EnabledWithin reports whether query becomes enabled before timeout.
func (i *Interactor) EnabledWithin(ctx context.Context, query string, timeout time.Duration) bool {
	return i.WaitForEnabled(ctx, query, timeout) == nil
}

// RemovedWithin reports whether query leaves the DOM before timeout.
func (i *Interactor) RemovedWithin(ctx context.Context, query string, timeout time.Duration) bool {
	return i.WaitForRemoved(ctx, query, timeout) == nil
}

// ClassWithin reports whether query gains the class before timeout.
func (i *Interactor) ClassWithin(ctx context.Context, query, class string, timeout time.Duration) bool {
	return i.WaitForClass(ctx, query, class, timeout) == nil
}

// CountWithin reports whether query reaches exactly n matches before timeout.
func (i *Interactor) CountWithin(ctx context.Context, query string, n int, timeout time.Duration) bool {
	return i.WaitForCount(ctx, query, n, timeout) == nil
}

// URLChangedWithin reports whether the page navigated away from fromURL
// before timeout.
func (i *Interactor) URLChangedWithin(ctx context.Context, fromURL string, timeout time.Duration) bool {
	return i.WaitForURLChange(ctx, fromURL, timeout) == nil
}

// NetworkIdleWithin reports whether the network settled before timeout.
func (i *Interactor) NetworkIdleWithin(ctx context.Context, idle, timeout time.Duration) bool {
	return i.WaitForNetworkIdle(ctx, idle, timeout) == nil
}

// waitErr records the wait outcome in the diagnostic log and wraps failures
// uniformly. Every wait produces exactly one entry either way.
func (i *Interactor) waitErr(desc string, err error) error {
	if err == nil {
		i.diag.Log("info", desc, nil)
		return nil
	}
	opErr := &OpError{Op: "wait", Element: desc, Err: err}
	i.diag.LogError(context.Background(), opErr, i.exec)
	return opErr
}

// queryVisibleScript builds a visibility predicate over the nth raw query
// match, for elements that may not exist yet.
func queryVisibleScript(query string, index int) string {
	return fmt.Sprintf(`(() => {
		let nodes;
		try { nodes = document.querySelectorAll(%s); } catch (e) { return false; }
		const el = nodes[%d];
		if (!el) { return false; }
		const rect = el.getBoundingClientRect();
		if (rect.width <= 0 || rect.height <= 0) { return false; }
		const style = window.getComputedStyle(el);
		return style.display !== "none" && style.visibility !== "hidden" && parseFloat(style.opacity) !== 0;
	})()`, jsString(query), index)
}
