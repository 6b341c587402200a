// internal/interaction/ref.go
package interaction

import (
	"context"
	"fmt"
	"time"
)

// ElementRef names an element either by a CSS query (optionally with an index
// into the match list) or by an already-resolved Handle. The zero value is
// invalid; use the constructors.
type ElementRef struct {
	query  string
	index  int
	handle *Handle
}

// Selector refers to the first element matching a CSS query.
func Selector(query string) ElementRef {
	return ElementRef{query: query}
}

// SelectorAt refers to the nth (zero-based) element matching a CSS query.
func SelectorAt(query string, index int) ElementRef {
	return ElementRef{query: query, index: index}
}

// FromHandle wraps a previously resolved handle so it can be passed anywhere
// an ElementRef is accepted.
func FromHandle(h *Handle) ElementRef {
	return ElementRef{handle: h}
}

// Describe renders the reference for logs and error messages.
func (r ElementRef) Describe() string {
	if r.handle != nil {
		return r.handle.Describe()
	}
	if r.index > 0 {
		return fmt.Sprintf("%s[%d]", r.query, r.index)
	}
	return r.query
}

// Handle is a resolved element, pinned via a unique data attribute written
// into the live DOM. All subsequent targeting goes through Selector, which is
// immune to sibling reordering until the node itself is replaced.
type Handle struct {
	exec    Executor
	tag     string
	source  string
	index   int
	matches int
}

// Selector returns the attribute selector uniquely targeting the pinned node.
func (h *Handle) Selector() string {
	return fmt.Sprintf(`[%s=%q]`, refAttribute, h.tag)
}

// MatchCount reports how many elements the original query matched at
// resolution time.
func (h *Handle) MatchCount() int { return h.matches }

// Describe renders the original query for logs, not the internal tag.
func (h *Handle) Describe() string {
	if h.index > 0 {
		return fmt.Sprintf("%s[%d]", h.source, h.index)
	}
	return h.source
}

// Release removes the pinning attribute. Best effort: the node may already be
// gone, and failure to clean up is harmless since tags are unique per resolve.
func (h *Handle) Release(ctx context.Context) {
	if h == nil || h.exec == nil {
		return
	}
	releaseCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (el) { el.removeAttribute(%s); }
		return true;
	})()`, jsString(h.Selector()), jsString(refAttribute))
	_ = h.exec.Eval(releaseCtx, script, nil)
}
