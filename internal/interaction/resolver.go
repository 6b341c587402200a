// internal/interaction/resolver.go
package interaction

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// refAttribute is the data attribute used to pin resolved elements.
const refAttribute = "data-xwp-ref"

// Resolver locates elements by CSS query and pins them with a unique
// attribute tag so later actions target the exact node that was matched.
type Resolver struct {
	exec   Executor
	logger *zap.Logger
}

func NewResolver(exec Executor, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{exec: exec, logger: logger}
}

type resolveResult struct {
	Found bool `json:"found"`
	Count int  `json:"count"`
}

// Resolve tags the element addressed by ref and returns a Handle for it.
// Already-resolved refs pass through unchanged. A query that matches fewer
// elements than the requested index yields ErrElementNotFound together with
// the observed match count, which is the detail callers need most when a
// selector drifts.
func (r *Resolver) Resolve(ctx context.Context, ref ElementRef) (*Handle, error) {
	if ref.handle != nil {
		return ref.handle, nil
	}
	if ref.query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidSelector)
	}
	if ref.index < 0 {
		return nil, fmt.Errorf("%w: negative index %d for query %q", ErrInvalidSelector, ref.index, ref.query)
	}

	tag := uuid.NewString()
	script := fmt.Sprintf(`(() => {
		let nodes;
		try {
			nodes = document.querySelectorAll(%s);
		} catch (e) {
			return { found: false, count: -1 };
		}
		const el = nodes[%d];
		if (!el) {
			return { found: false, count: nodes.length };
		}
		el.setAttribute(%s, %s);
		return { found: true, count: nodes.length };
	})()`, jsString(ref.query), ref.index, jsString(refAttribute), jsString(tag))

	var res resolveResult
	if err := r.exec.Eval(ctx, script, &res); err != nil {
		return nil, fmt.Errorf("resolving %q: %w", ref.query, err)
	}
	if res.Count < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, ref.query)
	}
	if !res.Found {
		return nil, fmt.Errorf("%w: %q at index %d (selector matched %d element(s))",
			ErrElementNotFound, ref.query, ref.index, res.Count)
	}
	if res.Count > 1 {
		r.logger.Debug("Selector matched multiple elements",
			zap.String("selector", ref.query),
			zap.Int("index", ref.index),
			zap.Int("matches", res.Count))
	}
	return &Handle{exec: r.exec, tag: tag, source: ref.query, index: ref.index, matches: res.Count}, nil
}

// Count reports how many elements currently match the query without pinning
// any of them. An element that matches nothing is a count of zero, not an
// error.
func (r *Resolver) Count(ctx context.Context, query string) (int, error) {
	script := fmt.Sprintf(`(() => {
		try {
			return document.querySelectorAll(%s).length;
		} catch (e) {
			return -1;
		}
	})()`, jsString(query))
	var n int
	if err := r.exec.Eval(ctx, script, &n); err != nil {
		return 0, fmt.Errorf("counting %q: %w", query, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSelector, query)
	}
	return n, nil
}
