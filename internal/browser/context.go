// internal/browser/context.go
package browser

import (
	"context"
	"time"
)

// CombineContext creates a context derived from ctx1 (the session context,
// which carries the CDP target values) that is canceled when either ctx1 or
// ctx2 (the operational context, which carries the deadline) is done. chromedp
// requires the target values to survive, so plain context.WithTimeout on the
// operational context is not enough.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(ctx1)

	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}

// valueOnlyContext inherits values from its parent but ignores the parent's
// deadline and cancellation signal.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach returns a context that keeps ctx's values (CDP target information)
// but is not canceled when ctx is. Used for cleanup actions that must run even
// while an operation is being torn down.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
