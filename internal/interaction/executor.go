// internal/interaction/executor.go
package interaction

import (
	"context"
	"encoding/json"

	"github.com/chromedp/chromedp"
)

// Executor is the low-level browser surface the interaction layer drives.
// *browser.Session satisfies it; tests substitute a scripted fake.
type Executor interface {
	// RunActions executes chromedp actions bounded by the operational context.
	RunActions(ctx context.Context, actions ...chromedp.Action) error
	// Eval evaluates a JavaScript expression and unmarshals the result into out.
	Eval(ctx context.Context, script string, out any) error
}

// jsString encodes a Go string as a JavaScript string literal. Selectors and
// values are caller-controlled, so they must never be spliced into scripts raw.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
