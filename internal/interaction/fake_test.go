// internal/interaction/fake_test.go
package interaction

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap/zaptest"
)

// fakeExecutor scripts browser responses for pipeline tests. Eval calls are
// matched against rules by substring; each rule yields its responses in
// order, repeating the last one once exhausted. Unmatched scripts succeed
// without writing a result, which mirrors the fire-and-forget cleanup evals.
type fakeExecutor struct {
	mu       sync.Mutex
	rules    []*fakeRule
	runErrs  []error
	evalLog  []string
	runCalls int
}

type fakeRule struct {
	contains  string
	responses []fakeResponse
	served    int
}

type fakeResponse struct {
	result string
	err    error
}

func newFakeExecutor() *fakeExecutor { return &fakeExecutor{} }

// on registers responses for scripts containing the given fragment.
func (f *fakeExecutor) on(fragment string, responses ...fakeResponse) *fakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &fakeRule{contains: fragment, responses: responses})
	return f
}

func ok(result string) fakeResponse { return fakeResponse{result: result} }
func fail(err error) fakeResponse   { return fakeResponse{err: err} }

// queueRunErrs sets the outcomes of successive RunActions calls. Calls past
// the end of the queue succeed.
func (f *fakeExecutor) queueRunErrs(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runErrs = append(f.runErrs, errs...)
}

func (f *fakeExecutor) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runCalls++
	if len(f.runErrs) > 0 {
		err := f.runErrs[0]
		f.runErrs = f.runErrs[1:]
		return err
	}
	return nil
}

func (f *fakeExecutor) Eval(ctx context.Context, script string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evalLog = append(f.evalLog, script)

	for _, rule := range f.rules {
		if !strings.Contains(script, rule.contains) {
			continue
		}
		idx := rule.served
		if idx >= len(rule.responses) {
			idx = len(rule.responses) - 1
		}
		rule.served++
		resp := rule.responses[idx]
		if resp.err != nil {
			return resp.err
		}
		if out != nil && resp.result != "" {
			return json.Unmarshal([]byte(resp.result), out)
		}
		return nil
	}
	return nil
}

func (f *fakeExecutor) evalCount(fragment string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.evalLog {
		if strings.Contains(s, fragment) {
			n++
		}
	}
	return n
}

func (f *fakeExecutor) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runCalls
}

func testResolver(t *testing.T, exec Executor) *Resolver {
	t.Helper()
	return NewResolver(exec, zaptest.NewLogger(t))
}
