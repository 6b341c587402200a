// internal/interaction/waiter_test.go
package interaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testWaiter(t *testing.T, exec Executor) *Waiter {
	t.Helper()
	return NewWaiter(exec, 5*time.Millisecond, 5*time.Millisecond, zaptest.NewLogger(t))
}

func testHandle(exec Executor) *Handle {
	return &Handle{exec: exec, tag: "test-tag", source: "#target", matches: 1}
}

func TestAwaitVisibleSucceedsAfterPolling(t *testing.T) {
	exec := newFakeExecutor().on("opacity", ok(`false`), ok(`false`), ok(`true`))
	w := testWaiter(t, exec)

	err := w.Await(context.Background(), testHandle(exec), DefaultConditions(), time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, exec.evalCount("opacity"), 3)
}

func TestAwaitVisibleTimesOutWithConditionName(t *testing.T) {
	exec := newFakeExecutor().on("opacity", ok(`false`))
	w := testWaiter(t, exec)

	err := w.Await(context.Background(), testHandle(exec), DefaultConditions(), 30*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.Contains(t, err.Error(), "not visible")
	assert.Contains(t, err.Error(), "#target")
}

func TestAwaitStableWaitsForRectToSettle(t *testing.T) {
	exec := newFakeExecutor().
		on("opacity", ok(`true`)).
		on("toFixed", ok(`"0.0,10.0,50.0,20.0"`), ok(`"0.0,20.0,50.0,20.0"`), ok(`"0.0,30.0,50.0,20.0"`), ok(`"0.0,30.0,50.0,20.0"`))
	w := testWaiter(t, exec)

	cond := WaitConditions{Visible: true, Stable: true}
	err := w.Await(context.Background(), testHandle(exec), cond, time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, exec.evalCount("toFixed"), 4, "stability needs two matching consecutive samples")
}

func TestAwaitEnabledTimesOut(t *testing.T) {
	exec := newFakeExecutor().
		on("opacity", ok(`true`)).
		on("aria-disabled", ok(`false`))
	w := testWaiter(t, exec)

	cond := WaitConditions{Visible: true, Enabled: true}
	err := w.Await(context.Background(), testHandle(exec), cond, 30*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.Contains(t, err.Error(), "not enabled")
}

func TestAwaitHasTextPollsForNonEmptyContent(t *testing.T) {
	exec := newFakeExecutor().
		on("opacity", ok(`true`)).
		on(`trim() !== ""`, ok(`false`), ok(`true`))
	w := testWaiter(t, exec)

	cond := WaitConditions{Visible: true, HasText: true}
	err := w.Await(context.Background(), testHandle(exec), cond, time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, exec.evalCount(`trim() !== ""`), 2)
}

func TestAwaitHasTextTimesOutOnEmptyElement(t *testing.T) {
	exec := newFakeExecutor().
		on("opacity", ok(`true`)).
		on(`trim() !== ""`, ok(`false`))
	w := testWaiter(t, exec)

	cond := WaitConditions{Visible: true, HasText: true}
	err := w.Await(context.Background(), testHandle(exec), cond, 30*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.Contains(t, err.Error(), "has no text")
}

func TestAwaitTextContains(t *testing.T) {
	exec := newFakeExecutor().
		on("opacity", ok(`true`)).
		on("includes", ok(`false`), ok(`true`))
	w := testWaiter(t, exec)

	cond := WaitConditions{Visible: true, TextContains: "Welcome"}
	err := w.Await(context.Background(), testHandle(exec), cond, time.Second)
	require.NoError(t, err)
}

func TestAwaitScriptRespectsCallerCancellation(t *testing.T) {
	exec := newFakeExecutor().on("window.__ready", ok(`false`))
	w := testWaiter(t, exec)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := w.AwaitScript(ctx, "app ready", "window.__ready === true", time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrWaitTimeout, "caller cancellation is not a timeout")
}
