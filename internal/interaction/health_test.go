// internal/interaction/health_test.go
package interaction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func testHealthChecker(t *testing.T, exec Executor, enabled bool) *HealthChecker {
	t.Helper()
	return NewHealthChecker(exec, enabled, zaptest.NewLogger(t))
}

func TestHealthCheckDisabledReportsHealthy(t *testing.T) {
	exec := newFakeExecutor()
	c := testHealthChecker(t, exec, false)

	report := c.Check(context.Background(), testHandle(exec), OpClick)
	assert.True(t, report.Healthy)
	assert.Empty(t, report.Issues)
	assert.Zero(t, exec.evalCount("disabled"), "a disabled checker must not touch the page")
}

func TestHealthCheckHealthyElement(t *testing.T) {
	exec := newFakeExecutor().on("disabled", ok(`{"exists":true,"visible":true,"disabled":false}`))
	c := testHealthChecker(t, exec, true)

	report := c.Check(context.Background(), testHandle(exec), OpClick)
	assert.True(t, report.Healthy)
	assert.Empty(t, report.Issues)
}

func TestHealthCheckMissingElement(t *testing.T) {
	exec := newFakeExecutor().on("disabled", ok(`{"exists":false,"visible":false,"disabled":false}`))
	c := testHealthChecker(t, exec, true)

	report := c.Check(context.Background(), testHandle(exec), OpClick)
	assert.False(t, report.Healthy)
	assert.Contains(t, report.Issues, "Element not found in DOM")
}

func TestHealthCheckMultipleMatchesIsInformational(t *testing.T) {
	exec := newFakeExecutor().on("disabled", ok(`{"exists":true,"visible":true,"disabled":false}`))
	c := testHealthChecker(t, exec, true)

	h := &Handle{exec: exec, tag: "t", source: ".btn", matches: 3}
	report := c.Check(context.Background(), h, OpClick)
	assert.True(t, report.Healthy, "ambiguous selectors warn but do not block")
	assert.Contains(t, report.Issues, "Multiple elements found (3), using first one")
}

func TestHealthCheckDisabledElementBlocksClicksOnly(t *testing.T) {
	exec := newFakeExecutor().on("disabled", ok(`{"exists":true,"visible":true,"disabled":true}`))
	c := testHealthChecker(t, exec, true)

	click := c.Check(context.Background(), testHandle(exec), OpClick)
	assert.False(t, click.Healthy)
	assert.Contains(t, click.Issues, "Element is disabled")

	read := c.Check(context.Background(), testHandle(exec), OpRead)
	assert.True(t, read.Healthy, "reads tolerate disabled elements")
}

func TestHealthCheckProbeFailureIsNonFatal(t *testing.T) {
	exec := newFakeExecutor().on("disabled", fail(errors.New("evaluation blocked")))
	c := testHealthChecker(t, exec, true)

	report := c.Check(context.Background(), testHandle(exec), OpClick)
	assert.True(t, report.Healthy, "probe failures must not block the operation")
	assert.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "Health check skipped")
}
