// internal/diaglog/logger_test.go
package diaglog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

type fakePage struct {
	snapshot string
	err      error
}

func (f *fakePage) Eval(ctx context.Context, script string, out any) error {
	if f.err != nil {
		return f.err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(f.snapshot), out)
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.SetTestContext("x")
	l.Log("info", "message", nil)
	l.LogAction("click", "#a", nil)
	l.LogError(context.Background(), errors.New("boom"), nil)
	l.ClearTestLogs()
	assert.Nil(t, l.Entries())
}

func TestEntriesCarryTestContextAndCategory(t *testing.T) {
	l := New(zaptest.NewLogger(t), false)
	l.SetTestContext("login-flow")

	l.LogAction("click", "#submit", map[string]string{"password": "hunter2"})
	l.LogAssertion("dashboard visible", true)

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "login-flow", entries[0].TestContext)
	assert.Equal(t, CategoryUserAction, entries[0].Category)
	assert.Equal(t, "***MASKED***", entries[0].Context["password"])
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, CategoryAssertion, entries[1].Category)
}

func TestClearTestLogsOnlyPurgesActiveContext(t *testing.T) {
	l := New(zaptest.NewLogger(t), false)

	l.SetTestContext("first")
	l.Log("info", "click one", nil)
	l.SetTestContext("second")
	l.Log("info", "click two", nil)

	l.ClearTestLogs()

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].TestContext)
}

func TestLogErrorCapturesInspectionWhenEnabled(t *testing.T) {
	page := &fakePage{snapshot: `{"url":"https://app.test/login","title":"Login","readyState":"complete","width":1280,"height":800,"html":""}`}
	l := New(zaptest.NewLogger(t), true)
	l.SetTestContext("login-flow")

	l.LogError(context.Background(), errors.New("click on #submit failed"), page)

	inspections := l.Inspections("login-flow")
	require.Len(t, inspections, 1)
	assert.Equal(t, "https://app.test/login", inspections[0].URL)

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].Level)
}

func TestLogErrorSkipsInspectionWhenDisabled(t *testing.T) {
	page := &fakePage{snapshot: `{}`}
	l := New(zaptest.NewLogger(t), false)
	l.SetTestContext("flow")

	l.LogError(context.Background(), errors.New("boom"), page)
	assert.Empty(t, l.Inspections("flow"))
}

func TestConcurrentLoggingIsSafe(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := New(zaptest.NewLogger(t), false)
	l.SetTestContext("parallel")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.LogAction("click", "#btn", nil)
			l.LogError(context.Background(), errors.New("transient"), nil)
		}()
	}
	wg.Wait()

	assert.Len(t, l.Entries(), 40)
}
