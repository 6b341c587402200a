// internal/diaglog/logger.go

// Package diaglog captures a structured, queryable record of everything a
// test run did to the browser: actions, assertions, waits, and errors, each
// tagged with the active test context. On failure it snapshots page state so
// post-mortems do not depend on reproducing the run.
package diaglog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry is a single diagnostic record.
type Entry struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Level       string            `json:"level"`
	Message     string            `json:"message"`
	TestContext string            `json:"test_context,omitempty"`
	Category    string            `json:"category"`
	Tags        []string          `json:"tags,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
}

// Evaluator is the page surface needed for failure snapshots.
type Evaluator interface {
	Eval(ctx context.Context, script string, out any) error
}

// Logger accumulates diagnostic entries. A nil *Logger is valid and drops
// everything, so callers never need to guard their logging.
type Logger struct {
	mu          sync.Mutex
	entries     []Entry
	inspections map[string][]PageInspection
	testCtx     string
	zlog        *zap.Logger
	autoInspect bool
}

// New creates a diagnostic logger. When autoInspect is set, LogError captures
// a page inspection alongside the error entry.
func New(zlog *zap.Logger, autoInspect bool) *Logger {
	if zlog == nil {
		zlog = zap.NewNop()
	}
	return &Logger{
		inspections: make(map[string][]PageInspection),
		zlog:        zlog,
		autoInspect: autoInspect,
	}
}

// SetTestContext names the test whose entries follow. Subsequent entries are
// tagged with it until it changes.
func (l *Logger) SetTestContext(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.testCtx = name
}

// TestContext returns the active test context name.
func (l *Logger) TestContext() string {
	if l == nil {
		return ""
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.testCtx
}

// ClearTestLogs drops entries and inspections belonging to the active test
// context only. Entries from other contexts survive, so one test's cleanup
// cannot erase another's history.
func (l *Logger) ClearTestLogs() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.testCtx == "" {
		return
	}
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.TestContext != l.testCtx {
			kept = append(kept, e)
		}
	}
	l.entries = kept
	delete(l.inspections, l.testCtx)
}

// Log records an entry at the given level with optional context fields.
// Context values under sensitive keys are masked before storage.
func (l *Logger) Log(level, message string, fields map[string]string, tags ...string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.append(level, message, fields, tags...)
}

// append adds an entry. Callers must hold l.mu.
func (l *Logger) append(level, message string, fields map[string]string, tags ...string) {
	entry := Entry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		Level:       level,
		Message:     message,
		TestContext: l.testCtx,
		Category:    Categorize(message, level),
		Tags:        tags,
		Context:     MaskContext(fields),
	}
	l.entries = append(l.entries, entry)
	l.zlog.Debug("Diagnostic entry",
		zap.String("level", level),
		zap.String("category", entry.Category),
		zap.String("message", message))
}

// LogAction records a user-level action against an element.
func (l *Logger) LogAction(op, element string, details map[string]string) {
	if l == nil {
		return
	}
	fields := map[string]string{"operation": op, "element": element}
	for k, v := range details {
		fields[k] = v
	}
	l.Log("info", op+" "+element, fields, "action")
}

// LogAssertion records an assertion outcome.
func (l *Logger) LogAssertion(description string, passed bool) {
	if l == nil {
		return
	}
	level := "info"
	if !passed {
		level = "warn"
	}
	status := "passed"
	if !passed {
		status = "failed"
	}
	l.Log(level, "assert "+description, map[string]string{"status": status}, "assertion")
}

// LogError records a failure. When auto-inspection is enabled and page is
// non-nil, a snapshot of the page's state is captured under the active test
// context so the export includes what the page looked like at failure time.
func (l *Logger) LogError(ctx context.Context, err error, page Evaluator) {
	if l == nil || err == nil {
		return
	}
	l.mu.Lock()
	l.append("error", err.Error(), nil, "failure")
	shouldInspect := l.autoInspect && page != nil
	testCtx := l.testCtx
	l.mu.Unlock()

	if !shouldInspect {
		return
	}
	inspection := Inspect(ctx, page)
	l.mu.Lock()
	l.inspections[testCtx] = append(l.inspections[testCtx], inspection)
	l.mu.Unlock()
	l.zlog.Debug("Captured page inspection",
		zap.String("test_context", testCtx),
		zap.String("url", inspection.URL),
		zap.Int("suggestions", len(inspection.Suggestions)))
}

// Entries returns a copy of all recorded entries in insertion order.
func (l *Logger) Entries() []Entry {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Inspections returns the page inspections captured for a test context.
func (l *Logger) Inspections(testCtx string) []PageInspection {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]PageInspection, len(l.inspections[testCtx]))
	copy(out, l.inspections[testCtx])
	return out
}
