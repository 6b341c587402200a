// internal/interaction/health.go
package interaction

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// OpKind partitions operations by what a pre-flight check should demand of
// the element.
type OpKind int

const (
	// OpClick covers pointer interactions that require an enabled target.
	OpClick OpKind = iota
	// OpFill covers input operations that require an enabled target.
	OpFill
	// OpRead covers passive reads, which tolerate disabled elements.
	OpRead
)

// HealthReport is the outcome of a pre-flight element check. Issues may be
// present even when Healthy is true; such entries are informational.
type HealthReport struct {
	Healthy bool
	Issues  []string
}

// HealthChecker probes element state before an interaction and reports
// likely causes of failure. It advises; it never blocks an operation by
// erroring, and when disabled it reports healthy unconditionally.
type HealthChecker struct {
	exec    Executor
	logger  *zap.Logger
	enabled bool
}

func NewHealthChecker(exec Executor, enabled bool, logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthChecker{exec: exec, enabled: enabled, logger: logger}
}

type healthProbe struct {
	Exists   bool `json:"exists"`
	Visible  bool `json:"visible"`
	Disabled bool `json:"disabled"`
}

// Check inspects the pinned element. Probe failures do not fail the check;
// the report notes the skip and lets the operation proceed, since the action
// itself will surface any real problem.
func (c *HealthChecker) Check(ctx context.Context, h *Handle, kind OpKind) HealthReport {
	if !c.enabled {
		return HealthReport{Healthy: true}
	}

	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) { return { exists: false, visible: false, disabled: false }; }
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		const visible = rect.width > 0 && rect.height > 0 &&
			style.display !== "none" && style.visibility !== "hidden" &&
			parseFloat(style.opacity) !== 0;
		return {
			exists: true,
			visible: visible,
			disabled: !!el.disabled || el.getAttribute("aria-disabled") === "true",
		};
	})()`, jsString(h.Selector()))

	var probe healthProbe
	if err := c.exec.Eval(ctx, script, &probe); err != nil {
		c.logger.Debug("Health check probe failed", zap.String("element", h.Describe()), zap.Error(err))
		return HealthReport{Healthy: true, Issues: []string{fmt.Sprintf("Health check skipped: %v", err)}}
	}

	report := HealthReport{Healthy: true}
	if !probe.Exists {
		report.Healthy = false
		report.Issues = append(report.Issues, "Element not found in DOM")
		return report
	}
	if h.MatchCount() > 1 {
		report.Issues = append(report.Issues,
			fmt.Sprintf("Multiple elements found (%d), using first one", h.MatchCount()))
	}
	if !probe.Visible {
		report.Healthy = false
		report.Issues = append(report.Issues, "Element is not visible")
	}
	if probe.Disabled && (kind == OpClick || kind == OpFill) {
		report.Healthy = false
		report.Issues = append(report.Issues, "Element is disabled")
	}
	return report
}
