// internal/diaglog/category.go
package diaglog

import "strings"

// Log entry categories. Categorization is a heuristic over the message text,
// used to structure exported summaries and timelines.
const (
	CategoryUserAction  = "user-action"
	CategoryNavigation  = "navigation"
	CategoryAPI         = "api"
	CategoryAssertion   = "assertion"
	CategoryTiming      = "timing"
	CategoryPerformance = "performance"
	CategoryError       = "error"
	CategoryGeneral     = "general"
)

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{CategoryUserAction, []string{"click", "fill", "type", "select", "hover", "drag", "upload", "check", "press", "focus", "scroll"}},
	{CategoryNavigation, []string{"navigate", "navigation", "redirect", "url", "page load", "goto"}},
	{CategoryAPI, []string{"request", "response", "api", "endpoint", "http", "fetch", "xhr"}},
	{CategoryAssertion, []string{"assert", "expect", "verify", "should", "mismatch"}},
	{CategoryTiming, []string{"wait", "timeout", "delay", "poll", "stabilize", "idle"}},
	{CategoryPerformance, []string{"slow", "duration", "elapsed", "performance", "latency"}},
}

// Categorize assigns a category to a message. Error-level entries are always
// categorized as errors regardless of content, so error analysis never misses
// them.
func Categorize(message, level string) string {
	if strings.EqualFold(level, "error") {
		return CategoryError
	}
	lower := strings.ToLower(message)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(lower, w) {
				return ck.category
			}
		}
	}
	return CategoryGeneral
}

var sensitiveMarkers = []string{"password", "secret", "token", "apikey", "api_key", "credential"}

// MaskValue redacts values that look like secrets: anything containing a
// sensitive marker, or long opaque strings without spaces, which are usually
// tokens.
func MaskValue(value string) string {
	lower := strings.ToLower(value)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(lower, marker) {
			return "***MASKED***"
		}
	}
	if len(value) >= 32 && !strings.ContainsAny(value, " \t\n") {
		return "***MASKED***"
	}
	return value
}

// MaskContext returns a copy of ctx with values under sensitive keys
// redacted. The input map is never modified.
func MaskContext(ctx map[string]string) map[string]string {
	if ctx == nil {
		return nil
	}
	out := make(map[string]string, len(ctx))
	for k, v := range ctx {
		lowerKey := strings.ToLower(k)
		masked := false
		for _, marker := range sensitiveMarkers {
			if strings.Contains(lowerKey, marker) {
				out[k] = "***MASKED***"
				masked = true
				break
			}
		}
		if !masked {
			out[k] = v
		}
	}
	return out
}
