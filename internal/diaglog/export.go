// internal/diaglog/export.go
package diaglog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Attachment is one exported artifact, ready to be written to disk or
// attached to a test report.
type Attachment struct {
	Name    string
	MIME    string
	Content []byte
}

// Summary aggregates a run's entries for quick triage.
type Summary struct {
	Total      int            `json:"total"`
	ByLevel    map[string]int `json:"by_level"`
	ByCategory map[string]int `json:"by_category"`
	Insights   []string       `json:"insights"`
}

// GenerateSummary tallies entries by level and category and derives run-level
// insights from the distribution.
func (l *Logger) GenerateSummary() Summary {
	return summarize(l.Entries())
}

func summarize(entries []Entry) Summary {
	s := Summary{
		Total:      len(entries),
		ByLevel:    make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for _, e := range entries {
		s.ByLevel[e.Level]++
		s.ByCategory[e.Category]++
	}
	if s.Total > 0 && s.ByLevel["warn"]*5 >= s.Total {
		s.Insights = append(s.Insights, "High warning ratio; the run may be flaky even where it passed")
	}
	if s.ByCategory[CategoryError] > 0 {
		s.Insights = append(s.Insights,
			fmt.Sprintf("%d error(s) recorded; see error-analysis.md", s.ByCategory[CategoryError]))
	}
	if s.ByCategory[CategoryUserAction] > 50 {
		s.Insights = append(s.Insights, "Over 50 user actions in one run; consider splitting the scenario")
	}
	return s
}

// ExportForReporting renders the run's diagnostics as report attachments:
// the raw entries as JSON, a text summary, a timeline, the action steps, an
// error analysis (only when errors occurred), and a JUnit XML document for
// CI ingestion. When a test context is active, the raw views cover only that
// context's entries; the error analysis and the JUnit document always span
// the whole run, since CI consumes them per run rather than per test.
func (l *Logger) ExportForReporting() ([]Attachment, error) {
	all := l.Entries()
	scoped := all
	if active := l.TestContext(); active != "" {
		scoped = filterByContext(all, active)
	}
	summary := summarize(scoped)

	raw, err := json.MarshalIndent(scoped, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling entries: %w", err)
	}

	attachments := []Attachment{
		{Name: "test-log.json", MIME: "application/json", Content: raw},
		{Name: "log-summary.txt", MIME: "text/plain", Content: []byte(renderSummary(summary))},
		{Name: "timeline.txt", MIME: "text/plain", Content: []byte(renderTimeline(scoped))},
		{Name: "action-steps.txt", MIME: "text/plain", Content: []byte(renderActionSteps(scoped))},
	}

	if summarize(all).ByCategory[CategoryError] > 0 {
		attachments = append(attachments, Attachment{
			Name:    "error-analysis.md",
			MIME:    "text/markdown",
			Content: []byte(l.renderErrorAnalysis(all)),
		})
	}

	junit, err := renderJUnit(all)
	if err != nil {
		return nil, fmt.Errorf("rendering junit report: %w", err)
	}
	attachments = append(attachments, Attachment{Name: "junit.xml", MIME: "application/xml", Content: junit})
	return attachments, nil
}

func renderSummary(s Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Diagnostic log summary\n======================\n\nTotal entries: %d\n\nBy level:\n", s.Total)
	for _, k := range sortedKeys(s.ByLevel) {
		fmt.Fprintf(&sb, "  %-8s %d\n", k, s.ByLevel[k])
	}
	sb.WriteString("\nBy category:\n")
	for _, k := range sortedKeys(s.ByCategory) {
		fmt.Fprintf(&sb, "  %-12s %d\n", k, s.ByCategory[k])
	}
	if len(s.Insights) > 0 {
		sb.WriteString("\nInsights:\n")
		for _, in := range s.Insights {
			fmt.Fprintf(&sb, "  - %s\n", in)
		}
	}
	return sb.String()
}

func renderTimeline(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s [%-5s] [%-12s] %s\n",
			e.Timestamp.Format("15:04:05.000"), e.Level, e.Category, e.Message)
	}
	return sb.String()
}

func renderActionSteps(entries []Entry) string {
	var sb strings.Builder
	step := 0
	for _, e := range entries {
		if e.Category != CategoryUserAction {
			continue
		}
		step++
		fmt.Fprintf(&sb, "%3d. %s\n", step, e.Message)
	}
	if step == 0 {
		sb.WriteString("No user actions recorded.\n")
	}
	return sb.String()
}

func (l *Logger) renderErrorAnalysis(entries []Entry) string {
	var sb strings.Builder
	sb.WriteString("# Error analysis\n")
	byContext := make(map[string][]Entry)
	var order []string
	for _, e := range entries {
		if e.Category != CategoryError {
			continue
		}
		if _, seen := byContext[e.TestContext]; !seen {
			order = append(order, e.TestContext)
		}
		byContext[e.TestContext] = append(byContext[e.TestContext], e)
	}
	for _, tc := range order {
		name := tc
		if name == "" {
			name = "(no test context)"
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", name)
		for _, e := range byContext[tc] {
			fmt.Fprintf(&sb, "- `%s` %s\n", e.Timestamp.Format(time.RFC3339), e.Message)
		}
		for _, insp := range l.Inspections(tc) {
			sb.WriteString("\n### Page state at failure\n\n")
			fmt.Fprintf(&sb, "- URL: %s\n- Title: %s\n- readyState: %s\n", insp.URL, insp.Title, insp.ReadyState)
			for _, msg := range insp.ErrorMessages {
				fmt.Fprintf(&sb, "- Page error: %s\n", msg)
			}
			for _, s := range insp.Suggestions {
				fmt.Fprintf(&sb, "- Suggestion: %s\n", s)
			}
		}
	}
	return sb.String()
}

// renderJUnit emits one testcase per test context, failing the case when the
// context recorded any error.
func renderJUnit(entries []Entry) ([]byte, error) {
	byContext := make(map[string][]Entry)
	var order []string
	for _, e := range entries {
		if _, seen := byContext[e.TestContext]; !seen {
			order = append(order, e.TestContext)
		}
		byContext[e.TestContext] = append(byContext[e.TestContext], e)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	suite := doc.CreateElement("testsuite")
	suite.CreateAttr("name", "browser-interactions")
	suite.CreateAttr("tests", fmt.Sprintf("%d", len(order)))

	failures := 0
	for _, tc := range order {
		name := tc
		if name == "" {
			name = "unscoped"
		}
		tcEntries := byContext[tc]
		kase := suite.CreateElement("testcase")
		kase.CreateAttr("name", name)
		if len(tcEntries) > 1 {
			dur := tcEntries[len(tcEntries)-1].Timestamp.Sub(tcEntries[0].Timestamp)
			kase.CreateAttr("time", fmt.Sprintf("%.3f", dur.Seconds()))
		}
		for _, e := range tcEntries {
			if e.Category == CategoryError {
				failures++
				failure := kase.CreateElement("failure")
				failure.CreateAttr("message", e.Message)
				break
			}
		}
	}
	suite.CreateAttr("failures", fmt.Sprintf("%d", failures))

	doc.Indent(2)
	return doc.WriteToBytes()
}

func filterByContext(entries []Entry, context string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.TestContext == context {
			out = append(out, e)
		}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
