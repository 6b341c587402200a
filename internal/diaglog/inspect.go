// internal/diaglog/inspect.go
package diaglog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// PageInspection is a snapshot of page state taken at failure time: where the
// page was, what error text it showed, and what might have blocked the
// interaction.
type PageInspection struct {
	Timestamp         time.Time `json:"timestamp"`
	URL               string    `json:"url"`
	Title             string    `json:"title"`
	ReadyState        string    `json:"ready_state"`
	ViewportWidth     int       `json:"viewport_width"`
	ViewportHeight    int       `json:"viewport_height"`
	ErrorMessages     []string  `json:"error_messages,omitempty"`
	LoadingIndicators []string  `json:"loading_indicators,omitempty"`
	BlockingOverlays  []string  `json:"blocking_overlays,omitempty"`
	InspectionError   string    `json:"inspection_error,omitempty"`
	Suggestions       []string  `json:"suggestions,omitempty"`
}

type pageSnapshot struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	ReadyState string `json:"readyState"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	HTML       string `json:"html"`
}

// Inspect gathers page state in a single evaluation and analyzes the document
// offline. A failed evaluation still yields a usable inspection carrying the
// failure reason, never an error, since inspection runs on paths that are
// already failing.
func Inspect(ctx context.Context, page Evaluator) PageInspection {
	insp := PageInspection{Timestamp: time.Now()}

	snapCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	script := `(() => ({
		url: window.location.href,
		title: document.title,
		readyState: document.readyState,
		width: window.innerWidth,
		height: window.innerHeight,
		html: document.documentElement ? document.documentElement.outerHTML : "",
	}))()`

	var snap pageSnapshot
	if err := page.Eval(snapCtx, script, &snap); err != nil {
		insp.InspectionError = fmt.Sprintf("page snapshot failed: %v", err)
		return insp
	}
	insp.URL = snap.URL
	insp.Title = snap.Title
	insp.ReadyState = snap.ReadyState
	insp.ViewportWidth = snap.Width
	insp.ViewportHeight = snap.Height

	analysis, err := AnalyzeDocument(snap.HTML)
	if err != nil {
		insp.InspectionError = fmt.Sprintf("document analysis failed: %v", err)
	} else {
		insp.ErrorMessages = analysis.ErrorMessages
		insp.LoadingIndicators = analysis.LoadingIndicators
		insp.BlockingOverlays = analysis.BlockingOverlays
	}
	insp.Suggestions = DeriveSuggestions(insp)
	return insp
}

// DocumentAnalysis is what AnalyzeDocument extracts from page markup.
type DocumentAnalysis struct {
	ErrorMessages     []string
	LoadingIndicators []string
	BlockingOverlays  []string
}

// AnalyzeDocument walks an HTML document looking for visible error messages,
// loading indicators, and overlays that could intercept pointer events.
func AnalyzeDocument(source string) (DocumentAnalysis, error) {
	var analysis DocumentAnalysis
	if strings.TrimSpace(source) == "" {
		return analysis, nil
	}
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return analysis, fmt.Errorf("parsing document: %w", err)
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attrs := attrMap(n)
			if strings.Contains(attrs["style"], "display:none") ||
				strings.Contains(attrs["style"], "display: none") {
				return
			}
			classes := strings.ToLower(attrs["class"])

			if attrs["role"] == "alert" || containsAnyClass(classes, "error", "alert-danger", "validation-message", "field-error") {
				if text := nodeText(n); text != "" {
					analysis.ErrorMessages = append(analysis.ErrorMessages, text)
				}
			}
			if attrs["aria-busy"] == "true" || containsAnyClass(classes, "spinner", "loading", "loader", "progress") {
				analysis.LoadingIndicators = append(analysis.LoadingIndicators, describeNode(n, attrs))
			}
			if isBlockingOverlay(attrs, classes) {
				analysis.BlockingOverlays = append(analysis.BlockingOverlays, describeNode(n, attrs))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return analysis, nil
}

func attrMap(n *html.Node) map[string]string {
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		m[strings.ToLower(a.Key)] = a.Val
	}
	return m
}

func containsAnyClass(classes string, wanted ...string) bool {
	for _, field := range strings.Fields(classes) {
		for _, w := range wanted {
			if field == w || strings.HasPrefix(field, w+"-") || strings.HasSuffix(field, "-"+w) {
				return true
			}
		}
	}
	return false
}

// isBlockingOverlay flags fixed-position elements stacked high enough to sit
// over the page content. Inline styles are all the parsed document exposes;
// stylesheet-driven overlays rely on the class heuristics instead.
func isBlockingOverlay(attrs map[string]string, classes string) bool {
	if containsAnyClass(classes, "modal", "overlay", "backdrop", "dialog") {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(attrs["style"]), " ", "")
	if !strings.Contains(style, "position:fixed") {
		return false
	}
	idx := strings.Index(style, "z-index:")
	if idx < 0 {
		return false
	}
	rest := style[idx+len("z-index:"):]
	if end := strings.IndexAny(rest, ";}"); end >= 0 {
		rest = rest[:end]
	}
	z, err := strconv.Atoi(strings.TrimSpace(rest))
	return err == nil && z >= 1000
}

func describeNode(n *html.Node, attrs map[string]string) string {
	desc := "<" + n.Data
	if id := attrs["id"]; id != "" {
		desc += " id=" + strconv.Quote(id)
	}
	if class := attrs["class"]; class != "" {
		desc += " class=" + strconv.Quote(class)
	}
	return desc + ">"
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// DeriveSuggestions turns an inspection into actionable hints for whoever
// reads the failure report.
func DeriveSuggestions(insp PageInspection) []string {
	var suggestions []string
	for _, msg := range insp.ErrorMessages {
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "password") || strings.Contains(lower, "username") ||
			strings.Contains(lower, "credential") || strings.Contains(lower, "login") ||
			strings.Contains(lower, "sign in") {
			suggestions = append(suggestions, "Page shows a login error; verify the test credentials are valid")
			break
		}
	}
	if len(insp.ErrorMessages) > 0 && len(suggestions) == 0 {
		suggestions = append(suggestions, "Page displays error messages; check them before suspecting the selector")
	}
	if len(insp.LoadingIndicators) > 0 {
		suggestions = append(suggestions, "Loading indicators are still present; the page may not have finished rendering")
	}
	if len(insp.BlockingOverlays) > 0 {
		suggestions = append(suggestions, "An overlay or modal may be intercepting clicks; dismiss it before interacting")
	}
	if insp.ReadyState != "" && insp.ReadyState != "complete" {
		suggestions = append(suggestions, fmt.Sprintf("Document readyState is %q; wait for the page load to finish", insp.ReadyState))
	}
	return suggestions
}
