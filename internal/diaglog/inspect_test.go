// internal/diaglog/inspect_test.go
package diaglog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeDocumentFindsVisibleErrors(t *testing.T) {
	source := `<html><body>
		<div class="error">Invalid username or password</div>
		<div class="error" style="display:none">stale hidden error</div>
		<p role="alert">Session expired</p>
	</body></html>`

	analysis, err := AnalyzeDocument(source)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid username or password", "Session expired"}, analysis.ErrorMessages)
}

func TestAnalyzeDocumentFindsLoadingIndicators(t *testing.T) {
	source := `<html><body>
		<div class="spinner" id="page-spinner"></div>
		<section aria-busy="true"></section>
	</body></html>`

	analysis, err := AnalyzeDocument(source)
	require.NoError(t, err)
	require.Len(t, analysis.LoadingIndicators, 2)
	assert.Contains(t, analysis.LoadingIndicators[0], "page-spinner")
}

func TestAnalyzeDocumentFindsBlockingOverlays(t *testing.T) {
	source := `<html><body>
		<div class="modal-backdrop"></div>
		<div style="position: fixed; z-index: 2000;"></div>
		<div style="position: fixed; z-index: 5;"></div>
	</body></html>`

	analysis, err := AnalyzeDocument(source)
	require.NoError(t, err)
	assert.Len(t, analysis.BlockingOverlays, 2, "low z-index fixed elements are not overlays")
}

func TestAnalyzeDocumentEmptyInput(t *testing.T) {
	analysis, err := AnalyzeDocument("   ")
	require.NoError(t, err)
	assert.Empty(t, analysis.ErrorMessages)
}

func TestInspectSurvivesSnapshotFailure(t *testing.T) {
	page := &fakePage{err: errors.New("target closed")}

	insp := Inspect(context.Background(), page)
	assert.Contains(t, insp.InspectionError, "target closed")
	assert.Empty(t, insp.URL)
}

func TestDeriveSuggestionsCredentialFailure(t *testing.T) {
	insp := PageInspection{
		ReadyState:    "complete",
		ErrorMessages: []string{"Invalid username or password"},
	}
	suggestions := DeriveSuggestions(insp)
	require.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions[0], "credentials")
}

func TestDeriveSuggestionsLoadingAndOverlay(t *testing.T) {
	insp := PageInspection{
		ReadyState:        "interactive",
		LoadingIndicators: []string{`<div class="spinner">`},
		BlockingOverlays:  []string{`<div class="modal">`},
	}
	suggestions := DeriveSuggestions(insp)
	assert.Len(t, suggestions, 3)
}

func TestDeriveSuggestionsQuietPage(t *testing.T) {
	insp := PageInspection{ReadyState: "complete"}
	assert.Empty(t, DeriveSuggestions(insp))
}
