// internal/interaction/integration_test.go
package interaction_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zahraakhalili20/xwp-automation/internal/browser"
	"github.com/zahraakhalili20/xwp-automation/internal/config"
	"github.com/zahraakhalili20/xwp-automation/internal/diaglog"
	"github.com/zahraakhalili20/xwp-automation/internal/interaction"
)

const lateButtonPage = `<!DOCTYPE html>
<html>
<head><title>Late Button</title></head>
<body>
  <input id="name" type="text">
  <div id="result"></div>
  <script>
    setTimeout(() => {
      const btn = document.createElement("button");
      btn.id = "go";
      btn.textContent = "Go";
      btn.addEventListener("click", () => {
        document.getElementById("result").textContent = "clicked";
      });
      document.body.appendChild(btn);
    }, 400);
  </script>
</body>
</html>`

func skipWithoutBrowser(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	for _, bin := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(bin); err == nil {
			return
		}
	}
	t.Skip("no chrome binary available")
}

func TestInteractorAgainstLiveBrowser(t *testing.T) {
	skipWithoutBrowser(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(lateButtonPage))
	}))
	t.Cleanup(srv.Close)

	logger := zaptest.NewLogger(t)
	cfg := config.NewDefaultConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	mgr, err := browser.NewManager(ctx, logger, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	session, err := mgr.NewSession()
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	require.NoError(t, session.Navigate(ctx, srv.URL))

	diag := diaglog.New(logger, true)
	diag.SetTestContext("live-browser")
	actor := interaction.NewInteractor(session, cfg.Interaction, logger, diag)

	// The button does not exist at navigation time; the wait engine has to
	// absorb the 400ms delay before the click can land.
	require.NoError(t, actor.Click(ctx, interaction.Selector("#go")))

	text, err := actor.Text(ctx, interaction.Selector("#result"))
	require.NoError(t, err)
	assert.Equal(t, "clicked", text)

	require.NoError(t, actor.Fill(ctx, interaction.Selector("#name"), "integration"))
	value, err := actor.InputValue(ctx, interaction.Selector("#name"))
	require.NoError(t, err)
	assert.Equal(t, "integration", value)

	n, err := actor.Count(ctx, "button")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	missing := actor.Click(ctx, interaction.SelectorAt("#go", 3))
	require.Error(t, missing)
	assert.ErrorIs(t, missing, interaction.ErrElementNotFound)
}
