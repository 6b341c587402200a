// -- cmd/inspect.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zahraakhalili20/xwp-automation/internal/browser"
	"github.com/zahraakhalili20/xwp-automation/internal/diaglog"
	"github.com/zahraakhalili20/xwp-automation/internal/observability"
)

var inspectTimeout time.Duration

var inspectCmd = &cobra.Command{
	Use:   "inspect <url>",
	Short: "Navigate to a URL and print a diagnostic snapshot of the page.",
	Long: `Loads the page in a headless browser and reports its state: title,
readyState, visible error messages, loading indicators, blocking overlays,
and suggestions derived from them. Useful for triaging a failing selector
without rerunning the whole suite.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		ctx, cancel := context.WithTimeout(cmd.Context(), inspectTimeout)
		defer cancel()

		mgr, err := browser.NewManager(ctx, logger, cfg)
		if err != nil {
			return fmt.Errorf("starting browser: %w", err)
		}
		defer mgr.Shutdown(ctx)

		session, err := mgr.NewSession()
		if err != nil {
			return fmt.Errorf("opening session: %w", err)
		}
		defer session.Close()

		if err := session.Navigate(ctx, args[0]); err != nil {
			return fmt.Errorf("navigating to %s: %w", args[0], err)
		}

		inspection := diaglog.Inspect(ctx, session)
		out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(inspection, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding inspection: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(out))

		logger.Debug("Inspection complete",
			zap.String("url", inspection.URL),
			zap.Int("errors", len(inspection.ErrorMessages)),
			zap.Int("suggestions", len(inspection.Suggestions)))
		return nil
	},
}

func init() {
	inspectCmd.Flags().DurationVar(&inspectTimeout, "timeout", 60*time.Second, "overall time budget for the inspection")
	rootCmd.AddCommand(inspectCmd)
}
