// -- cmd/probe.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zahraakhalili20/xwp-automation/internal/browser"
	"github.com/zahraakhalili20/xwp-automation/internal/diaglog"
	"github.com/zahraakhalili20/xwp-automation/internal/interaction"
	"github.com/zahraakhalili20/xwp-automation/internal/observability"
)

var (
	probeSelector string
	probeTimeout  time.Duration
	probeOutDir   string
)

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Exercise a selector on a live page and export the diagnostic log.",
	Long: `Navigates to the URL, runs the full interaction pipeline (resolve,
wait, health check, click) against the given selector, and writes the
diagnostic artifacts to the output directory. Exit status reflects whether
the interaction succeeded after retries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
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

		diag := diaglog.New(logger, true)
		diag.SetTestContext("probe")
		actor := interaction.NewInteractor(session, cfg.Interaction, logger, diag)

		probeErr := actor.Click(ctx, interaction.Selector(probeSelector))
		if probeErr != nil {
			logger.Warn("Probe interaction failed", zap.String("selector", probeSelector), zap.Error(probeErr))
		} else {
			logger.Info("Probe interaction succeeded", zap.String("selector", probeSelector))
		}

		if err := writeAttachments(diag, probeOutDir); err != nil {
			return err
		}
		return probeErr
	},
}

func writeAttachments(diag *diaglog.Logger, dir string) error {
	attachments, err := diag.ExportForReporting()
	if err != nil {
		return fmt.Errorf("exporting diagnostics: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	for _, att := range attachments {
		path := filepath.Join(dir, att.Name)
		if err := os.WriteFile(path, att.Content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	fmt.Fprintf(os.Stdout, "wrote %d diagnostic artifact(s) to %s\n", len(attachments), dir)
	return nil
}

func init() {
	probeCmd.Flags().StringVarP(&probeSelector, "selector", "s", "body", "CSS selector to interact with")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 2*time.Minute, "overall time budget for the probe")
	probeCmd.Flags().StringVarP(&probeOutDir, "out", "o", "./xwp-diagnostics", "directory for exported diagnostic artifacts")
	rootCmd.AddCommand(probeCmd)
}
