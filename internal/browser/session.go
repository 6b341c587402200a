// internal/browser/session.go
// Session wraps a single chromedp tab. It exposes the low-level primitives the
// interaction layer builds on: RunActions for batched CDP actions with proper
// context combination, and Eval for one-shot JavaScript evaluation.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zahraakhalili20/xwp-automation/internal/config"
)

// Session represents one isolated browser tab.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	onClose   func()
	closeOnce sync.Once
}

func newSession(allocatorCtx context.Context, logger *zap.Logger, cfg *config.Config) *Session {
	id := uuid.New().String()
	ctx, cancel := chromedp.NewContext(allocatorCtx)
	return &Session{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		logger: logger.Named("session").With(zap.String("session_id", id)),
		cfg:    cfg,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Context returns the session's chromedp context. It carries the CDP target
// values and must be used for any raw chromedp.Run call.
func (s *Session) Context() context.Context { return s.ctx }

// Close tears the tab down. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
	})
	return nil
}

// RunActions executes chromedp actions against this session's tab, bounded by
// the operational context. The session context supplies the CDP target; the
// operational context supplies the deadline.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("session is closed: %w", err)
	}
	combined, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	err := chromedp.Run(combined, actions...)
	if err != nil {
		// Report whichever context caused the failure; chromedp's own error
		// for a dying combined context is uninformative.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.ctx.Err() != nil {
			return fmt.Errorf("session is closed: %w", s.ctx.Err())
		}
	}
	return err
}

// Eval evaluates a JavaScript expression and unmarshals the result into out.
// Pass nil to discard the result. Promises are awaited; page exceptions are
// surfaced as errors rather than logged to the page console.
func (s *Session) Eval(ctx context.Context, script string, out any) error {
	var raw json.RawMessage
	err := s.RunActions(ctx, chromedp.Evaluate(script, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}))
	if err != nil {
		return err
	}
	if out == nil || string(raw) == "null" || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal evaluation result: %w (payload: %s)", err, string(raw))
	}
	return nil
}

// Navigate loads the URL and waits for the page to settle: document readyState
// complete, then the configured post-load quiet period.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating session.", zap.String("url", url))

	navTimeout := s.cfg.Browser.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 60 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, navTimeout)
	defer cancel()

	if err := s.RunActions(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation to %s timed out after %v: %w", url, navTimeout, navCtx.Err())
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	if err := s.awaitReadyState(navCtx); err != nil {
		// Non-fatal unless the context died: some pages never report complete.
		if navCtx.Err() != nil || ctx.Err() != nil {
			return err
		}
		s.logger.Warn("Page did not reach readyState complete (non-critical).", zap.Error(err))
	}

	if quiet := s.cfg.Browser.PostLoadWait; quiet > 0 {
		if err := s.Sleep(ctx, quiet); err != nil {
			return err
		}
	}

	s.logger.Debug("Navigation complete.", zap.String("url", url))
	return nil
}

// awaitReadyState polls until document.readyState is complete.
func (s *Session) awaitReadyState(ctx context.Context) error {
	for {
		var state string
		if err := s.Eval(ctx, `document.readyState`, &state); err != nil {
			return err
		}
		if state == "complete" {
			return nil
		}
		if err := s.Sleep(ctx, 100*time.Millisecond); err != nil {
			return err
		}
	}
}

// CurrentURL returns the page's current location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.Eval(ctx, `window.location.href`, &url); err != nil {
		return "", fmt.Errorf("failed to read current URL: %w", err)
	}
	return url, nil
}

// Title returns the page title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.Eval(ctx, `document.title`, &title); err != nil {
		return "", fmt.Errorf("failed to read page title: %w", err)
	}
	return title, nil
}

// Sleep pauses for d, respecting both the operational and session contexts.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return fmt.Errorf("session is closed: %w", s.ctx.Err())
	}
}
