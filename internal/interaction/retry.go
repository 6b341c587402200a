// internal/interaction/retry.go
package interaction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy controls how many times an operation is attempted and how the
// delays between attempts grow.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay seeds the exponential backoff applied from the second retry on.
	BaseDelay time.Duration
	// FirstRetryDelay is the fixed short pause before the first retry, sized
	// for transient conditions like animations or late event handler binding.
	FirstRetryDelay time.Duration
}

// Retrier runs operations under a RetryPolicy, failing fast on errors that
// Recoverable classifies as structural.
type Retrier struct {
	policy RetryPolicy
	logger *zap.Logger
}

func NewRetrier(policy RetryPolicy, logger *zap.Logger) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{policy: policy, logger: logger}
}

// Do runs op until it succeeds, exhausts the attempt budget, fails with an
// unrecoverable error, or ctx is done. The first attempt carries no delay and
// a first-attempt success produces no retry logging at all.
func (r *Retrier) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := r.delayBefore(attempt)
			r.logger.Warn("Retrying operation",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", r.policy.MaxAttempts),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s aborted during retry backoff: %w", name, ctx.Err())
			}
		}

		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("Operation succeeded after retry",
					zap.String("operation", name),
					zap.Int("attempt", attempt),
					zap.Duration("elapsed", time.Since(start)))
			}
			return nil
		}
		lastErr = err

		if !Recoverable(err) {
			r.logger.Debug("Operation failed with unrecoverable error",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return fmt.Errorf("%s failed after %d attempt(s) in %s: %w",
				name, attempt, time.Since(start).Round(time.Millisecond), err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s aborted: %w", name, ctx.Err())
		}
	}
	return fmt.Errorf("%s failed after %d attempt(s) in %s: %w",
		name, r.policy.MaxAttempts, time.Since(start).Round(time.Millisecond), lastErr)
}

// delayBefore returns the pause preceding the given attempt number.
// Attempt 2 uses the fixed FirstRetryDelay; later attempts back off
// exponentially from BaseDelay.
func (r *Retrier) delayBefore(attempt int) time.Duration {
	if attempt <= 2 {
		return r.policy.FirstRetryDelay
	}
	d := r.policy.BaseDelay
	for i := 0; i < attempt-3; i++ {
		d *= 2
	}
	return d
}
