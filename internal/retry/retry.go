// Package retry provides the single retry-with-backoff combinator shared by
// the recognition and upload collaborators.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a bounded linear-backoff retry schedule: attempt n waits
// n × BaseDelay before running (the first attempt runs immediately).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Do runs op until it succeeds, the attempt budget is spent, or the context
// is canceled. The returned error is the last attempt's error.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * policy.BaseDelay
			if err := Sleep(ctx, delay); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = op(ctx); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// Sleep waits for the given duration or until the context is canceled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
