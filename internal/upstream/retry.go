package upstream

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RetryPolicy controls backoff for transient upstream failures: the delay
// before attempt n+1 is BaseDelay scaled by Multiplier^(n-1), up to
// MaxAttempts total attempts.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64

	// Sleep replaces the real timer wait in tests. Nil means wait on a
	// timer, aborting on context cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy is three attempts, one second base delay, doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}
}

// Delay returns the wait after the given 1-based failed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
	}
	return time.Duration(d)
}

func (p RetryPolicy) wait(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn until it succeeds or the attempt budget is spent. The last
// error is wrapped in the returned exhaustion error; a cancelled context
// aborts the backoff wait immediately.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			if attempt < attempts {
				d := p.Delay(attempt)
				log.Printf("[WARN] %s failed (attempt %d/%d): %v, retrying in %v", op, attempt, attempts, err, d)
				if werr := p.wait(ctx, d); werr != nil {
					return werr
				}
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("%s: all %d attempts exhausted: %w", op, attempts, lastErr)
}
