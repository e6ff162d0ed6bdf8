package retry

import (
	"context"
	"fmt"
	"time"
)

// Sleep waits for d or until ctx is done. Tests substitute an instant
// implementation.
type Sleep func(ctx context.Context, d time.Duration) error

// Wait is the default Sleep backed by a real timer.
func Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do invokes fn up to maxAttempts times total, sleeping a fixed delay
// between attempts. The delay is deliberately not exponential; the caller
// trades durability for responsiveness and gives up quickly.
func Do(ctx context.Context, maxAttempts int, delay time.Duration, sleep Sleep, fn func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if sleep == nil {
		sleep = Wait
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := fn(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < maxAttempts {
			if err := sleep(ctx, delay); err != nil {
				return fmt.Errorf("retry aborted: %w", err)
			}
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}
