package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy bounds how often and how patiently an upstream call is retried.
type RetryPolicy struct {
	Attempts  int           // total attempts, including the first
	BaseDelay time.Duration // wait before the second attempt; doubles afterwards
}

const (
	DefaultAttempts  = 2
	DefaultBaseDelay = time.Second
)

// DefaultRetryPolicy is two attempts with a one second pause.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultAttempts, BaseDelay: DefaultBaseDelay}
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Delay returns the wait before attempt n (1-based). The first attempt does not wait.
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 2 || p.BaseDelay <= 0 {
		return 0
	}
	return p.BaseDelay << uint(n-2)
}

// MaxWait is the total time spent waiting if every attempt fails.
func (p RetryPolicy) MaxWait() time.Duration {
	var total time.Duration
	for n := 2; n <= p.attempts(); n++ {
		total += p.Delay(n)
	}
	return total
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the real Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// Retry runs op under policy p. It returns the value, the number of attempts
// made and the last error. Waiting stops early when ctx is cancelled.
func Retry[T any](ctx context.Context, p RetryPolicy, sleep Sleeper, log zerolog.Logger, op func(ctx context.Context) (T, error)) (T, int, error) {
	var zero T
	if sleep == nil {
		sleep = SleepContext
	}
	total := p.attempts()

	var lastErr error
	for n := 1; n <= total; n++ {
		if n > 1 {
			wait := p.Delay(n)
			log.Warn().Err(lastErr).
				Int("attempt", n-1).
				Dur("wait", wait).
				Msg("Upstream call failed, retrying")
			if err := sleep(ctx, wait); err != nil {
				return zero, n - 1, fmt.Errorf("retry aborted: %w: %w", err, lastErr)
			}
		}
		v, err := op(ctx)
		if err == nil {
			return v, n, nil
		}
		lastErr = err
	}

	log.Error().Err(lastErr).Int("attempts", total).Msg("Upstream call failed")
	return zero, total, fmt.Errorf("failed after %d attempts: %w", total, lastErr)
}
