package encoder

import (
	"context"
	"time"
)

// retryPolicy bounds repeated attempts against a flaky embedding API: a
// fixed attempt budget with a capped, multiplicatively growing delay
// between attempts.
type retryPolicy struct {
	attempts   int
	baseDelay  time.Duration
	maxDelay   time.Duration
	multiplier float64
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		attempts:   MaxRetries,
		baseDelay:  time.Duration(InitialBackoffMs) * time.Millisecond,
		maxDelay:   time.Duration(MaxBackoffMs) * time.Millisecond,
		multiplier: BackoffMultiplier,
	}
}

// withRetry runs fn until it succeeds, the attempt budget runs out, or ctx
// is done. Context cancellation wins over a pending retry, so the per-call
// timeout the caller sets bounds total time spent here.
func withRetry[T any](ctx context.Context, p retryPolicy, fn func() (T, error)) (T, error) {
	var zero T
	delay := p.baseDelay

	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt >= p.attempts {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * p.multiplier)
		if delay > p.maxDelay {
			delay = p.maxDelay
		}
	}
}
