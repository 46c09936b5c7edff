package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds the retry loop around one gateway call.
type RetryConfig struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig matches the gateway defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// CallThrough runs op behind the breaker with bounded exponential backoff.
// The breaker sees one aggregate result per call: a success on the first
// attempt that succeeds, a failure only when every attempt is exhausted.
// Context cancellation stops the retry loop immediately.
func CallThrough(ctx context.Context, b *Breaker, cfg RetryConfig, op func() error) error {
	if !b.Allow() {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, b.name)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval

	var policy backoff.BackOff = backoff.WithContext(bo, ctx)
	if cfg.MaxAttempts > 0 {
		policy = backoff.WithMaxRetries(policy, cfg.MaxAttempts-1)
	}

	err := backoff.Retry(op, policy)
	if err != nil {
		b.RecordFailure()
		return err
	}

	b.RecordSuccess()
	return nil
}

// Permanent marks an error as non-retryable inside a CallThrough op.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
