package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  20 * time.Millisecond,
		SuccessThreshold: 2,
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("gateway", testBreakerConfig())
	assert.Equal(t, StateClosed, b.State())

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("gateway", testBreakerConfig())

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenProbeAndRecovery(t *testing.T) {
	b := NewBreaker("gateway", testBreakerConfig())

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, StateOpen, b.State())

	time.Sleep(25 * time.Millisecond)

	// Cooldown elapsed: the next check admits a probe.
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, StateHalfOpen, b.State())
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenProbeFailureReopens(t *testing.T) {
	b := NewBreaker("gateway", testBreakerConfig())

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	time.Sleep(25 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerReset(t *testing.T) {
	b := NewBreaker("gateway", testBreakerConfig())

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestCallThroughAggregatesRetriesIntoOneObservation(t *testing.T) {
	b := NewBreaker("gateway", testBreakerConfig())
	cfg := RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

	calls := 0
	err := CallThrough(context.Background(), b, cfg, func() error {
		calls++
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)

	// Three attempts, one breaker failure.
	assert.Equal(t, 1, b.Stats().Failures)
	assert.Equal(t, StateClosed, b.State())
}

func TestCallThroughSuccessAfterRetry(t *testing.T) {
	b := NewBreaker("gateway", testBreakerConfig())
	cfg := RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

	calls := 0
	err := CallThrough(context.Background(), b, cfg, func() error {
		calls++
		if calls < 2 {
			return errors.New("boom")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, b.Stats().Failures)
}

func TestCallThroughRejectsWhenOpen(t *testing.T) {
	b := NewBreaker("gateway", testBreakerConfig())
	cfg := RetryConfig{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

	for i := 0; i < 3; i++ {
		_ = CallThrough(context.Background(), b, cfg, func() error {
			return errors.New("boom")
		})
	}
	assert.Equal(t, StateOpen, b.State())

	calls := 0
	err := CallThrough(context.Background(), b, cfg, func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, calls)
}

func TestCallThroughPermanentErrorStopsRetrying(t *testing.T) {
	b := NewBreaker("gateway", testBreakerConfig())
	cfg := RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

	calls := 0
	err := CallThrough(context.Background(), b, cfg, func() error {
		calls++
		return Permanent(errors.New("bad request"))
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCallThroughContextCancellation(t *testing.T) {
	b := NewBreaker("gateway", testBreakerConfig())
	cfg := RetryConfig{MaxAttempts: 10, InitialInterval: 50 * time.Millisecond, MaxInterval: 50 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	calls := 0
	err := CallThrough(ctx, b, cfg, func() error {
		calls++
		return errors.New("boom")
	})
	assert.Error(t, err)
	// The deadline fires during the first backoff sleep.
	assert.Equal(t, 1, calls)
}
