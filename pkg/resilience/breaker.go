// Package resilience guards calls to unreliable upstream gateways with
// circuit breakers and bounded retries.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a call is rejected because the breaker
// for that gateway is open.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// BreakerState represents the state of a circuit breaker.
type BreakerState int

const (
	// StateClosed is the normal operating state - requests flow through.
	StateClosed BreakerState = iota
	// StateOpen means the circuit has tripped - requests are rejected.
	StateOpen
	// StateHalfOpen is the testing state - probe requests allowed to test recovery.
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the circuit breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening the circuit.
	FailureThreshold int

	// RecoveryTimeout is how long to wait before trying to recover (half-open).
	RecoveryTimeout time.Duration

	// SuccessThreshold is the number of successes in half-open state before closing.
	SuccessThreshold int

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(name string, from, to BreakerState)
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 2,
	}
}

// Breaker provides fault tolerance for one external gateway. When the
// gateway fails repeatedly, the circuit opens and calls are rejected
// immediately until a cooldown elapses.
//
// Usage:
//
//	b := NewBreaker("generation", DefaultBreakerConfig())
//
//	if b.Allow() {
//	    err := call()
//	    if err != nil {
//	        b.RecordFailure()
//	    } else {
//	        b.RecordSuccess()
//	    }
//	} else {
//	    // Circuit is open, use fallback
//	}
type Breaker struct {
	name   string
	config BreakerConfig
	mu     sync.RWMutex

	state           BreakerState
	failures        int
	lastFailureTime time.Time
	lastStateChange time.Time
	consecutiveSucc int // Consecutive successes in half-open state
}

// NewBreaker creates a circuit breaker for a named gateway.
func NewBreaker(name string, config BreakerConfig) *Breaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 3
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 2
	}

	return &Breaker{
		name:            name,
		config:          config,
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
}

// Allow checks if a request should be allowed through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true

	case StateOpen:
		if time.Since(b.lastStateChange) >= b.config.RecoveryTimeout {
			b.transitionTo(StateHalfOpen)
			return true // Allow a probe request
		}
		return false

	case StateHalfOpen:
		return true

	default:
		return false
	}
}

// RecordSuccess records a successful request.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0

	if b.state == StateHalfOpen {
		b.consecutiveSucc++
		if b.consecutiveSucc >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

// RecordFailure records a failed request.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.consecutiveSucc = 0
	b.lastFailureTime = time.Now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.config.FailureThreshold {
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		// Probe failed, reopen the circuit
		b.transitionTo(StateOpen)
	}
}

// State returns the current circuit state.
func (b *Breaker) State() BreakerState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Stats returns a snapshot for diagnostics.
func (b *Breaker) Stats() BreakerStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BreakerStats{
		Name:            b.name,
		State:           b.state.String(),
		Failures:        b.failures,
		LastFailure:     b.lastFailureTime,
		LastStateChange: b.lastStateChange,
	}
}

// BreakerStats contains circuit breaker statistics.
type BreakerStats struct {
	Name            string    `json:"name"`
	State           string    `json:"state"`
	Failures        int       `json:"failures"`
	LastFailure     time.Time `json:"last_failure,omitempty"`
	LastStateChange time.Time `json:"last_state_change"`
}

// transitionTo changes the circuit state (must hold lock).
func (b *Breaker) transitionTo(newState BreakerState) {
	if b.state == newState {
		return
	}

	oldState := b.state
	b.state = newState
	b.lastStateChange = time.Now()

	if newState == StateClosed {
		b.failures = 0
		b.consecutiveSucc = 0
	}

	if b.config.OnStateChange != nil {
		// Call callback without holding lock
		go b.config.OnStateChange(b.name, oldState, newState)
	}
}

// Reset forces the circuit to closed state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.transitionTo(StateClosed)
}
