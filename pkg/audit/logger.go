// Package audit persists finalized interactions off the response-latency
// path: a bounded queue, a background worker, bounded retries, and a
// dead-letter list for records that exhaust them.
package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"contactiq-be/internal/pkg/logger"
	"contactiq-be/pkg/pipeline"

	"github.com/cenkalti/backoff/v4"
)

// ErrQueueFull is recorded when an enqueue hits the high-water mark.
var ErrQueueFull = errors.New("audit: queue full")

// Store is the durable side of the logger. InsertIfAbsent keyed on
// request_id is the sole idempotency guard: replays are no-ops.
type Store interface {
	InsertIfAbsent(ctx context.Context, interaction *pipeline.Interaction) (bool, error)
}

// Record is the queue envelope. Owned exclusively by the logger after
// handoff; the orchestrator never sees it.
type Record struct {
	RequestID    string                `json:"request_id"`
	Payload      *pipeline.Interaction `json:"payload"`
	AttemptCount int                   `json:"attempt_count"`
	NextRetryAt  time.Time             `json:"next_retry_at"`
	LastError    string                `json:"last_error,omitempty"`
}

// Config bounds the logger's memory and retry behavior.
type Config struct {
	// QueueSize is the high-water mark. Past it, records go straight to
	// the dead-letter list instead of growing the queue without bound.
	QueueSize int

	// MaxAttempts caps store attempts per record before dead-lettering.
	MaxAttempts uint64

	// InitialBackoff and MaxBackoff bound the jittered retry delays.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// StoreTimeout bounds one InsertIfAbsent call.
	StoreTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueSize:      256,
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		StoreTimeout:   5 * time.Second,
	}
}

// Logger drains the queue with a single background worker, so
// insert-if-absent stays the only idempotency guard needed.
type Logger struct {
	store  Store
	config Config
	logger logger.ILogger

	queue chan *Record

	mu          sync.Mutex
	deadLetters []*Record

	// onDeadLetter is invoked after a record is dead-lettered; used to
	// alert operators. Never called while holding the lock.
	onDeadLetter func(*Record)

	wg      sync.WaitGroup
	started bool
	stopped bool
}

func NewLogger(store Store, config Config, log logger.ILogger) *Logger {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	if config.StoreTimeout == 0 {
		config.StoreTimeout = 5 * time.Second
	}
	return &Logger{
		store:  store,
		config: config,
		logger: log,
		queue:  make(chan *Record, config.QueueSize),
	}
}

// OnDeadLetter registers the dead-letter callback. Must be called before
// Start.
func (l *Logger) OnDeadLetter(fn func(*Record)) {
	l.onDeadLetter = fn
}

// Start launches the background worker.
func (l *Logger) Start() {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	l.wg.Add(1)
	go l.drain()
}

// Stop closes the queue and waits for the worker to flush it.
func (l *Logger) Stop() {
	l.mu.Lock()
	if !l.started || l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	close(l.queue)
	l.mu.Unlock()

	l.wg.Wait()
}

// Enqueue hands an interaction to the logger. It never blocks: past the
// high-water mark the record is dead-lettered immediately rather than
// stalling the caller or growing memory during a store outage.
func (l *Logger) Enqueue(interaction *pipeline.Interaction) {
	if interaction == nil {
		return
	}

	record := &Record{
		RequestID: interaction.RequestID,
		Payload:   interaction,
	}

	// The send must happen under the same lock that guards Stop's close,
	// otherwise a concurrent Stop can close the queue between the stopped
	// check and the send.
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		l.deadLetter(record, errors.New("audit: logger stopped"))
		return
	}

	select {
	case l.queue <- record:
		l.mu.Unlock()
	default:
		l.mu.Unlock()
		l.logger.Warn("AUDIT", "Queue at high-water mark, dead-lettering record", map[string]interface{}{
			"request_id": record.RequestID,
		})
		l.deadLetter(record, ErrQueueFull)
	}
}

// DeadLetters returns a snapshot of the dead-letter list for
// reconciliation.
func (l *Logger) DeadLetters() []*Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Record, len(l.deadLetters))
	copy(out, l.deadLetters)
	return out
}

// QueueDepth reports how many records are waiting.
func (l *Logger) QueueDepth() int {
	return len(l.queue)
}

func (l *Logger) drain() {
	defer l.wg.Done()

	for record := range l.queue {
		l.persist(record)
	}
}

func (l *Logger) persist(record *Record) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.config.InitialBackoff
	bo.MaxInterval = l.config.MaxBackoff

	policy := backoff.WithMaxRetries(bo, l.config.MaxAttempts-1)

	op := func() error {
		record.AttemptCount++

		ctx, cancel := context.WithTimeout(context.Background(), l.config.StoreTimeout)
		defer cancel()

		inserted, err := l.store.InsertIfAbsent(ctx, record.Payload)
		if err != nil {
			record.LastError = err.Error()
			record.NextRetryAt = time.Now().Add(nominalDelay(l.config, record.AttemptCount))
			l.logger.Warn("AUDIT", "Store write failed, will retry", map[string]interface{}{
				"request_id": record.RequestID,
				"attempt":    record.AttemptCount,
				"error":      err.Error(),
			})
			return err
		}

		if !inserted {
			// Duplicate request_id: a caller retry already persisted this
			// interaction. Idempotent no-op.
			l.logger.Debug("AUDIT", "Duplicate record skipped", map[string]interface{}{
				"request_id": record.RequestID,
			})
		}
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		l.logger.Error("AUDIT", "Record exhausted retries, dead-lettering", map[string]interface{}{
			"request_id": record.RequestID,
			"attempts":   record.AttemptCount,
			"error":      err.Error(),
		})
		l.deadLetter(record, err)
		return
	}

	l.logger.Debug("AUDIT", "Record persisted", map[string]interface{}{
		"request_id": record.RequestID,
		"attempts":   record.AttemptCount,
	})
}

// nominalDelay is the un-jittered delay before the next attempt, recorded
// on the envelope for observability. The actual sleep is jittered by the
// backoff policy.
func nominalDelay(cfg Config, attempt int) time.Duration {
	delay := cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cfg.MaxBackoff {
			return cfg.MaxBackoff
		}
	}
	return delay
}

func (l *Logger) deadLetter(record *Record, err error) {
	record.LastError = err.Error()

	l.mu.Lock()
	l.deadLetters = append(l.deadLetters, record)
	l.mu.Unlock()

	if l.onDeadLetter != nil {
		l.onDeadLetter(record)
	}
}
