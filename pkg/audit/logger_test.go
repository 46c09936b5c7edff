package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"contactiq-be/pkg/pipeline"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	mu       sync.Mutex
	inserted map[string]bool
	failures int // fail this many calls before succeeding
	calls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{inserted: map[string]bool{}}
}

func (s *fakeStore) InsertIfAbsent(ctx context.Context, interaction *pipeline.Interaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.failures > 0 {
		s.failures--
		return false, errors.New("connection reset")
	}
	if s.inserted[interaction.RequestID] {
		return false, nil
	}
	s.inserted[interaction.RequestID] = true
	return true, nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeStore) has(requestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserted[requestID]
}

func fastConfig() Config {
	return Config{
		QueueSize:      8,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		StoreTimeout:   time.Second,
	}
}

func interactionFor(requestID string) *pipeline.Interaction {
	return &pipeline.Interaction{
		RequestID: requestID,
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		QueryText: "q",
		Outcome:   pipeline.OutcomeResolved,
		CreatedAt: time.Now(),
	}
}

func TestLoggerPersistsEnqueuedRecords(t *testing.T) {
	store := newFakeStore()
	logger := NewLogger(store, fastConfig(), nil)
	logger.Start()

	logger.Enqueue(interactionFor("r1"))
	logger.Enqueue(interactionFor("r2"))
	logger.Stop()

	assert.True(t, store.has("r1"))
	assert.True(t, store.has("r2"))
	assert.Empty(t, logger.DeadLetters())
}

func TestLoggerDuplicateIsNoOp(t *testing.T) {
	store := newFakeStore()
	logger := NewLogger(store, fastConfig(), nil)
	logger.Start()

	logger.Enqueue(interactionFor("r1"))
	logger.Enqueue(interactionFor("r1"))
	logger.Stop()

	assert.True(t, store.has("r1"))
	// The duplicate neither errors nor dead-letters.
	assert.Empty(t, logger.DeadLetters())
	assert.Equal(t, 2, store.callCount())
}

func TestLoggerRetriesTransientFailures(t *testing.T) {
	store := newFakeStore()
	store.failures = 2
	logger := NewLogger(store, fastConfig(), nil)
	logger.Start()

	logger.Enqueue(interactionFor("r1"))
	logger.Stop()

	assert.True(t, store.has("r1"))
	assert.Equal(t, 3, store.callCount())
	assert.Empty(t, logger.DeadLetters())
}

func TestLoggerDeadLettersAfterExhaustedRetries(t *testing.T) {
	store := newFakeStore()
	store.failures = 100
	logger := NewLogger(store, fastConfig(), nil)

	var alerted []*Record
	logger.OnDeadLetter(func(record *Record) {
		alerted = append(alerted, record)
	})
	logger.Start()

	logger.Enqueue(interactionFor("r1"))
	logger.Stop()

	deadLetters := logger.DeadLetters()
	assert.Len(t, deadLetters, 1)
	assert.Equal(t, "r1", deadLetters[0].RequestID)
	assert.Equal(t, 3, deadLetters[0].AttemptCount)
	assert.NotEmpty(t, deadLetters[0].LastError)
	assert.Len(t, alerted, 1)
	assert.Equal(t, 3, store.callCount())
}

func TestLoggerEnqueueNeverBlocksWhenFull(t *testing.T) {
	store := newFakeStore()
	cfg := fastConfig()
	cfg.QueueSize = 2
	logger := NewLogger(store, cfg, nil)
	// Worker not started: the queue cannot drain.

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			logger.Enqueue(interactionFor(fmt.Sprintf("r%d", i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	// 2 queued, 8 dead-lettered with the queue-full marker.
	assert.Equal(t, 2, logger.QueueDepth())
	deadLetters := logger.DeadLetters()
	assert.Len(t, deadLetters, 8)
	assert.Equal(t, ErrQueueFull.Error(), deadLetters[0].LastError)
}

func TestLoggerEnqueueAfterStopDeadLetters(t *testing.T) {
	store := newFakeStore()
	logger := NewLogger(store, fastConfig(), nil)
	logger.Start()
	logger.Stop()

	logger.Enqueue(interactionFor("late"))
	assert.Len(t, logger.DeadLetters(), 1)
	assert.False(t, store.has("late"))
}

func TestLoggerEnqueueDuringStopNeverPanics(t *testing.T) {
	for round := 0; round < 200; round++ {
		store := newFakeStore()
		cfg := fastConfig()
		cfg.QueueSize = 1
		logger := NewLogger(store, cfg, nil)
		logger.Start()

		var wg sync.WaitGroup
		start := make(chan struct{})
		for g := 0; g < 16; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				<-start
				logger.Enqueue(interactionFor(fmt.Sprintf("r%d", g)))
			}(g)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			logger.Stop()
		}()

		close(start)
		wg.Wait()
		logger.Stop()

		// Every record either reached the store or the dead-letter list.
		total := len(store.inserted) + len(logger.DeadLetters())
		assert.Equal(t, 16, total)
	}
}

func TestNominalDelayDoublesUpToCap(t *testing.T) {
	cfg := Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 500 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, nominalDelay(cfg, 1))
	assert.Equal(t, 200*time.Millisecond, nominalDelay(cfg, 2))
	assert.Equal(t, 400*time.Millisecond, nominalDelay(cfg, 3))
	assert.Equal(t, 500*time.Millisecond, nominalDelay(cfg, 4))
	assert.Equal(t, 500*time.Millisecond, nominalDelay(cfg, 5))
}
