// Package worker drains the durable-write queue into the persistence store.
//
// A failed write is retried with exponential backoff; a write abandoned
// after the retry budget marks the pipeline degraded. The in-memory
// authoritative state is never rolled back on persistence failure.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pathwise/bandit/internal/adapters/mq/queue"
	"github.com/pathwise/bandit/internal/adapters/store"
	"github.com/pathwise/bandit/pkg/logger"
	"github.com/pathwise/bandit/pkg/metrics"
)

// Default writer configuration constants.
const (
	defaultWriterCount = 2
	defaultMaxRetries  = 5
	defaultBackoff     = 100 * time.Millisecond
	shutdownTimeout    = 10 * time.Second
)

// Pool manages the persistence writer goroutines.
type Pool struct {
	queue   queue.Queue
	store   store.Store
	writers int

	maxRetries int
	backoff    time.Duration

	degraded atomic.Bool

	// Shutdown control
	wg       sync.WaitGroup
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWriterCount sets the number of writer goroutines.
func WithWriterCount(count int) Option {
	return func(p *Pool) {
		if count > 0 {
			p.writers = count
		}
	}
}

// WithRetryPolicy sets the retry budget and initial backoff per job.
func WithRetryPolicy(maxRetries int, backoff time.Duration) Option {
	return func(p *Pool) {
		if maxRetries >= 0 {
			p.maxRetries = maxRetries
		}
		if backoff > 0 {
			p.backoff = backoff
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPool creates a writer pool draining q into st.
func NewPool(q queue.Queue, st store.Store, opts ...Option) *Pool {
	p := &Pool{
		queue:      q,
		store:      st,
		writers:    defaultWriterCount,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		shutdown:   make(chan struct{}),
		logger:     logger.Get().Named("persist"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start launches the writer goroutines.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.writers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
}

// run is one writer loop; it exits when the queue closes or ctx is done.
func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()

	jobs := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			p.process(ctx, job)
		}
	}
}

// process writes one job, retrying transient failures with backoff.
func (p *Pool) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	err := p.writeWithRetry(ctx, job)
	metrics.RecordPersistenceWriteLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		p.setDegraded(true)
		metrics.RecordPersistenceFailure()
		p.logger.Error(ctx, "durable write abandoned",
			logger.Int("max_retries", p.maxRetries),
			logger.Error(err),
		)
		return
	}

	p.setDegraded(false)
	metrics.RecordPersistenceWrite()
}

// writeWithRetry attempts the job until it succeeds or the budget runs out.
func (p *Pool) writeWithRetry(ctx context.Context, job queue.Job) error {
	backoff := p.backoff
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordPersistenceRetry()
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fmt.Errorf("write canceled: %w", ctx.Err())
			}
			backoff *= 2
		}
		if lastErr = p.write(ctx, job); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// write persists the job's arm snapshot and outcome record.
func (p *Pool) write(ctx context.Context, job queue.Job) error {
	if job.Arm != nil {
		if err := p.store.SaveArm(ctx, *job.Arm); err != nil {
			return fmt.Errorf("save arm: %w", err)
		}
	}
	if job.Outcome != nil {
		if err := p.store.SaveOutcome(ctx, *job.Outcome); err != nil {
			return fmt.Errorf("save outcome: %w", err)
		}
	}
	return nil
}

func (p *Pool) setDegraded(v bool) {
	if p.degraded.Swap(v) != v {
		metrics.UpdatePersistenceDegraded(v)
	}
}

// Degraded reports whether the last write attempt exhausted its retries.
func (p *Pool) Degraded() bool {
	return p.degraded.Load()
}

// Shutdown closes the queue and waits for in-flight writes to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(shutdownTimeout):
		close(p.shutdown)
		return fmt.Errorf("writer pool shutdown timed out")
	}
}
