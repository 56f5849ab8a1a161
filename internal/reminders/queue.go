package reminders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/metrics"
)

const (
	defaultWorkers    = 2
	defaultMaxRetries = 3
)

// Queue delivers reminder jobs to a Notifier on a pool of workers. Failed
// jobs are re-enqueued with a linear backoff until MaxRetries is reached.
// It runs in process, so pending jobs are lost on restart.
type Queue struct {
	jobs    chan *Job
	closeCh chan struct{}
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool

	store      *Store
	notifier   Notifier
	workers    int
	maxRetries int
	backoff    func(attempt int) time.Duration
	now        func() time.Time
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithMaxRetries sets how often a failed job is retried.
func WithMaxRetries(n int) QueueOption {
	return func(q *Queue) {
		if n >= 0 {
			q.maxRetries = n
		}
	}
}

// WithBackoff sets the delay before retry number attempt.
func WithBackoff(fn func(attempt int) time.Duration) QueueOption {
	return func(q *Queue) { q.backoff = fn }
}

// WithQueueMetrics counts delivery outcomes on m.
func WithQueueMetrics(m *metrics.Metrics) QueueOption {
	return func(q *Queue) { q.metrics = m }
}

// WithQueueLogger sets the logger.
func WithQueueLogger(log zerolog.Logger) QueueOption {
	return func(q *Queue) { q.log = log }
}

// NewQueue creates a queue holding up to bufferSize undelivered jobs.
func NewQueue(bufferSize int, store *Store, notifier Notifier, opts ...QueueOption) *Queue {
	q := &Queue{
		jobs:       make(chan *Job, bufferSize),
		closeCh:    make(chan struct{}),
		store:      store,
		notifier:   notifier,
		workers:    defaultWorkers,
		maxRetries: defaultMaxRetries,
		backoff:    func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		now:        time.Now,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Publish enqueues job. It blocks while the buffer is full.
func (q *Queue) Publish(ctx context.Context, job *Job) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	if job.Status == "" {
		job.Status = StatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = q.now().UTC()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.maxRetries
	}
	if err := q.store.Save(ctx, job); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}

	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeCh:
		return ErrClosed
	}
}

// Start launches the workers. They run until ctx is done or Stop is called.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.log.Info().Int("workers", q.workers).Msg("Reminder queue started")
	return nil
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeCh:
			return
		case job := <-q.jobs:
			q.process(ctx, job)
		}
	}
}

func (q *Queue) process(ctx context.Context, job *Job) {
	started := q.now().UTC()
	job.Status = StatusRunning
	job.StartedAt = &started
	q.save(ctx, job)

	err := q.notifier.Notify(ctx, *job)

	completed := q.now().UTC()
	job.CompletedAt = &completed

	retry := false
	switch {
	case err == nil:
		job.Status = StatusSent
		job.Error = ""
		q.count(metrics.OutcomeSuccess)
	case job.RetryCount < job.MaxRetries:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = StatusRetrying
		retry = true
		q.count(metrics.OutcomeRetry)
		q.log.Warn().Err(err).
			Str("reminder_id", job.ID).
			Int("retry", job.RetryCount).
			Msg("Reminder failed, retrying")
	default:
		job.Error = err.Error()
		job.Status = StatusFailed
		q.count(metrics.OutcomeFailure)
		q.log.Error().Err(err).Str("reminder_id", job.ID).Msg("Reminder failed")
	}
	q.save(ctx, job)

	if retry {
		next := *job
		time.AfterFunc(q.backoff(next.RetryCount), func() {
			next.Status = StatusPending
			next.StartedAt = nil
			next.CompletedAt = nil
			if err := q.Publish(ctx, &next); err != nil {
				next.Status = StatusFailed
				next.Error = err.Error()
				q.save(context.WithoutCancel(ctx), &next)
			}
		})
	}
}

func (q *Queue) save(ctx context.Context, job *Job) {
	if err := q.store.Save(ctx, job); err != nil {
		q.log.Error().Err(err).Str("reminder_id", job.ID).Msg("Failed to save reminder state")
	}
}

func (q *Queue) count(outcome string) {
	if q.metrics != nil {
		q.metrics.Reminders.WithLabelValues(outcome).Inc()
	}
}

// Stop closes the queue and waits for in-flight deliveries.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeCh)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue without a deadline.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}
