package reminders

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/logger"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/metrics"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/saved"
)

var april15 = civil.Date{Year: 2026, Month: time.April, Day: 15}

func schedule(id, owner string, day int) saved.ScheduledBill {
	return saved.ScheduledBill{
		ID:                    id,
		OwnerID:               owner,
		ProviderName:          "Maynilad",
		Category:              domain.CategoryWater,
		AccountOrMobileNumber: "1234567890",
		Amount:                decimal.RequireFromString("450"),
		DayOfMonth:            day,
		Active:                true,
	}
}

func noBackoff(int) time.Duration { return 0 }

func startQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = q.Close()
	})
}

func waitFor(t *testing.T, s *Store, id string, status Status) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		var err error
		job, err = s.Get(context.Background(), id)
		return err == nil && job.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestJobID(t *testing.T) {
	assert.Equal(t, "sched-1@2026-04-15", JobID("sched-1", april15))

	job := NewJob(schedule("sched-1", "owner-1", 15), april15)
	assert.Equal(t, "sched-1@2026-04-15", job.ID)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, "450", job.Amount.String())
}

func TestStore_CreateOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	created, err := s.Create(ctx, NewJob(schedule("a", "owner-1", 15), april15))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Create(ctx, NewJob(schedule("a", "owner-1", 15), april15))
	require.NoError(t, err)
	assert.False(t, created)

	_, err = s.Create(ctx, &Job{})
	assert.Error(t, err)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	may15 := civil.Date{Year: 2026, Month: time.May, Day: 15}
	for _, job := range []*Job{
		NewJob(schedule("a", "owner-1", 15), april15),
		NewJob(schedule("a", "owner-1", 15), may15),
		NewJob(schedule("b", "owner-1", 15), april15),
		NewJob(schedule("c", "owner-2", 15), april15),
	} {
		require.NoError(t, s.Save(ctx, job))
	}
	sent, err := s.Get(ctx, JobID("b", april15))
	require.NoError(t, err)
	sent.Status = StatusSent
	require.NoError(t, s.Save(ctx, &sent))

	ids := func(jobs []Job) []string {
		out := make([]string, len(jobs))
		for i, j := range jobs {
			out[i] = j.ID
		}
		return out
	}

	assert.Equal(t, []string{"a@2026-05-15", "a@2026-04-15", "b@2026-04-15"},
		ids(s.List(ctx, Filter{OwnerID: "owner-1"})))
	assert.Equal(t, []string{"b@2026-04-15"}, ids(s.List(ctx, Filter{Status: StatusSent})))
	assert.Equal(t, []string{"a@2026-04-15"}, ids(s.List(ctx, Filter{OwnerID: "owner-1", Offset: 1, Limit: 1})))
	assert.Empty(t, s.List(ctx, Filter{Offset: 10}))
}

func TestQueue_RetriesUntilSent(t *testing.T) {
	store := NewStore()
	m := metrics.New()

	var calls atomic.Int32
	notifier := NotifierFunc(func(ctx context.Context, job Job) error {
		if calls.Add(1) <= 2 {
			return errors.New("gateway unavailable")
		}
		return nil
	})
	q := NewQueue(4, store, notifier, WithBackoff(noBackoff), WithQueueMetrics(m))
	startQueue(t, q)

	job := NewJob(schedule("a", "owner-1", 15), april15)
	require.NoError(t, q.Publish(context.Background(), job))

	got := waitFor(t, store, job.ID, StatusSent)
	assert.Equal(t, 2, got.RetryCount)
	assert.Equal(t, defaultMaxRetries, got.MaxRetries)
	assert.Empty(t, got.Error)
	assert.False(t, got.CreatedAt.IsZero())
	require.NotNil(t, got.CompletedAt)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Reminders.WithLabelValues(metrics.OutcomeRetry)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reminders.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestQueue_GivesUp(t *testing.T) {
	store := NewStore()
	notifier := NotifierFunc(func(ctx context.Context, job Job) error {
		return errors.New("no route to owner")
	})
	q := NewQueue(4, store, notifier, WithBackoff(noBackoff), WithMaxRetries(1), WithWorkers(1))
	startQueue(t, q)

	job := NewJob(schedule("a", "owner-1", 15), april15)
	require.NoError(t, q.Publish(context.Background(), job))

	got := waitFor(t, store, job.ID, StatusFailed)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, "no route to owner", got.Error)
}

func TestQueue_Closed(t *testing.T) {
	q := NewQueue(1, NewStore(), LogNotifier(zerolog.Nop()))
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	err := q.Publish(context.Background(), NewJob(schedule("a", "owner-1", 15), april15))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, q.Start(context.Background()), ErrClosed)
}

func TestDispatcher_Scan(t *testing.T) {
	ctx := context.Background()
	schedules := saved.NewStore()

	due, err := schedules.AddSchedule(ctx, schedule("", "owner-1", 15))
	require.NoError(t, err)
	_, err = schedules.AddSchedule(ctx, schedule("", "owner-1", 16))
	require.NoError(t, err)
	paused, err := schedules.AddSchedule(ctx, schedule("", "owner-2", 15))
	require.NoError(t, err)
	_, err = schedules.ToggleSchedule(ctx, "owner-2", paused.ID)
	require.NoError(t, err)

	delivered := make(chan Job, 4)
	store := NewStore()
	q := NewQueue(4, store, NotifierFunc(func(ctx context.Context, job Job) error {
		delivered <- job
		return nil
	}))
	startQueue(t, q)

	d := NewDispatcher(schedules, store, q, time.Hour, zerolog.Nop())
	d.now = func() time.Time { return time.Date(2026, time.April, 15, 9, 0, 0, 0, time.UTC) }

	n, err := d.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = d.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "one reminder per schedule per day")

	select {
	case job := <-delivered:
		assert.Equal(t, due.ID, job.ScheduleID)
		assert.Equal(t, april15, job.DueDate)
	case <-time.After(2 * time.Second):
		t.Fatal("reminder was not delivered")
	}

	waitFor(t, store, JobID(due.ID, april15), StatusSent)
	assert.Len(t, d.List(ctx, Filter{OwnerID: "owner-1"}), 1)
	assert.Empty(t, d.List(ctx, Filter{OwnerID: "owner-2"}))
}

func TestDispatcher_RunStopsWithContext(t *testing.T) {
	schedules := saved.NewStore()
	store := NewStore()
	q := NewQueue(1, store, LogNotifier(zerolog.Nop()))
	d := NewDispatcher(schedules, store, q, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.ErrorIs(t, q.Publish(context.Background(), &Job{ID: "late"}), ErrClosed)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier(logger.NewWithWriter(&buf))

	require.NoError(t, n.Notify(context.Background(), *NewJob(schedule("a", "owner-1", 15), april15)))

	out := buf.String()
	assert.Contains(t, out, "Bill due")
	assert.Contains(t, out, "******7890")
	assert.Contains(t, out, "450.00")
	assert.NotContains(t, out, "1234567890")
}
