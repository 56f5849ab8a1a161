package reminders

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/logger"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/saved"
)

// Dispatcher scans the saved schedules and publishes a reminder for each
// one falling due today.
type Dispatcher struct {
	schedules *saved.Store
	store     *Store
	queue     *Queue
	interval  time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher that scans every interval.
func NewDispatcher(schedules *saved.Store, store *Store, queue *Queue, interval time.Duration, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		schedules: schedules,
		store:     store,
		queue:     queue,
		interval:  interval,
		now:       time.Now,
		log:       log,
	}
}

// Scan publishes the reminders due today that were not published yet and
// returns how many it published.
func (d *Dispatcher) Scan(ctx context.Context) (int, error) {
	now := d.now()
	today := civil.DateOf(now)

	published := 0
	for _, owner := range d.schedules.Owners(ctx) {
		for _, b := range d.schedules.Due(ctx, owner, now) {
			job := NewJob(b, today)
			created, err := d.store.Create(ctx, job)
			if err != nil {
				return published, fmt.Errorf("Scan: %w", err)
			}
			if !created {
				continue
			}
			if err := d.queue.Publish(ctx, job); err != nil {
				return published, fmt.Errorf("Scan: %w", err)
			}
			published++
		}
	}
	return published, nil
}

// Run starts the queue and scans until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.queue.Start(ctx); err != nil {
		return fmt.Errorf("Run: %w", err)
	}
	defer d.queue.Close()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info().Dur("interval", d.interval).Msg("Reminder dispatcher started")
	for {
		n, err := d.Scan(ctx)
		switch {
		case err != nil:
			d.log.Error().Err(err).Msg("Reminder scan failed")
		case n > 0:
			d.log.Info().Int("published", n).Msg("Reminders published")
		}

		select {
		case <-ctx.Done():
			d.log.Info().Msg("Reminder dispatcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// List returns the stored reminders matching f.
func (d *Dispatcher) List(ctx context.Context, f Filter) []Job {
	return d.store.List(ctx, f)
}

// LogNotifier writes each reminder to log. It is the notifier used when
// no delivery channel is configured.
func LogNotifier(log zerolog.Logger) Notifier {
	return NotifierFunc(func(ctx context.Context, job Job) error {
		log.Info().
			Str("reminder_id", job.ID).
			Str("owner_id", job.OwnerID).
			Str("provider", job.ProviderName).
			Str("account", logger.MaskAccount(job.AccountOrMobileNumber)).
			Str("amount", amount.Format(job.Amount)).
			Str("due_date", job.DueDate.String()).
			Msg("Bill due")
		return nil
	})
}
