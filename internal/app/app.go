// Package app wires configuration into a running payment workflow.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/catalog"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/config"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/confirmation"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/fee"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/gcsuploader"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/handoff"
	infra "github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/infra/bigquery"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/metrics"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/receipt"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/reminders"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/saved"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/validation"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/workflow"
)

// App holds the long-lived pieces shared by the commands.
type App struct {
	Config  config.Config
	Machine *workflow.Machine
	Store   *saved.Store
	Metrics *metrics.Metrics

	// Reminders raises notices for due scheduled bills once Run is called.
	Reminders *reminders.Dispatcher

	closers []func() error
}

// Option adjusts how New builds the App.
type Option func(*options)

type options struct {
	renderers []receipt.Renderer
	confirmer confirmation.Confirmer
	notifier  reminders.Notifier
}

// WithRenderer adds a receipt renderer next to the configured ones.
func WithRenderer(r receipt.Renderer) Option {
	return func(o *options) { o.renderers = append(o.renderers, r) }
}

// WithConfirmer replaces the configured confirmer.
func WithConfirmer(c confirmation.Confirmer) Option {
	return func(o *options) { o.confirmer = c }
}

// WithNotifier replaces the logging reminder notifier.
func WithNotifier(n reminders.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// reminderBuffer bounds the reminders waiting for a worker.
const reminderBuffer = 64

// New builds the App described by cfg.
//
// The catalog comes from cfg.Catalog.Source. Payments are recorded in
// BigQuery when a project is configured and approved in memory otherwise.
// Receipts are archived to Cloud Storage when a bucket is configured.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Store: saved.NewStore(), Metrics: metrics.New()}

	policy, err := cfg.FeePolicy()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	minimum, err := cfg.MinimumPayable()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	var clientOpts []option.ClientOption
	if cfg.BigQuery.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.BigQuery.CredentialsFile))
	}

	var repo *infra.Repository
	if cfg.BigQuery.ProjectID != "" {
		repo, err = infra.NewRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
	}

	cat, err := loadCatalog(ctx, cfg, policy, repo)
	if err != nil {
		a.Close()
		return nil, err
	}
	log.Info().
		Str("source", cfg.Catalog.Source).
		Int("categories", len(cat.Categories())).
		Msg("Catalog loaded")

	confirmer := o.confirmer
	if confirmer == nil {
		if repo != nil {
			confirmer = confirmation.NewRecorder(repo, cfg.Payments.Currency, log)
		} else {
			log.Warn().Msg("No BigQuery project configured - payments are approved without being recorded")
			confirmer = confirmation.Approve
		}
	}

	renderers := o.renderers
	if cfg.Receipts.Bucket != "" {
		store, err := gcsuploader.NewGCSStore(ctx, clientOpts...)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		renderers = append(renderers, receipt.NewArchiver(store, cfg.Receipts.Bucket, log))
	}

	a.Machine = workflow.New(cat, confirmer,
		workflow.WithValidator(validation.New(minimum)),
		workflow.WithCodec(handoff.NewCodec(cfg.Handoff)),
		workflow.WithRenderer(receipt.Multi(renderers...)),
		workflow.WithMetrics(a.Metrics),
		workflow.WithLogger(log),
	)

	notifier := o.notifier
	if notifier == nil {
		notifier = reminders.LogNotifier(log)
	}
	jobs := reminders.NewStore()
	queue := reminders.NewQueue(reminderBuffer, jobs, notifier,
		reminders.WithWorkers(cfg.Reminders.Workers),
		reminders.WithMaxRetries(cfg.Reminders.MaxRetries),
		reminders.WithQueueMetrics(a.Metrics),
		reminders.WithQueueLogger(log),
	)
	a.Reminders = reminders.NewDispatcher(a.Store, jobs, queue, cfg.Reminders.Interval, log)
	return a, nil
}

func loadCatalog(ctx context.Context, cfg config.Config, policy fee.Policy, repo *infra.Repository) (*catalog.Static, error) {
	switch cfg.Catalog.Source {
	case config.CatalogFile:
		cat, err := catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return cat, nil
	case config.CatalogBigQuery:
		if repo == nil {
			return nil, errors.New("app: bigquery catalog needs a project")
		}
		cat, err := catalog.Load(ctx, repo, policy)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return cat, nil
	default:
		cat, err := catalog.Default().WithDefaultPolicy(policy)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return cat, nil
	}
}

// Close releases the cloud clients.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
