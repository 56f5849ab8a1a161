package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/catalog"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/confirmation"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/handoff"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/metrics"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/receipt"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/validation"
)

// Machine holds the collaborators shared by every session. It is safe for
// concurrent use; the sessions it creates are not.
type Machine struct {
	catalog   catalog.Catalog
	confirmer confirmation.Confirmer
	validator *validation.Validator
	codec     *handoff.Codec
	renderer  receipt.Renderer
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Machine.
type Option func(*Machine)

// WithValidator replaces the default validator.
func WithValidator(v *validation.Validator) Option {
	return func(m *Machine) { m.validator = v }
}

// WithCodec replaces the handoff codec and its defaults.
func WithCodec(c *handoff.Codec) Option {
	return func(m *Machine) { m.codec = c }
}

// WithRenderer sets where receipts are shown.
func WithRenderer(r receipt.Renderer) Option {
	return func(m *Machine) { m.renderer = r }
}

// WithMetrics sets the collectors transitions are counted on.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Machine) { m.metrics = mt }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// WithClock sets the clock used for receipt timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithIDGenerator sets how reference IDs are generated.
func WithIDGenerator(gen func() string) Option {
	return func(m *Machine) { m.newID = gen }
}

// New creates a Machine over cat that hands frozen drafts to confirmer.
func New(cat catalog.Catalog, confirmer confirmation.Confirmer, opts ...Option) *Machine {
	m := &Machine{
		catalog:   cat,
		confirmer: confirmer,
		validator: validation.NewDefault(),
		codec:     handoff.NewCodec(handoff.StandardDefaults()),
		renderer:  receipt.Discard,
		log:       zerolog.Nop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = metrics.New()
	}
	return m
}

// Catalog returns the catalog the machine prices drafts with.
func (m *Machine) Catalog() catalog.Catalog {
	return m.catalog
}

// Validator returns the draft validator.
func (m *Machine) Validator() *validation.Validator {
	return m.validator
}

// Codec returns the handoff codec.
func (m *Machine) Codec() *handoff.Codec {
	return m.codec
}
