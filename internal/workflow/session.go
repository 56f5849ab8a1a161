package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/handoff"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/metrics"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/receipt"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/validation"
)

// step is what a session remembers about a state it has left.
type step struct {
	state   State
	arrival *domain.TransactionDraft
	via     handoff.Transition
	params  handoff.Params
}

// Session is one user's walk through the workflow. It owns its draft and is
// not safe for concurrent use.
type Session struct {
	m   *Machine
	id  string
	log zerolog.Logger

	state   State
	draft   *domain.TransactionDraft
	arrival *domain.TransactionDraft
	via     handoff.Transition
	params  handoff.Params
	history []step

	errs       validation.ValidationErrors
	frozen     domain.FrozenDraft
	receipt    receipt.Receipt
	hasReceipt bool
}

// Start opens a session at CategorySelection with an empty draft for owner
// paying from sourceAccount.
func (m *Machine) Start(ownerID, sourceAccount string) (*Session, error) {
	ownerID = strings.TrimSpace(ownerID)
	sourceAccount = strings.TrimSpace(sourceAccount)
	if ownerID == "" {
		return nil, domain.NewError(domain.KindMissingRequiredField, handoff.KeyOwnerID, "owner is required")
	}
	if sourceAccount == "" {
		return nil, domain.NewError(domain.KindMissingRequiredField, handoff.KeySourceAccountNumber, "source account is required")
	}
	s := m.newSession(CategorySelection, domain.NewDraft(ownerID, sourceAccount))
	s.log.Info().Msg("Session started")
	return s, nil
}

func (m *Machine) newSession(state State, d *domain.TransactionDraft) *Session {
	id := uuid.NewString()
	s := &Session{
		m:     m,
		id:    id,
		log:   m.log.With().Str("session_id", id).Str("owner_id", d.OwnerID).Logger(),
		state: state,
		draft: d,
	}
	s.arrival = d.Clone()
	if state == DetailsEntry {
		s.revalidate()
	}
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// State returns the current step.
func (s *Session) State() State { return s.state }

// Draft returns a copy of the working draft.
func (s *Session) Draft() *domain.TransactionDraft { return s.draft.Clone() }

// Frozen returns the draft handed to confirmation. It is zero outside
// ConfirmationHandoff.
func (s *Session) Frozen() domain.FrozenDraft { return s.frozen }

// Receipt returns the receipt shown at Success.
func (s *Session) Receipt() (receipt.Receipt, bool) { return s.receipt, s.hasReceipt }

// Errors returns the validation errors of the draft as last edited. It is
// only populated in DetailsEntry.
func (s *Session) Errors() validation.ValidationErrors { return s.errs }

// CanAdvance reports whether Submit would be accepted.
func (s *Session) CanAdvance() bool {
	return s.state == DetailsEntry && len(s.errs) == 0
}

// Handoff returns the envelope that carried the session into its current
// state. ok is false at CategorySelection or after a broken resume.
func (s *Session) Handoff() (env handoff.Envelope, ok bool) {
	if s.via == "" {
		return handoff.Envelope{}, false
	}
	return handoff.Envelope{Version: handoff.EnvelopeVersion, Transition: s.via, Params: s.params.Clone()}, true
}

// SelectCategory records the tapped category and moves to ProviderSelection.
func (s *Session) SelectCategory(c domain.Category) error {
	if s.state != CategorySelection {
		return s.illegal("SelectCategory")
	}
	s.draft.Category, _ = domain.ParseCategory(string(c))
	return s.advance(ProviderSelection)
}

// SelectProvider records the provider and prices the draft with its fee
// policy. Load providers continue to PackageSelection, billers to
// DetailsEntry. A name missing from the catalog is kept as typed and priced
// with the default policy.
func (s *Session) SelectProvider(name string) error {
	if s.state != ProviderSelection {
		return s.illegal("SelectProvider")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewError(domain.KindMissingRequiredField, handoff.KeyProviderName, "choose a provider")
	}

	cat := s.m.catalog
	if p, ok := cat.Provider(name); ok {
		name = p.Name
		s.draft.Category = p.Category
	}
	s.draft.ProviderName = name
	if err := s.draft.SetFeePolicy(cat.FeePolicy(name)); err != nil {
		return fmt.Errorf("SelectProvider %s: %w", name, err)
	}

	if s.draft.Path() == domain.PathLoad {
		return s.advance(PackageSelection)
	}
	return s.advance(DetailsEntry)
}

// SelectPackage records a load package and takes its price as the amount.
func (s *Session) SelectPackage(code string) error {
	if s.state != PackageSelection {
		return s.illegal("SelectPackage")
	}
	pkg, ok := s.m.catalog.Package(s.draft.ProviderName, code)
	if !ok {
		return fmt.Errorf("SelectPackage %q for %s: %w", code, s.draft.ProviderName, ErrUnknownPackage)
	}
	s.draft.LoadPackage = pkg.Code
	s.draft.SetAmountInput(amount.Format(pkg.Price))
	return s.advance(DetailsEntry)
}

// SetAccountOrMobileNumber edits the account or mobile number and returns
// the revalidated errors.
func (s *Session) SetAccountOrMobileNumber(v string) (validation.ValidationErrors, error) {
	return s.edit("SetAccountOrMobileNumber", func(d *domain.TransactionDraft) { d.AccountOrMobileNumber = v })
}

// SetPayerFullName edits the payer name and returns the revalidated errors.
func (s *Session) SetPayerFullName(v string) (validation.ValidationErrors, error) {
	return s.edit("SetPayerFullName", func(d *domain.TransactionDraft) { d.PayerFullName = v })
}

// SetPayerEmail edits the optional payer email.
func (s *Session) SetPayerEmail(v string) (validation.ValidationErrors, error) {
	return s.edit("SetPayerEmail", func(d *domain.TransactionDraft) { d.PayerEmail = v })
}

// SetAmount records raw amount input; amount, fee and total are re-derived.
func (s *Session) SetAmount(raw string) (validation.ValidationErrors, error) {
	return s.edit("SetAmount", func(d *domain.TransactionDraft) { d.SetAmountInput(raw) })
}

func (s *Session) edit(action string, f func(d *domain.TransactionDraft)) (validation.ValidationErrors, error) {
	if s.state != DetailsEntry {
		return nil, s.illegal(action)
	}
	f(s.draft)
	s.revalidate()
	return s.errs, nil
}

func (s *Session) revalidate() {
	s.errs = s.m.validator.Validate(s.draft)
}

// Submit leaves DetailsEntry when the draft has no validation errors. It
// assigns a fresh reference ID, freezes the draft and returns the params
// handed to confirmation. On validation failure the errors are returned as
// validation.ValidationErrors and the session stays put.
func (s *Session) Submit() (handoff.Params, error) {
	if s.state != DetailsEntry {
		return nil, s.illegal("Submit")
	}
	s.revalidate()
	if len(s.errs) > 0 {
		for _, e := range s.errs {
			s.m.metrics.ValidationFailures.WithLabelValues(string(e.Kind), e.Field).Inc()
		}
		s.log.Debug().Strs("fields", s.errs.Fields()).Msg("Submit blocked by validation")
		return nil, s.errs
	}

	frozen, err := s.draft.Freeze(s.m.newID())
	if err != nil {
		return nil, fmt.Errorf("Submit: %w", err)
	}
	params, err := s.m.codec.Encode(handoff.DetailsToConfirmation, handoff.FromFrozen(frozen))
	if err != nil {
		return nil, fmt.Errorf("Submit: %w", err)
	}

	s.push(ConfirmationHandoff, handoff.DetailsToConfirmation, params)
	s.frozen = frozen
	s.log.Info().
		Str("reference_id", frozen.ReferenceID()).
		Str("provider", frozen.ProviderName()).
		Str("total", amount.Format(frozen.TotalAmount())).
		Msg("Draft handed to confirmation")
	return params.Clone(), nil
}

// Confirm hands the frozen draft to the confirmation collaborator.
//
// On success the session moves to Success and the receipt is rendered. On
// failure it returns to DetailsEntry with the entered values intact and the
// reference ID cleared, and the error has kind ConfirmationFailure.
func (s *Session) Confirm(ctx context.Context) (receipt.Receipt, error) {
	if s.state != ConfirmationHandoff {
		return receipt.Receipt{}, s.illegal("Confirm")
	}
	frozen := s.frozen

	start := time.Now()
	_, err := s.m.confirmer.Confirm(ctx, frozen)
	s.m.metrics.ConfirmSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		s.m.metrics.Confirmations.WithLabelValues(metrics.OutcomeFailure).Inc()
		s.returnToDetails(frozen.Draft())
		s.log.Warn().Err(err).Str("reference_id", frozen.ReferenceID()).Msg("Confirmation failed")
		return receipt.Receipt{}, &domain.Error{
			Kind:    domain.KindConfirmationFailure,
			Message: "payment could not be confirmed, please try again",
			Err:     err,
		}
	}
	s.m.metrics.Confirmations.WithLabelValues(metrics.OutcomeSuccess).Inc()

	r := receipt.Receipt{
		TotalAmount:           frozen.TotalAmount(),
		ReferenceID:           frozen.ReferenceID(),
		AccountOrMobileNumber: frozen.AccountOrMobileNumber(),
		ProviderName:          frozen.ProviderName(),
		OwnerID:               frozen.OwnerID(),
	}
	params, err := s.m.codec.Encode(handoff.ConfirmationToSuccess, handoff.FromFrozen(frozen))
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("Confirm: %w", err)
	}
	s.push(Success, handoff.ConfirmationToSuccess, params)
	s.frozen = domain.FrozenDraft{}
	s.showReceipt(ctx, r)
	return s.receipt, nil
}

func (s *Session) showReceipt(ctx context.Context, r receipt.Receipt) {
	r.Timestamp = s.m.now()
	s.receipt = r
	s.hasReceipt = true
	// The payment already went through; a receipt that fails to render
	// does not undo it.
	if err := s.m.renderer.Render(ctx, r); err != nil {
		s.log.Error().Err(err).Str("reference_id", r.ReferenceID).Msg("Failed to render receipt")
	}
}

// Back discards the edits made in the current step and returns to the
// previous one as it was when the user left it.
func (s *Session) Back() error {
	if len(s.history) == 0 || s.state == Success {
		return s.illegal("Back")
	}
	from := s.state
	left := s.arrival.Clone()
	prev := s.pop()
	s.frozen = domain.FrozenDraft{}
	s.restore(prev, left)
	s.count(from, s.state)
	return nil
}

// Continue leaves Success for a fresh session at CategorySelection. The
// finished draft is discarded.
func (s *Session) Continue() error {
	if s.state != Success {
		return s.illegal("Continue")
	}
	owner, source := s.draft.OwnerID, s.draft.SourceAccountNumber
	s.count(s.state, CategorySelection)

	s.state = CategorySelection
	s.draft = domain.NewDraft(owner, source)
	s.arrival = s.draft.Clone()
	s.via, s.params, s.history, s.errs = "", nil, nil, nil
	s.receipt, s.hasReceipt = receipt.Receipt{}, false
	return nil
}

func (s *Session) returnToDetails(d *domain.TransactionDraft) {
	from := s.state
	prev := s.pop()
	s.frozen = domain.FrozenDraft{}
	s.restore(prev, d)
	s.count(from, s.state)
}

// advance moves forward to a non-terminal state, carrying the draft over
// the matching handoff.
func (s *Session) advance(to State) error {
	t, ok := via(s.state, to)
	if !ok || !CanTransition(s.state, to) {
		return s.illegal("advance to " + string(to))
	}
	params, err := s.m.codec.Encode(t, handoff.Slice{Draft: s.draft})
	if err != nil {
		s.m.metrics.HandoffFailures.WithLabelValues(string(t), string(domain.KindOf(err))).Inc()
		return err
	}
	s.push(to, t, params)
	return nil
}

func (s *Session) push(to State, t handoff.Transition, params handoff.Params) {
	from := s.state
	s.history = append(s.history, step{state: s.state, arrival: s.arrival, via: s.via, params: s.params})
	s.state = to
	s.via = t
	s.params = params
	s.arrival = s.draft.Clone()
	s.errs = nil
	if to == DetailsEntry {
		s.revalidate()
	}
	s.count(from, to)
}

func (s *Session) pop() step {
	prev := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return prev
}

func (s *Session) restore(prev step, d *domain.TransactionDraft) {
	s.state = prev.state
	s.arrival = prev.arrival
	s.via = prev.via
	s.params = prev.params
	s.draft = d
	s.errs = nil
	if s.state == DetailsEntry {
		s.revalidate()
	}
}

func (s *Session) count(from, to State) {
	s.m.metrics.Transitions.WithLabelValues(string(from), string(to)).Inc()
	s.log.Info().Str("from", string(from)).Str("to", string(to)).Msg("Workflow transition")
}

func (s *Session) illegal(action string) error {
	s.m.metrics.IllegalTransitions.WithLabelValues(string(s.state), action).Inc()
	return fmt.Errorf("%s in %s: %w", action, s.state, ErrIllegalTransition)
}
