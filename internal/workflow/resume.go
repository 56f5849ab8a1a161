package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/handoff"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/receipt"
)

// Resume rebuilds the session that arrives over t carrying p. This is how a
// step picks up a draft that crossed a process boundary.
//
// A missing required key routes the user back: the returned session sits at
// the step the hop left from, filled with whatever p did carry, and the
// error has kind MissingHandoffKey. Any other decoding error returns a nil
// session.
func (m *Machine) Resume(ctx context.Context, t handoff.Transition, p handoff.Params) (*Session, error) {
	from, to, ok := endpoints(t)
	if !ok {
		return nil, fmt.Errorf("Resume: unknown transition %q", t)
	}

	slice, err := m.codec.Decode(t, p)
	if err != nil {
		m.metrics.HandoffFailures.WithLabelValues(string(t), string(domain.KindOf(err))).Inc()
		if !errors.Is(err, domain.ErrMissingHandoffKey) {
			return nil, err
		}
		back := fallback(t)
		s := m.newSession(back, m.partialDraft(p))
		s.log.Warn().Err(err).Str("transition", string(t)).Str("state", string(back)).Msg("Handoff incomplete, routed back")
		return s, err
	}

	d := slice.Draft
	contract, _ := handoff.ContractFor(t)
	if slice.WasDefaulted(handoff.KeyFeeRate) && !contract.Allows(handoff.KeyFeeAmount) {
		if err := d.SetFeePolicy(m.catalog.FeePolicy(d.ProviderName)); err != nil {
			return nil, fmt.Errorf("Resume %s: %w", t, err)
		}
	}
	if t == handoff.PackageToDetails && !d.HasAmount() {
		if pkg, ok := m.catalog.Package(d.ProviderName, d.LoadPackage); ok {
			d.SetAmountInput(amount.Format(pkg.Price))
		}
	}

	s := m.newSession(from, d)
	if from == DetailsEntry {
		s.rearrive()
	}
	switch to {
	case ConfirmationHandoff:
		frozen, err := d.Freeze(slice.ReferenceID)
		if err != nil {
			return nil, fmt.Errorf("Resume %s: %w", t, err)
		}
		s.push(to, t, p.Clone())
		s.frozen = frozen
	case Success:
		s.push(to, t, p.Clone())
		s.showReceipt(ctx, receipt.Receipt{
			TotalAmount:           slice.Total(),
			ReferenceID:           slice.ReferenceID,
			AccountOrMobileNumber: d.AccountOrMobileNumber,
			ProviderName:          d.ProviderName,
			OwnerID:               d.OwnerID,
		})
	default:
		s.push(to, t, p.Clone())
	}
	s.log.Debug().Str("transition", string(t)).Strs("defaulted", slice.Defaulted).Msg("Session resumed")
	return s, nil
}

// rearrive rebuilds the hop into details entry for a session resumed past
// it, so a declined confirmation can hand the user an envelope to retry with.
func (s *Session) rearrive() {
	in := handoff.ProviderToDetails
	if s.draft.Path() == domain.PathLoad {
		in = handoff.PackageToDetails
	}
	params, err := s.m.codec.Encode(in, handoff.Slice{Draft: s.draft})
	if err != nil {
		return
	}
	s.via, s.params = in, params
}

// partialDraft takes every usable value from p without enforcing the
// contract.
func (m *Machine) partialDraft(p handoff.Params) *domain.TransactionDraft {
	owner, _ := p.Get(handoff.KeyOwnerID)
	source, _ := p.Get(handoff.KeySourceAccountNumber)
	d := domain.NewDraft(owner, source)

	if v, ok := p.Get(handoff.KeyCategory); ok {
		d.Category, _ = domain.ParseCategory(v)
	}
	if v, ok := p.Get(handoff.KeyProviderName); ok {
		d.ProviderName = v
		_ = d.SetFeePolicy(m.catalog.FeePolicy(v))
	}
	d.LoadPackage, _ = p.Get(handoff.KeyLoadPackage)
	d.AccountOrMobileNumber, _ = p.Get(handoff.KeyAccountOrMobileNumber)
	d.PayerFullName, _ = p.Get(handoff.KeyPayerFullName)
	d.PayerEmail, _ = p.Get(handoff.KeyPayerEmail)
	if v, ok := p.Get(handoff.KeyNormalizedAmount); ok {
		d.SetAmountInput(v)
	}
	return d
}
