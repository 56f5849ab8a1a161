package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/fee"
)

// DraftVersion is the schema version of TransactionDraft.
const DraftVersion = 1

// TransactionDraft is the in-progress, not-yet-submitted payment request.
// The plain text fields are filled step by step. The amount, fee and total
// are derived: they change only through SetAmountInput and SetFeePolicy.
//
// A TransactionDraft is owned by one session and is not safe for
// concurrent use.
type TransactionDraft struct {
	Version int

	Category              Category
	ProviderName          string
	AccountOrMobileNumber string
	PayerFullName         string
	PayerEmail            string
	LoadPackage           string // load path only

	SourceAccountNumber string
	OwnerID             string

	rawAmountInput string
	amountText     string
	amountPresent  bool
	policy         fee.Policy
	quote          fee.Quote
}

// NewDraft returns an empty draft for owner, paying from sourceAccount,
// priced with the default fee policy.
func NewDraft(ownerID, sourceAccount string) *TransactionDraft {
	return &TransactionDraft{
		Version:             DraftVersion,
		Category:            CategoryOther,
		OwnerID:             ownerID,
		SourceAccountNumber: sourceAccount,
		policy:              fee.DefaultPolicy(),
		quote:               fee.Quote{Amount: decimal.Zero, Fee: decimal.Zero, Total: decimal.Zero},
	}
}

// Clone returns an independent copy.
func (d *TransactionDraft) Clone() *TransactionDraft {
	c := *d
	return &c
}

// Path reports whether the draft is a bill payment or a load purchase.
func (d *TransactionDraft) Path() Path {
	return d.Category.Path()
}

// SetAmountInput records raw user input and re-derives amount, fee and total.
func (d *TransactionDraft) SetAmountInput(raw string) {
	d.rawAmountInput = raw
	d.amountText = amount.Normalize(raw)
	d.reprice()
}

// SetFeePolicy changes the fee policy and re-derives fee and total.
func (d *TransactionDraft) SetFeePolicy(p fee.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	d.policy = p
	d.reprice()
	return nil
}

func (d *TransactionDraft) reprice() {
	amt, ok := amount.Parse(d.amountText)
	d.amountPresent = ok

	// A normalized amount is never negative nor finer than the minor unit and
	// the policy was validated on assignment, so Compute cannot fail here.
	q, err := fee.Compute(amt, d.policy)
	if err != nil {
		q = fee.Quote{Amount: amt, Fee: decimal.Zero, Total: amt}
	}
	d.quote = q
}

// RawAmountInput returns the text the user typed.
func (d *TransactionDraft) RawAmountInput() string { return d.rawAmountInput }

// AmountText returns the canonical amount text ("" when not provided).
func (d *TransactionDraft) AmountText() string { return d.amountText }

// HasAmount reports whether any amount was entered.
func (d *TransactionDraft) HasAmount() bool { return d.amountPresent }

// NormalizedAmount returns the derived amount (zero when not provided).
func (d *TransactionDraft) NormalizedAmount() decimal.Decimal { return d.quote.Amount }

// FeeAmount returns the derived service fee.
func (d *TransactionDraft) FeeAmount() decimal.Decimal { return d.quote.Fee }

// TotalAmount returns amount plus fee.
func (d *TransactionDraft) TotalAmount() decimal.Decimal { return d.quote.Total }

// FeePolicy returns the policy the draft is priced with.
func (d *TransactionDraft) FeePolicy() fee.Policy { return d.policy }

// Quote returns the full fee breakdown.
func (d *TransactionDraft) Quote() fee.Quote { return d.quote }

// Freeze assigns the reference ID and returns the read-only snapshot handed
// to the confirmation boundary. The draft itself stays editable so a failed
// confirmation can send the user back with their values intact.
func (d *TransactionDraft) Freeze(referenceID string) (FrozenDraft, error) {
	if strings.TrimSpace(referenceID) == "" {
		return FrozenDraft{}, errors.New("freeze: empty reference id")
	}
	return FrozenDraft{draft: *d.Clone(), referenceID: referenceID}, nil
}

// FrozenDraft is a read-only draft with an immutable reference ID.
type FrozenDraft struct {
	draft       TransactionDraft
	referenceID string
}

// ReferenceID returns the reference assigned at the confirmation boundary.
func (f FrozenDraft) ReferenceID() string { return f.referenceID }

// IsZero reports whether f was never frozen.
func (f FrozenDraft) IsZero() bool { return f.referenceID == "" }

// Draft returns an editable copy of the frozen values. Changes to the copy
// never affect f.
func (f FrozenDraft) Draft() *TransactionDraft { return f.draft.Clone() }

func (f FrozenDraft) Category() Category                { return f.draft.Category }
func (f FrozenDraft) ProviderName() string              { return f.draft.ProviderName }
func (f FrozenDraft) AccountOrMobileNumber() string     { return f.draft.AccountOrMobileNumber }
func (f FrozenDraft) PayerFullName() string             { return f.draft.PayerFullName }
func (f FrozenDraft) PayerEmail() string                { return f.draft.PayerEmail }
func (f FrozenDraft) LoadPackage() string               { return f.draft.LoadPackage }
func (f FrozenDraft) SourceAccountNumber() string       { return f.draft.SourceAccountNumber }
func (f FrozenDraft) OwnerID() string                   { return f.draft.OwnerID }
func (f FrozenDraft) AmountText() string                { return f.draft.amountText }
func (f FrozenDraft) NormalizedAmount() decimal.Decimal { return f.draft.quote.Amount }
func (f FrozenDraft) FeeAmount() decimal.Decimal        { return f.draft.quote.Fee }
func (f FrozenDraft) TotalAmount() decimal.Decimal      { return f.draft.quote.Total }
func (f FrozenDraft) FeePolicy() fee.Policy             { return f.draft.policy }
