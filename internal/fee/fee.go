package fee

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
)

var (
	// ErrInvalidAmount is returned for negative or unnormalized amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidPolicy is returned for a negative or missing rate.
	ErrInvalidPolicy = errors.New("invalid fee policy")

	// DefaultRate is the flat service fee rate (1%).
	DefaultRate = decimal.RequireFromString("0.01")
)

// Policy is the rate used to derive a service fee from a base amount.
// How the rate was chosen (category, provider) is the catalog's concern.
type Policy struct {
	Rate decimal.Decimal `json:"rate" yaml:"rate"`
}

// DefaultPolicy returns the flat 1% policy.
func DefaultPolicy() Policy {
	return Policy{Rate: DefaultRate}
}

// NewPolicy parses a rate such as "0.015".
func NewPolicy(rate string) (Policy, error) {
	r, err := decimal.NewFromString(rate)
	if err != nil {
		return Policy{}, fmt.Errorf("%w: rate %q: %v", ErrInvalidPolicy, rate, err)
	}
	p := Policy{Rate: r}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate rejects negative rates.
func (p Policy) Validate() error {
	if p.Rate.IsNegative() {
		return fmt.Errorf("%w: rate %s is negative", ErrInvalidPolicy, p.Rate)
	}
	return nil
}

// Quote is the fee breakdown for one amount.
type Quote struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
	Total  decimal.Decimal `json:"total"`
}

// Compute derives fee and total for amount under policy.
//
// fee = amount * rate rounded half-up at the 2nd decimal place,
// total = amount + fee. amount must be a non-negative multiple of 0.01.
func Compute(amt decimal.Decimal, policy Policy) (Quote, error) {
	if amt.IsNegative() {
		return Quote{}, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amt)
	}
	if !amount.IsMinorUnit(amt) {
		return Quote{}, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amt, amount.MaxFractionDigits)
	}
	if err := policy.Validate(); err != nil {
		return Quote{}, err
	}

	// Round is half away from zero, which is half-up for non-negative values.
	f := amt.Mul(policy.Rate).Round(amount.MaxFractionDigits)

	return Quote{
		Amount: amt,
		Fee:    f,
		Total:  amt.Add(f),
	}, nil
}
