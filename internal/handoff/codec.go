package handoff

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/fee"
)

// Params is the flat string map carried by one hop.
type Params map[string]string

// Get returns the trimmed value of key; ok is false when the key is absent
// or blank.
func (p Params) Get(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Slice is the part of a draft that crosses one hop.
//
// TotalAmount is only read when Draft carries no amount, which is the case
// after ConfirmationToSuccess: that hop carries the total but not the base
// amount it was derived from.
type Slice struct {
	Draft       *domain.TransactionDraft
	ReferenceID string
	TotalAmount decimal.Decimal

	// Defaulted lists the optional keys that were absent on decode and
	// received their default.
	Defaulted []string
}

// Total returns the total payable carried by s.
func (s Slice) Total() decimal.Decimal {
	if s.Draft != nil && s.Draft.HasAmount() {
		return s.Draft.TotalAmount()
	}
	return s.TotalAmount
}

// WasDefaulted reports whether key was absent on decode.
func (s Slice) WasDefaulted(key string) bool {
	return slices.Contains(s.Defaulted, key)
}

// FromFrozen builds the slice handed to the confirmation boundary.
func FromFrozen(f domain.FrozenDraft) Slice {
	return Slice{Draft: f.Draft(), ReferenceID: f.ReferenceID(), TotalAmount: f.TotalAmount()}
}

// Codec encodes and decodes hops. The zero value uses no defaults; use
// NewCodec for the standard ones.
type Codec struct {
	Defaults Defaults
}

// NewCodec creates a codec substituting d for absent optional keys.
func NewCodec(d Defaults) *Codec {
	return &Codec{Defaults: d}
}

// Encode writes the keys of t's contract taken from s. Keys with an empty
// value are omitted. A required key that cannot be produced is an error.
func (c *Codec) Encode(t Transition, s Slice) (Params, error) {
	contract, ok := ContractFor(t)
	if !ok {
		return nil, fmt.Errorf("Encode: unknown transition %q", t)
	}
	if s.Draft == nil {
		return nil, fmt.Errorf("Encode %s: nil draft", t)
	}

	p := make(Params, len(contract.Required)+len(contract.Optional))
	var missing []string
	for _, key := range contract.Keys() {
		v := valueOf(key, s)
		if v == "" {
			if contract.IsRequired(key) {
				missing = append(missing, key)
			}
			continue
		}
		p[key] = v
	}

	if len(missing) > 0 {
		return nil, missingKeys(t, missing)
	}
	return p, nil
}

func valueOf(key string, s Slice) string {
	d := s.Draft
	switch key {
	case KeyOwnerID:
		return d.OwnerID
	case KeySourceAccountNumber:
		return d.SourceAccountNumber
	case KeyCategory:
		return string(d.Category)
	case KeyProviderName:
		return d.ProviderName
	case KeyFeeRate:
		return d.FeePolicy().Rate.String()
	case KeyLoadPackage:
		return d.LoadPackage
	case KeyAccountOrMobileNumber:
		return d.AccountOrMobileNumber
	case KeyPayerFullName:
		return d.PayerFullName
	case KeyPayerEmail:
		return d.PayerEmail
	case KeyNormalizedAmount:
		if !d.HasAmount() {
			return ""
		}
		return amount.Format(d.NormalizedAmount())
	case KeyFeeAmount:
		if !d.HasAmount() {
			return ""
		}
		return amount.Format(d.FeeAmount())
	case KeyTotalAmount:
		if !d.HasAmount() && s.TotalAmount.IsZero() {
			return ""
		}
		return amount.Format(s.Total())
	case KeyReferenceID:
		return s.ReferenceID
	default:
		return ""
	}
}

// Decode rebuilds the slice carried by t from p.
//
// Every required key must be present and non-blank; all absent ones are
// reported together as a MissingHandoffKey error. Absent optional keys take
// their default. A value that does not parse, or a fee or total that
// disagrees with the one recomputed from the carried amount, is an
// InvalidHandoffValue error. Keys outside the contract are ignored.
func (c *Codec) Decode(t Transition, p Params) (Slice, error) {
	contract, ok := ContractFor(t)
	if !ok {
		return Slice{}, fmt.Errorf("Decode: unknown transition %q", t)
	}

	var missing []string
	for _, key := range contract.Required {
		if _, ok := p.Get(key); !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Slice{}, missingKeys(t, missing)
	}

	d := domain.NewDraft("", "")
	s := Slice{Draft: d}

	lookup := func(key string) (string, bool) {
		if v, ok := p.Get(key); ok {
			return v, true
		}
		s.Defaulted = append(s.Defaulted, key)
		return c.Defaults.For(key), false
	}

	// Category and fee rate go first: the rate prices the amount below.
	for _, key := range orderedForDecode(contract) {
		v, present := lookup(key)
		if err := c.apply(t, &s, key, v, present); err != nil {
			return Slice{}, err
		}
	}

	if err := verifyCarriedTotals(contract, &s, p); err != nil {
		return Slice{}, err
	}
	return s, nil
}

func (c *Codec) apply(t Transition, s *Slice, key, v string, present bool) error {
	d := s.Draft
	switch key {
	case KeyOwnerID:
		d.OwnerID = v
	case KeySourceAccountNumber:
		d.SourceAccountNumber = v
	case KeyCategory:
		if v == "" {
			return nil
		}
		cat, ok := domain.ParseCategory(v)
		if !ok && present {
			return invalidValue(t, key, v, "unknown category")
		}
		d.Category = cat
	case KeyProviderName:
		d.ProviderName = v
	case KeyFeeRate:
		if !present {
			return nil
		}
		policy, err := fee.NewPolicy(v)
		if err != nil {
			return invalidValue(t, key, v, err.Error())
		}
		// NewPolicy validated the rate.
		_ = d.SetFeePolicy(policy)
	case KeyLoadPackage:
		d.LoadPackage = v
	case KeyAccountOrMobileNumber:
		d.AccountOrMobileNumber = v
	case KeyPayerFullName:
		d.PayerFullName = v
	case KeyPayerEmail:
		d.PayerEmail = v
	case KeyNormalizedAmount:
		if !present {
			return nil
		}
		amt, err := parseMoney(v)
		if err != nil {
			return invalidValue(t, key, v, err.Error())
		}
		d.SetAmountInput(amount.Format(amt))
	case KeyReferenceID:
		s.ReferenceID = v
	case KeyFeeAmount, KeyTotalAmount:
		// Checked against the recomputed quote once every key is applied.
	}
	return nil
}

func verifyCarriedTotals(contract Contract, s *Slice, p Params) error {
	t := contract.Transition
	d := s.Draft
	for _, key := range []string{KeyFeeAmount, KeyTotalAmount} {
		v, ok := p.Get(key)
		if !ok || !contract.Allows(key) {
			continue
		}
		carried, err := parseMoney(v)
		if err != nil {
			return invalidValue(t, key, v, err.Error())
		}

		if !d.HasAmount() {
			// Only the total crosses this hop.
			if key == KeyTotalAmount {
				s.TotalAmount = carried
			}
			continue
		}

		want := d.FeeAmount()
		if key == KeyTotalAmount {
			want = d.TotalAmount()
		}
		if !carried.Equal(want) {
			return invalidValue(t, key, v, fmt.Sprintf("does not match recomputed %s", amount.Format(want)))
		}
	}
	return nil
}

// orderedForDecode returns the contract keys with category and fee rate
// first, then the rest in contract order.
func orderedForDecode(c Contract) []string {
	keys := c.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return decodeRank(keys[i]) < decodeRank(keys[j])
	})
	return keys
}

func decodeRank(key string) int {
	switch key {
	case KeyCategory:
		return 0
	case KeyFeeRate:
		return 1
	default:
		return 2
	}
}

// parseMoney accepts canonical money text only: a non-negative decimal with
// at most two fraction digits.
func parseMoney(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, errors.New("not a number")
	}
	if !amount.IsMinorUnit(d) {
		return decimal.Zero, fmt.Errorf("not a non-negative amount with at most %d decimals", amount.MaxFractionDigits)
	}
	return d, nil
}

func missingKeys(t Transition, keys []string) error {
	return &domain.Error{
		Kind:    domain.KindMissingHandoffKey,
		Field:   keys[0],
		Message: fmt.Sprintf("%s: missing required %s", t, strings.Join(keys, ", ")),
	}
}

func invalidValue(t Transition, key, value, reason string) error {
	return &domain.Error{
		Kind:    domain.KindInvalidHandoffValue,
		Field:   key,
		Message: fmt.Sprintf("%s: %s=%q: %s", t, key, value, reason),
	}
}
