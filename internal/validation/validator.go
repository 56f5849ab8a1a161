package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
)

// Field names reported on errors. They match the handoff keys so a caller
// can surface each error next to the input it came from.
const (
	FieldAccountOrMobileNumber = "accountOrMobileNumber"
	FieldPayerFullName         = "payerFullName"
	FieldLoadPackage           = "loadPackage"
	FieldNormalizedAmount      = "normalizedAmount"
)

// DefaultMinimumPayable is the smallest amount a draft may carry out of the
// details step.
var DefaultMinimumPayable = decimal.RequireFromString("1.00")

// ValidationErrors is the typed list of failing rules, in rule order.
// A nil or empty list means the draft may advance.
type ValidationErrors []*domain.Error

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap exposes every rule failure to errors.Is and errors.As.
func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, err := range e {
		errs[i] = err
	}
	return errs
}

// Field returns the error reported for field, or nil.
func (e ValidationErrors) Field(name string) *domain.Error {
	for _, err := range e {
		if err.Field == name {
			return err
		}
	}
	return nil
}

// Fields returns the failing field names in rule order.
func (e ValidationErrors) Fields() []string {
	out := make([]string, len(e))
	for i, err := range e {
		out[i] = err.Field
	}
	return out
}

// presence is the projection of a draft checked by the presence rules.
// Field order here is the order errors are reported in.
type presence struct {
	Path                  string `json:"-"`
	AccountOrMobileNumber string `json:"accountOrMobileNumber" validate:"required"`
	PayerFullName         string `json:"payerFullName" validate:"required_if=Path bill"`
	LoadPackage           string `json:"loadPackage" validate:"required_if=Path load"`
}

var presenceMessages = map[string]string{
	FieldAccountOrMobileNumber: "account or mobile number is required",
	FieldPayerFullName:         "payer full name is required",
	FieldLoadPackage:           "select a load package",
}

// Validator enforces the rules a draft must pass before leaving the details
// step. It holds no per-draft state and is safe for concurrent use.
type Validator struct {
	minimum  decimal.Decimal
	validate *validator.Validate
}

// New creates a validator with the given minimum payable amount.
func New(minimumPayable decimal.Decimal) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{minimum: minimumPayable, validate: v}
}

// NewDefault creates a validator with DefaultMinimumPayable.
func NewDefault() *Validator {
	return New(DefaultMinimumPayable)
}

// MinimumPayable returns the configured minimum.
func (v *Validator) MinimumPayable() decimal.Decimal {
	return v.minimum
}

// Validate runs every rule against d and collects all failures.
//
// Rules, in order:
//  1. account or mobile number non-empty
//  2. bill path: payer full name non-empty; load path: a load package selected
//  3. amount present and greater than zero
//  4. amount at least the minimum payable (checked only when 3 passed)
//
// Each field reports at most one error. The result depends only on d, so
// calling Validate twice on an unchanged draft yields the same list.
func (v *Validator) Validate(d *domain.TransactionDraft) ValidationErrors {
	var errs ValidationErrors
	errs = append(errs, v.checkPresence(d)...)
	if err := v.checkAmount(d); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Check is Validate returning a plain error, nil when the draft is valid.
func (v *Validator) Check(d *domain.TransactionDraft) error {
	if errs := v.Validate(d); len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *Validator) checkPresence(d *domain.TransactionDraft) ValidationErrors {
	p := presence{
		Path:                  string(d.Path()),
		AccountOrMobileNumber: strings.TrimSpace(d.AccountOrMobileNumber),
		PayerFullName:         strings.TrimSpace(d.PayerFullName),
		LoadPackage:           strings.TrimSpace(d.LoadPackage),
	}

	err := v.validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only reachable on a malformed tag; report it against the draft.
		return ValidationErrors{domain.NewError(domain.KindMissingRequiredField, "", err.Error())}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := presenceMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("%s is required", fe.Field())
		}
		out = append(out, domain.NewError(domain.KindMissingRequiredField, fe.Field(), msg))
	}
	return out
}

func (v *Validator) checkAmount(d *domain.TransactionDraft) *domain.Error {
	if !d.HasAmount() {
		return domain.NewError(domain.KindInvalidAmount, FieldNormalizedAmount, "enter an amount")
	}

	amt := d.NormalizedAmount()
	if !amt.IsPositive() {
		return domain.NewError(domain.KindInvalidAmount, FieldNormalizedAmount, "amount must be greater than zero")
	}
	if amt.LessThan(v.minimum) {
		return domain.NewError(domain.KindInvalidAmount, FieldNormalizedAmount,
			fmt.Sprintf("minimum amount is %s", amount.Format(v.minimum)))
	}
	return nil
}
