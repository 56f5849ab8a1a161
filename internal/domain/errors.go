package domain

import (
	"errors"
	"fmt"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/fee"
)

// ErrorKind classifies a recoverable workflow error.
type ErrorKind string

const (
	// KindInvalidAmount: amount absent, non-numeric, zero, negative or below minimum.
	KindInvalidAmount ErrorKind = "InvalidAmount"
	// KindMissingRequiredField: a required draft field is empty.
	KindMissingRequiredField ErrorKind = "MissingRequiredField"
	// KindMissingHandoffKey: a required parameter was absent on arrival at a step.
	KindMissingHandoffKey ErrorKind = "MissingHandoffKey"
	// KindInvalidHandoffValue: a handoff parameter was present but unparseable or inconsistent.
	KindInvalidHandoffValue ErrorKind = "InvalidHandoffValue"
	// KindConfirmationFailure: the confirmation collaborator rejected the draft.
	KindConfirmationFailure ErrorKind = "ConfirmationFailure"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrInvalidAmount        = &Error{Kind: KindInvalidAmount}
	ErrMissingRequiredField = &Error{Kind: KindMissingRequiredField}
	ErrMissingHandoffKey    = &Error{Kind: KindMissingHandoffKey}
	ErrInvalidHandoffValue  = &Error{Kind: KindInvalidHandoffValue}
	ErrConfirmationFailure  = &Error{Kind: KindConfirmationFailure}
)

// Error is a field-scoped, recoverable error surfaced next to the field it
// concerns.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// NewError creates an error of the given kind for field.
func NewError(kind ErrorKind, field, message string) *Error {
	return &Error{Kind: kind, Field: field, Message: message}
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
}

// Is matches on Kind so callers can test errors.Is(err, domain.ErrInvalidAmount).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "".
// A fee engine precondition failure reports as KindInvalidAmount.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, fee.ErrInvalidAmount) {
		return KindInvalidAmount
	}
	return ""
}
