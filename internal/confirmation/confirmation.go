package confirmation

import (
	"context"
	"errors"
	"time"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
)

// ErrDeclined is returned when the settlement side refuses a draft.
var ErrDeclined = errors.New("payment declined")

// Result is what a successful confirmation hands back.
type Result struct {
	ReferenceID  string    `json:"reference_id"`
	SettlementID string    `json:"settlement_id"`
	ConfirmedAt  time.Time `json:"confirmed_at"`
}

// Confirmer consumes a frozen draft and settles it. Moving funds is the
// implementation's concern; the workflow only sees success or failure.
type Confirmer interface {
	Confirm(ctx context.Context, d domain.FrozenDraft) (Result, error)
}

// Func adapts a function to Confirmer.
type Func func(ctx context.Context, d domain.FrozenDraft) (Result, error)

func (f Func) Confirm(ctx context.Context, d domain.FrozenDraft) (Result, error) {
	return f(ctx, d)
}

// Approve is a Confirmer that accepts every draft without recording it.
var Approve Confirmer = Func(func(ctx context.Context, d domain.FrozenDraft) (Result, error) {
	return Result{ReferenceID: d.ReferenceID(), SettlementID: d.ReferenceID(), ConfirmedAt: time.Now()}, nil
})
