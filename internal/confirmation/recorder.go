package confirmation

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	infra "github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/infra/bigquery"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/logger"
)

// DefaultCurrency is recorded when none is configured.
const DefaultCurrency = "PHP"

// Recorder confirms a draft by writing its settlement record to the
// payments table. A reference ID already on record is refused.
type Recorder struct {
	repo     infra.PaymentRepository
	currency string
	now      func() time.Time
	log      zerolog.Logger
}

// NewRecorder creates a Recorder writing to repo.
func NewRecorder(repo infra.PaymentRepository, currency string, log zerolog.Logger) *Recorder {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Recorder{repo: repo, currency: currency, now: time.Now, log: log}
}

// Confirm implements Confirmer.
func (r *Recorder) Confirm(ctx context.Context, d domain.FrozenDraft) (Result, error) {
	if d.IsZero() {
		return Result{}, fmt.Errorf("Confirm: draft has no reference id")
	}

	existing, err := r.repo.FindPaymentByReference(ctx, d.ReferenceID())
	if err != nil {
		return Result{}, fmt.Errorf("Confirm: checking reference: %w", err)
	}
	if existing != nil {
		return Result{}, fmt.Errorf("Confirm: reference %s already recorded: %w", d.ReferenceID(), ErrDeclined)
	}

	now := r.now()
	row := PaymentRowFromDraft(d, r.currency, now)
	if err := r.repo.InsertPayment(ctx, row); err != nil {
		return Result{}, fmt.Errorf("Confirm: %w", err)
	}

	r.log.Info().
		Str("reference_id", d.ReferenceID()).
		Str("payment_id", row.PaymentID).
		Str("provider", d.ProviderName()).
		Str("account", logger.MaskAccount(d.AccountOrMobileNumber())).
		Str("total", d.TotalAmount().StringFixed(2)).
		Msg("Payment recorded")

	return Result{ReferenceID: d.ReferenceID(), SettlementID: row.PaymentID, ConfirmedAt: now}, nil
}

// PaymentRowFromDraft maps a frozen draft onto a bill_payments row.
func PaymentRowFromDraft(d domain.FrozenDraft, currency string, now time.Time) *infra.PaymentRow {
	return &infra.PaymentRow{
		PaymentID:             uuid.NewString(),
		ReferenceID:           d.ReferenceID(),
		OwnerID:               d.OwnerID(),
		SourceAccountNumber:   d.SourceAccountNumber(),
		Category:              string(d.Category()),
		ProviderName:          d.ProviderName(),
		AccountOrMobileNumber: d.AccountOrMobileNumber(),
		PayerFullName:         nullString(d.PayerFullName()),
		PayerEmail:            nullString(d.PayerEmail()),
		LoadPackage:           nullString(d.LoadPackage()),
		Amount:                infra.Numeric(d.NormalizedAmount()),
		FeeRate:               infra.Numeric(d.FeePolicy().Rate),
		FeeAmount:             infra.Numeric(d.FeeAmount()),
		TotalAmount:           infra.Numeric(d.TotalAmount()),
		Currency:              currency,
		PaymentDate:           civil.DateOf(now),
		Status:                infra.PaymentStatusConfirmed,
		CreatedTS:             now,
	}
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

var _ Confirmer = (*Recorder)(nil)
