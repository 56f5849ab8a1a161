package saved

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
)

// Favorite is a biller the user saved together with the details they pay
// it with.
type Favorite struct {
	ID                    string          `json:"id"`
	OwnerID               string          `json:"owner_id" validate:"required"`
	Nickname              string          `json:"nickname,omitempty"`
	Category              domain.Category `json:"category"`
	ProviderName          string          `json:"provider_name" validate:"required"`
	AccountOrMobileNumber string          `json:"account_or_mobile_number" validate:"required"`
	PayerFullName         string          `json:"payer_full_name,omitempty"`
	PayerEmail            string          `json:"payer_email,omitempty" validate:"omitempty,email"`
	CreatedAt             time.Time       `json:"created_at"`
}

func (f Favorite) Key() string { return f.ID }

// Prefill copies the saved details into d. Amount and fee are left alone.
func (f Favorite) Prefill(d *domain.TransactionDraft) {
	if f.Category != "" {
		d.Category, _ = domain.ParseCategory(string(f.Category))
	}
	d.ProviderName = strings.TrimSpace(f.ProviderName)
	d.AccountOrMobileNumber = f.AccountOrMobileNumber
	d.PayerFullName = f.PayerFullName
	d.PayerEmail = f.PayerEmail
}

// ScheduledBill is a recurring payment reminder. Inactive schedules are kept
// but not due.
type ScheduledBill struct {
	ID                    string          `json:"id"`
	OwnerID               string          `json:"owner_id" validate:"required"`
	ProviderName          string          `json:"provider_name" validate:"required"`
	Category              domain.Category `json:"category"`
	AccountOrMobileNumber string          `json:"account_or_mobile_number" validate:"required"`
	Amount                decimal.Decimal `json:"amount"`
	DayOfMonth            int             `json:"day_of_month" validate:"min=1,max=28"`
	Active                bool            `json:"active"`
	CreatedAt             time.Time       `json:"created_at"`
}

func (b ScheduledBill) Key() string { return b.ID }

// Toggle returns b with its activation flipped.
func (b ScheduledBill) Toggle() ScheduledBill {
	b.Active = !b.Active
	return b
}

// DueOn reports whether b is active and falls due on t's day of month.
func (b ScheduledBill) DueOn(t time.Time) bool {
	return b.Active && t.Day() == b.DayOfMonth
}
