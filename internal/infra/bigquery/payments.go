package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// Payment statuses.
const (
	PaymentStatusConfirmed = "CONFIRMED"
	PaymentStatusRejected  = "REJECTED"
)

// PaymentRow is the settlement record of one confirmed draft in finance.bill_payments.
type PaymentRow struct {
	PaymentID   string `bigquery:"payment_id"`   // REQUIRED
	ReferenceID string `bigquery:"reference_id"` // REQUIRED, unique per attempt

	OwnerID             string `bigquery:"owner_id"`              // REQUIRED
	SourceAccountNumber string `bigquery:"source_account_number"` // REQUIRED

	Category              string              `bigquery:"category"`                 // REQUIRED
	ProviderName          string              `bigquery:"provider_name"`            // REQUIRED
	AccountOrMobileNumber string              `bigquery:"account_or_mobile_number"` // REQUIRED
	PayerFullName         bigquery.NullString `bigquery:"payer_full_name"`          // NULLABLE (load path)
	PayerEmail            bigquery.NullString `bigquery:"payer_email"`              // NULLABLE
	LoadPackage           bigquery.NullString `bigquery:"load_package"`             // NULLABLE (bill path)

	Amount      *big.Rat `bigquery:"amount"`       // REQUIRED NUMERIC
	FeeRate     *big.Rat `bigquery:"fee_rate"`     // REQUIRED NUMERIC
	FeeAmount   *big.Rat `bigquery:"fee_amount"`   // REQUIRED NUMERIC
	TotalAmount *big.Rat `bigquery:"total_amount"` // REQUIRED NUMERIC
	Currency    string   `bigquery:"currency"`     // REQUIRED STRING

	PaymentDate civil.Date `bigquery:"payment_date"` // REQUIRED
	Status      string     `bigquery:"status"`       // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}
