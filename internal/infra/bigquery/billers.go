package bigquery

import (
	"math/big"

	"cloud.google.com/go/bigquery"
)

// BillerRow is one row of finance.billers: a provider users can pay.
type BillerRow struct {
	BillerID string `bigquery:"biller_id"` // REQUIRED
	Name     string `bigquery:"name"`      // REQUIRED
	Category string `bigquery:"category"`  // REQUIRED

	FeeRate *big.Rat `bigquery:"fee_rate"` // NULLABLE NUMERIC (NULL → default policy)

	IsActive  bigquery.NullBool      `bigquery:"is_active"`  // NULLABLE
	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"` // NULLABLE (defaults to CURRENT_TIMESTAMP())
}

// LoadPackageRow is one row of finance.load_packages.
type LoadPackageRow struct {
	PackageCode string `bigquery:"package_code"` // REQUIRED
	BillerID    string `bigquery:"biller_id"`    // REQUIRED
	Name        string `bigquery:"name"`         // REQUIRED

	Price *big.Rat `bigquery:"price"` // REQUIRED NUMERIC

	Description bigquery.NullString `bigquery:"description"` // NULLABLE
	IsActive    bigquery.NullBool   `bigquery:"is_active"`   // NULLABLE
}
