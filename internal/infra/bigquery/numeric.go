package bigquery

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// numericScale is the fractional precision of a BigQuery NUMERIC column.
const numericScale = 9

// Numeric converts d into the value stored in a NUMERIC column.
func Numeric(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

// Decimal converts a NUMERIC value back; nil reads as zero.
func Decimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		return decimal.Zero
	}
	return d
}
