package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const paymentsTable = "bill_payments"

// InsertPaymentWithClient inserts one PaymentRow into bill_payments.
func InsertPaymentWithClient(ctx context.Context, client *bigquery.Client, datasetID string, row *PaymentRow) error {
	if row == nil {
		return fmt.Errorf("InsertPayment: nil row")
	}

	inserter := client.Dataset(datasetID).Table(paymentsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertPayment: inserting row: %w", err)
	}

	return nil
}

// FindPaymentByReferenceWithClient returns the payment recorded under
// referenceID, or nil when there is none.
func FindPaymentByReferenceWithClient(ctx context.Context, client *bigquery.Client, datasetID, referenceID string) (*PaymentRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT *
		FROM `+"`%s.%s.%s`"+`
		WHERE reference_id = @reference_id
		LIMIT 1
	`, client.Project(), datasetID, paymentsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "reference_id", Value: referenceID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindPaymentByReference: query read: %w", err)
	}

	var row PaymentRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindPaymentByReference: iter next: %w", err)
	}

	return &row, nil
}

// ListPaymentsByOwnerWithClient returns an owner's payments, newest first.
func ListPaymentsByOwnerWithClient(ctx context.Context, client *bigquery.Client, datasetID, ownerID string, limit int) ([]*PaymentRow, error) {
	if limit <= 0 {
		limit = 50
	}

	q := client.Query(fmt.Sprintf(`
		SELECT *
		FROM `+"`%s.%s.%s`"+`
		WHERE owner_id = @owner_id
		ORDER BY created_ts DESC
		LIMIT @limit
	`, client.Project(), datasetID, paymentsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListPaymentsByOwner: query read: %w", err)
	}

	var rows []*PaymentRow
	for {
		var r PaymentRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListPaymentsByOwner: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
