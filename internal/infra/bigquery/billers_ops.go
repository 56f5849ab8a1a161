package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	billersTable      = "billers"
	loadPackagesTable = "load_packages"
)

// ListActiveBillersWithClient returns all active billers ordered by category, name.
func ListActiveBillersWithClient(ctx context.Context, client *bigquery.Client, datasetID string) ([]BillerRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
		  biller_id,
		  name,
		  category,
		  fee_rate,
		  is_active,
		  created_ts
		FROM `+"`%s.%s.%s`"+`
		WHERE is_active = TRUE
		ORDER BY category, name
	`, client.Project(), datasetID, billersTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActiveBillers: query read: %w", err)
	}

	var rows []BillerRow
	for {
		var r BillerRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActiveBillers: iter next: %w", err)
		}
		rows = append(rows, r)
	}

	return rows, nil
}

// ListActiveLoadPackagesWithClient returns all active load packages ordered by biller, price.
func ListActiveLoadPackagesWithClient(ctx context.Context, client *bigquery.Client, datasetID string) ([]LoadPackageRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
		  package_code,
		  biller_id,
		  name,
		  price,
		  description,
		  is_active
		FROM `+"`%s.%s.%s`"+`
		WHERE is_active = TRUE
		ORDER BY biller_id, price
	`, client.Project(), datasetID, loadPackagesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActiveLoadPackages: query read: %w", err)
	}

	var rows []LoadPackageRow
	for {
		var r LoadPackageRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActiveLoadPackages: iter next: %w", err)
		}
		rows = append(rows, r)
	}

	return rows, nil
}
