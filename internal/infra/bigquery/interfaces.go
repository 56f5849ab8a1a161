package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
)

// DefaultDatasetID is the dataset holding every table of this package.
const DefaultDatasetID = "finance"

// BillerRepository reads the biller catalog.
type BillerRepository interface {
	// ListActiveBillers retrieves all active billers.
	ListActiveBillers(ctx context.Context) ([]BillerRow, error)

	// ListActiveLoadPackages retrieves all active load packages.
	ListActiveLoadPackages(ctx context.Context) ([]LoadPackageRow, error)
}

// PaymentRepository stores settlement records.
type PaymentRepository interface {
	// InsertPayment inserts a single PaymentRow.
	InsertPayment(ctx context.Context, row *PaymentRow) error

	// FindPaymentByReference returns the payment with the given reference ID, or nil.
	FindPaymentByReference(ctx context.Context, referenceID string) (*PaymentRow, error)

	// ListPaymentsByOwner returns an owner's most recent payments.
	ListPaymentsByOwner(ctx context.Context, ownerID string, limit int) ([]*PaymentRow, error)
}

// Repository implements BillerRepository and PaymentRepository on BigQuery.
// It holds a shared client to avoid creating a connection per operation.
type Repository struct {
	client    *bigquery.Client
	datasetID string
}

// NewRepository creates a Repository with its own client.
func NewRepository(ctx context.Context, projectID, datasetID string, opts ...option.ClientOption) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, datasetID), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, datasetID string) *Repository {
	if datasetID == "" {
		datasetID = DefaultDatasetID
	}
	return &Repository{client: client, datasetID: datasetID}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListActiveBillers delegates to ListActiveBillersWithClient.
func (r *Repository) ListActiveBillers(ctx context.Context) ([]BillerRow, error) {
	return ListActiveBillersWithClient(ctx, r.client, r.datasetID)
}

// ListActiveLoadPackages delegates to ListActiveLoadPackagesWithClient.
func (r *Repository) ListActiveLoadPackages(ctx context.Context) ([]LoadPackageRow, error) {
	return ListActiveLoadPackagesWithClient(ctx, r.client, r.datasetID)
}

// InsertPayment delegates to InsertPaymentWithClient.
func (r *Repository) InsertPayment(ctx context.Context, row *PaymentRow) error {
	return InsertPaymentWithClient(ctx, r.client, r.datasetID, row)
}

// FindPaymentByReference delegates to FindPaymentByReferenceWithClient.
func (r *Repository) FindPaymentByReference(ctx context.Context, referenceID string) (*PaymentRow, error) {
	return FindPaymentByReferenceWithClient(ctx, r.client, r.datasetID, referenceID)
}

// ListPaymentsByOwner delegates to ListPaymentsByOwnerWithClient.
func (r *Repository) ListPaymentsByOwner(ctx context.Context, ownerID string, limit int) ([]*PaymentRow, error) {
	return ListPaymentsByOwnerWithClient(ctx, r.client, r.datasetID, ownerID, limit)
}

var (
	_ BillerRepository  = (*Repository)(nil)
	_ PaymentRepository = (*Repository)(nil)
)
