package confirmation

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	infra "github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/infra/bigquery"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/logger"
)

// mockPaymentRepository records inserted rows in memory.
type mockPaymentRepository struct {
	rows      []*infra.PaymentRow
	insertErr error
	findErr   error
}

func (m *mockPaymentRepository) InsertPayment(ctx context.Context, row *infra.PaymentRow) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *mockPaymentRepository) FindPaymentByReference(ctx context.Context, referenceID string) (*infra.PaymentRow, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.rows {
		if r.ReferenceID == referenceID {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockPaymentRepository) ListPaymentsByOwner(ctx context.Context, ownerID string, limit int) ([]*infra.PaymentRow, error) {
	return m.rows, nil
}

func frozenDraft(t *testing.T, ref string) domain.FrozenDraft {
	t.Helper()
	d := domain.NewDraft("owner-1", "0011223344")
	d.Category = domain.CategoryWater
	d.ProviderName = "Maynilad"
	d.AccountOrMobileNumber = "1234567890"
	d.PayerFullName = "Juan Dela Cruz"
	d.SetAmountInput("250")
	f, err := d.Freeze(ref)
	require.NoError(t, err)
	return f
}

func TestRecorder_Confirm(t *testing.T) {
	repo := &mockPaymentRepository{}
	buf := &bytes.Buffer{}
	r := NewRecorder(repo, "", logger.NewWithWriter(buf))
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	res, err := r.Confirm(context.Background(), frozenDraft(t, "ref-1"))
	require.NoError(t, err)

	assert.Equal(t, "ref-1", res.ReferenceID)
	assert.Equal(t, fixed, res.ConfirmedAt)
	require.Len(t, repo.rows, 1)

	row := repo.rows[0]
	assert.Equal(t, res.SettlementID, row.PaymentID)
	assert.Equal(t, "owner-1", row.OwnerID)
	assert.Equal(t, "Water", row.Category)
	assert.Equal(t, DefaultCurrency, row.Currency)
	assert.Equal(t, civil.Date{Year: 2026, Month: time.March, Day: 14}, row.PaymentDate)
	assert.Equal(t, infra.PaymentStatusConfirmed, row.Status)
	assert.True(t, row.PayerFullName.Valid)
	assert.False(t, row.PayerEmail.Valid)
	assert.True(t, decimal.RequireFromString("252.50").Equal(infra.Decimal(row.TotalAmount)))
	assert.True(t, decimal.RequireFromString("2.50").Equal(infra.Decimal(row.FeeAmount)))

	assert.Contains(t, buf.String(), "******7890")
	assert.NotContains(t, buf.String(), "1234567890")
}

func TestRecorder_DuplicateReference(t *testing.T) {
	repo := &mockPaymentRepository{}
	r := NewRecorder(repo, "PHP", logger.NewWithWriter(&bytes.Buffer{}))

	_, err := r.Confirm(context.Background(), frozenDraft(t, "ref-1"))
	require.NoError(t, err)

	_, err = r.Confirm(context.Background(), frozenDraft(t, "ref-1"))
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Len(t, repo.rows, 1)
}

func TestRecorder_RepositoryErrors(t *testing.T) {
	ctx := context.Background()

	r := NewRecorder(&mockPaymentRepository{findErr: errors.New("timeout")}, "", logger.NewWithWriter(&bytes.Buffer{}))
	_, err := r.Confirm(ctx, frozenDraft(t, "ref-1"))
	assert.ErrorContains(t, err, "timeout")

	r = NewRecorder(&mockPaymentRepository{insertErr: errors.New("quota exceeded")}, "", logger.NewWithWriter(&bytes.Buffer{}))
	_, err = r.Confirm(ctx, frozenDraft(t, "ref-2"))
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestRecorder_RejectsUnfrozen(t *testing.T) {
	r := NewRecorder(&mockPaymentRepository{}, "", logger.NewWithWriter(&bytes.Buffer{}))

	_, err := r.Confirm(context.Background(), domain.FrozenDraft{})
	assert.Error(t, err)
}

func TestFunc(t *testing.T) {
	called := false
	c := Func(func(ctx context.Context, d domain.FrozenDraft) (Result, error) {
		called = true
		return Result{}, ErrDeclined
	})

	_, err := c.Confirm(context.Background(), frozenDraft(t, "ref-1"))
	assert.True(t, called)
	assert.ErrorIs(t, err, ErrDeclined)

	res, err := Approve.Confirm(context.Background(), frozenDraft(t, "ref-2"))
	require.NoError(t, err)
	assert.Equal(t, "ref-2", res.ReferenceID)
}
