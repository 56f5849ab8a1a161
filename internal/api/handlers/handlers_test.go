package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/catalog"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/confirmation"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/handoff"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/metrics"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/reminders"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/saved"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/workflow"
)

type testServer struct {
	mux       *http.ServeMux
	reminders *reminders.Store
	decline   bool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{mux: http.NewServeMux(), reminders: reminders.NewStore()}

	seq := 0
	confirmer := confirmation.Func(func(ctx context.Context, d domain.FrozenDraft) (confirmation.Result, error) {
		if ts.decline {
			return confirmation.Result{}, confirmation.ErrDeclined
		}
		return confirmation.Result{ReferenceID: d.ReferenceID(), ConfirmedAt: time.Now()}, nil
	})
	machine := workflow.New(catalog.Default(), confirmer,
		workflow.WithMetrics(metrics.New()),
		workflow.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("ref-%d", seq)
		}),
	)

	NewHandler(machine, saved.NewStore(), ts.reminders, zerolog.Nop()).Register(ts.mux)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// billAtDetails walks a water bill to details entry.
func (ts *testServer) billAtDetails(t *testing.T) StepResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/steps/category", map[string]string{
		"ownerId":             "owner-1",
		"sourceAccountNumber": "SA-001",
		"category":            "water",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	step := decodeAs[StepResponse](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/steps/provider", map[string]any{
		"handoff":      step.Envelope,
		"providerName": "maynilad",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeAs[StepResponse](t, rec)
}

func details(env *handoff.Envelope, amt string, submit bool) map[string]any {
	return map[string]any{
		"handoff":               env,
		"accountOrMobileNumber": "1234567890",
		"payerFullName":         "Juan Dela Cruz",
		"amount":                amt,
		"submit":                submit,
	}
}

func TestBillPayment_EndToEnd(t *testing.T) {
	ts := newTestServer(t)

	step := ts.billAtDetails(t)
	assert.Equal(t, workflow.DetailsEntry, step.State)
	require.NotNil(t, step.Envelope)
	assert.Equal(t, handoff.ProviderToDetails, step.Envelope.Transition)
	assert.Equal(t, "Maynilad", step.Draft.ProviderName)
	assert.Equal(t, domain.CategoryWater, step.Draft.Category)
	assert.NotEmpty(t, step.Errors)
	assert.Equal(t, []workflow.State{workflow.ConfirmationHandoff}, step.Next)

	rec := ts.do(t, http.MethodPost, "/api/steps/details", details(step.Envelope, "250", true))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	step = decodeAs[StepResponse](t, rec)
	assert.Equal(t, workflow.ConfirmationHandoff, step.State)
	assert.Equal(t, handoff.DetailsToConfirmation, step.Envelope.Transition)
	assert.Equal(t, "ref-1", step.Envelope.Params[handoff.KeyReferenceID])
	assert.Equal(t, "2.50", step.Draft.FeeAmount)
	assert.Equal(t, "252.50", step.Draft.TotalAmount)

	rec = ts.do(t, http.MethodPost, "/api/steps/confirm", map[string]any{"handoff": step.Envelope})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	step = decodeAs[StepResponse](t, rec)
	assert.Equal(t, workflow.Success, step.State)
	assert.Equal(t, handoff.ConfirmationToSuccess, step.Envelope.Transition)
	assert.Equal(t, "252.50", step.Envelope.Params[handoff.KeyTotalAmount])
	require.NotNil(t, step.Receipt)
	assert.Equal(t, "ref-1", step.Receipt.ReferenceID)
	assert.Equal(t, "1234567890", step.Receipt.AccountOrMobileNumber)
	assert.Equal(t, "252.5", step.Receipt.TotalAmount.String())
}

func TestLoadPurchase(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/steps/category", map[string]string{
		"ownerId": "owner-1", "sourceAccountNumber": "SA-001", "category": "Load",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	step := decodeAs[StepResponse](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/steps/provider", map[string]any{"handoff": step.Envelope, "providerName": "Globe"})
	require.Equal(t, http.StatusOK, rec.Code)
	step = decodeAs[StepResponse](t, rec)
	assert.Equal(t, workflow.PackageSelection, step.State)

	t.Run("unknown package", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/steps/package", map[string]any{"handoff": step.Envelope, "packageCode": "NOPE"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	rec = ts.do(t, http.MethodPost, "/api/steps/package", map[string]any{"handoff": step.Envelope, "packageCode": "gosurf99"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	step = decodeAs[StepResponse](t, rec)
	assert.Equal(t, workflow.DetailsEntry, step.State)
	assert.Equal(t, handoff.PackageToDetails, step.Envelope.Transition)
	assert.Equal(t, "GOSURF99", step.Draft.LoadPackage)
	assert.Equal(t, "99.00", step.Draft.AmountText)
	assert.Equal(t, "99.99", step.Draft.TotalAmount)
}

func TestSubmitDetails_LiveValidation(t *testing.T) {
	ts := newTestServer(t)
	step := ts.billAtDetails(t)

	rec := ts.do(t, http.MethodPost, "/api/steps/details", details(step.Envelope, "0", false))
	require.Equal(t, http.StatusOK, rec.Code)
	live := decodeAs[StepResponse](t, rec)
	assert.Equal(t, workflow.DetailsEntry, live.State)
	require.Len(t, live.Errors, 1)
	assert.Equal(t, "normalizedAmount", live.Errors[0].Field)

	rec = ts.do(t, http.MethodPost, "/api/steps/details", details(step.Envelope, "0", true))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeAs[ErrorResponse](t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, domain.KindInvalidAmount, resp.Errors[0].Kind)
	require.NotNil(t, resp.Step)
	assert.Equal(t, workflow.DetailsEntry, resp.Step.State)
}

func TestConfirm_DeclinedReturnsToDetails(t *testing.T) {
	ts := newTestServer(t)
	step := ts.billAtDetails(t)

	rec := ts.do(t, http.MethodPost, "/api/steps/details", details(step.Envelope, "250", true))
	require.Equal(t, http.StatusOK, rec.Code)
	step = decodeAs[StepResponse](t, rec)

	ts.decline = true
	rec = ts.do(t, http.MethodPost, "/api/steps/confirm", map[string]any{"handoff": step.Envelope})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	resp := decodeAs[ErrorResponse](t, rec)
	assert.Equal(t, domain.KindConfirmationFailure, resp.Kind)
	require.NotNil(t, resp.Step)
	assert.Equal(t, workflow.DetailsEntry, resp.Step.State)
	assert.Equal(t, "1234567890", resp.Step.Draft.AccountOrMobileNumber)
	assert.Equal(t, "250.00", resp.Step.Draft.AmountText)
	require.NotNil(t, resp.Step.Envelope)

	ts.decline = false
	rec = ts.do(t, http.MethodPost, "/api/steps/details", details(resp.Step.Envelope, "250", true))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	retry := decodeAs[StepResponse](t, rec)
	assert.Equal(t, "ref-2", retry.Envelope.Params[handoff.KeyReferenceID])
}

func TestResume_MissingKeyRoutesBack(t *testing.T) {
	ts := newTestServer(t)
	step := ts.billAtDetails(t)

	env := *step.Envelope
	env.Params = env.Params.Clone()
	delete(env.Params, handoff.KeyOwnerID)

	rec := ts.do(t, http.MethodPost, "/api/steps/details", details(&env, "250", true))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeAs[ErrorResponse](t, rec)
	assert.Equal(t, domain.KindMissingHandoffKey, resp.Kind)
	require.NotNil(t, resp.Step)
	assert.Equal(t, workflow.ProviderSelection, resp.Step.State)
	assert.Equal(t, "Maynilad", resp.Step.Draft.ProviderName)
}

func TestResume_RejectsBadEnvelopes(t *testing.T) {
	ts := newTestServer(t)
	step := ts.billAtDetails(t)

	t.Run("unknown key", func(t *testing.T) {
		env := *step.Envelope
		env.Params = env.Params.Clone()
		env.Params["pin"] = "1234"
		rec := ts.do(t, http.MethodPost, "/api/steps/details", details(&env, "250", true))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, domain.KindInvalidHandoffValue, decodeAs[ErrorResponse](t, rec).Kind)
	})

	t.Run("unsupported version", func(t *testing.T) {
		env := *step.Envelope
		env.Version = 99
		rec := ts.do(t, http.MethodPost, "/api/steps/details", details(&env, "250", true))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong step", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/steps/provider", map[string]any{
			"handoff":      step.Envelope,
			"providerName": "Meralco",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestDecode_RejectsBadBodies(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/steps/category", map[string]string{"ownerId": "owner-1", "extra": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/steps/category", map[string]string{"ownerId": "owner-1", "category": "Water"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "sourceAccountNumber", decodeAs[ErrorResponse](t, rec).Field)
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/catalog/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.Category{
		domain.CategoryElectric, domain.CategoryWater, domain.CategoryTelecom, domain.CategoryGovernment, domain.CategoryLoad,
	}, decodeAs[[]domain.Category](t, rec))

	rec = ts.do(t, http.MethodGet, "/api/catalog/providers?category=load", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]catalog.Provider](t, rec), 3)

	rec = ts.do(t, http.MethodGet, "/api/catalog/providers?category=gaming", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/catalog/providers/Globe/packages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]catalog.LoadPackage](t, rec), 2)

	rec = ts.do(t, http.MethodGet, "/api/catalog/providers/Nowhere/packages", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuote(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		provider string
		amount   string
		fee      string
		total    string
	}{
		{"default rate", "Maynilad", "PHP 1,250.50", "12.51", "1263.01"},
		{"zero rate", "SSS", "1000", "0.00", "1000.00"},
		{"unknown provider", "Corner Store", "100", "1.00", "101.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/quote", map[string]string{"providerName": tt.provider, "amount": tt.amount})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			q := decodeAs[QuoteResponse](t, rec)
			assert.Equal(t, tt.fee, q.FeeAmount)
			assert.Equal(t, tt.total, q.TotalAmount)
		})
	}

	rec := ts.do(t, http.MethodPost, "/api/quote", map[string]string{"providerName": "Maynilad", "amount": "abc"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, domain.KindInvalidAmount, decodeAs[ErrorResponse](t, rec).Kind)
}

func TestValidateDraft(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/drafts/validate", map[string]string{
		"providerName": "Meralco",
		"amount":       "0.50",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAs[ValidateResponse](t, rec)
	assert.False(t, resp.Valid)
	assert.Equal(t, domain.CategoryElectric, resp.Draft.Category)
	fields := make([]string, len(resp.Errors))
	for i, e := range resp.Errors {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"accountOrMobileNumber", "payerFullName", "normalizedAmount"}, fields)

	rec = ts.do(t, http.MethodPost, "/api/drafts/validate", map[string]string{
		"providerName":          "Meralco",
		"accountOrMobileNumber": "1234567890",
		"payerFullName":         "Juan Dela Cruz",
		"amount":                "500",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeAs[ValidateResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.Equal(t, "505.00", resp.Draft.TotalAmount)
}

func TestFavorites(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/owners/owner-1/favorites", map[string]string{
		"nickname":                 "Home power",
		"provider_name":            "meralco",
		"account_or_mobile_number": "1234567890",
		"payer_full_name":          "Juan Dela Cruz",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	fav := decodeAs[saved.Favorite](t, rec)
	assert.NotEmpty(t, fav.ID)
	assert.Equal(t, "Meralco", fav.ProviderName)
	assert.Equal(t, domain.CategoryElectric, fav.Category)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/favorites", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]saved.Favorite](t, rec), 1)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-2/favorites", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/favorites/"+fav.ID+"/start", map[string]string{"sourceAccountNumber": "SA-001"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	step := decodeAs[StepResponse](t, rec)
	assert.Equal(t, workflow.DetailsEntry, step.State)
	assert.Equal(t, "1234567890", step.Draft.AccountOrMobileNumber)
	assert.Equal(t, "Juan Dela Cruz", step.Draft.PayerFullName)

	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/favorites", map[string]string{
		"provider_name":            "meralco",
		"account_or_mobile_number": "1234567890",
		"payer_email":              "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/owners/owner-1/favorites/"+fav.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/owners/owner-1/favorites/"+fav.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/favorites/"+fav.ID+"/start", map[string]string{"sourceAccountNumber": "SA-001"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSchedules(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/owners/owner-1/schedules", map[string]any{
		"provider_name":            "PLDT",
		"account_or_mobile_number": "0281234567",
		"amount":                   "1,699",
		"day_of_month":             15,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bill := decodeAs[saved.ScheduledBill](t, rec)
	assert.True(t, bill.Active)
	assert.Equal(t, domain.CategoryTelecom, bill.Category)
	assert.Equal(t, "1699", bill.Amount.String())

	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/schedules/"+bill.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeAs[saved.ScheduledBill](t, rec).Active)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/schedules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]saved.ScheduledBill](t, rec), 1)

	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/schedules", map[string]any{
		"provider_name":            "PLDT",
		"account_or_mobile_number": "0281234567",
		"amount":                   "0",
		"day_of_month":             15,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/schedules", map[string]any{
		"provider_name":            "PLDT",
		"account_or_mobile_number": "0281234567",
		"amount":                   "100",
		"day_of_month":             31,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/owners/owner-1/schedules/"+bill.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/schedules/"+bill.ID+"/toggle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReminders(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	bill := saved.ScheduledBill{ID: "sched-1", OwnerID: "owner-1", ProviderName: "PLDT", AccountOrMobileNumber: "0281234567"}
	for day, status := range map[int]reminders.Status{3: reminders.StatusSent, 4: reminders.StatusPending} {
		job := reminders.NewJob(bill, civil.Date{Year: 2026, Month: time.May, Day: day})
		job.Status = status
		require.NoError(t, ts.reminders.Save(ctx, job))
	}

	rec := ts.do(t, http.MethodGet, "/api/owners/owner-1/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	jobs := decodeAs[[]reminders.Job](t, rec)
	require.Len(t, jobs, 2)
	assert.Equal(t, "sched-1@2026-05-04", jobs[0].ID)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/reminders?status=sent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]reminders.Job](t, rec), 1)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/reminders?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]reminders.Job](t, rec), 1)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/reminders?limit=all", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-2/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}
