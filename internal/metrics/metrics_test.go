package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Transitions.WithLabelValues("DetailsEntry", "ConfirmationHandoff").Inc()
	m.Transitions.WithLabelValues("DetailsEntry", "ConfirmationHandoff").Inc()
	m.Confirmations.WithLabelValues(OutcomeFailure).Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("DetailsEntry", "ConfirmationHandoff")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Confirmations.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Confirmations.WithLabelValues(OutcomeSuccess)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ValidationFailures.WithLabelValues("InvalidAmount", "normalizedAmount").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cashelan_draft_validation_failures_total{field="normalizedAmount",kind="InvalidAmount"} 1`)
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.Confirmations.WithLabelValues(OutcomeSuccess).Inc()

	assert.Equal(t, 0.0, testutil.ToFloat64(b.Confirmations.WithLabelValues(OutcomeSuccess)))
}
