package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEndpointExposesCounters(t *testing.T) {
	RecordOutcome("succeeded")
	RecordAuthorization("bypass")
	RecordGeneration(150*time.Millisecond, true)
	RecordDelivery(false)
	RecordWebhook("stored")
	RecordCheckout(true)

	srv, err := New("contract-analysis-backend", "127.0.0.1:0")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `analysis_outcomes_total{kind="succeeded"}`)
	assert.Contains(t, body, `gate_decisions_total{path="bypass"}`)
	assert.Contains(t, body, `generation_calls_total{ok="true"}`)
	assert.Contains(t, body, `email_deliveries_total{delivered="false"}`)
	assert.Contains(t, body, `payment_webhooks_total{result="stored"}`)
	assert.Contains(t, body, `checkouts_created_total{ok="true"}`)
	assert.Contains(t, body, `generation_duration_seconds_bucket`)
}
