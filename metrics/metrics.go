package metrics

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// RecordOutcome counts one finished orchestration by outcome kind.
func RecordOutcome(kind string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`analysis_outcomes_total{kind=%q}`, kind)).Inc()
}

// RecordAuthorization counts gate decisions by path (bypass, paid, denied, unavailable).
func RecordAuthorization(path string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`gate_decisions_total{path=%q}`, path)).Inc()
}

// RecordGeneration tracks the latency and result of one generation call.
func RecordGeneration(took time.Duration, ok bool) {
	metrics.GetOrCreateHistogram(`generation_duration_seconds`).UpdateDuration(time.Now().Add(-took))
	metrics.GetOrCreateCounter(fmt.Sprintf(`generation_calls_total{ok="%t"}`, ok)).Inc()
}

// RecordDelivery counts one email delivery attempt.
func RecordDelivery(delivered bool) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`email_deliveries_total{delivered="%t"}`, delivered)).Inc()
}

// RecordWebhook counts processed webhook notifications by result.
func RecordWebhook(result string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`payment_webhooks_total{result=%q}`, result)).Inc()
}

// RecordCheckout counts checkout creation attempts.
func RecordCheckout(ok bool) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`checkouts_created_total{ok="%t"}`, ok)).Inc()
}
