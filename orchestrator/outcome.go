package orchestrator

import "github.com/ruteri/contract-analysis-backend/interfaces"

// State is one step of an orchestration.
type State string

const (
	StateStart          State = "start"
	StateGateChecked    State = "gate_checked"
	StateFileStaged     State = "file_staged"
	StateAnalyzed       State = "analyzed"
	StateDelivered      State = "delivered"
	StateDeliveryFailed State = "delivery_failed"
	StateCleaned        State = "cleaned"
	StateResponded      State = "responded"

	StateDenied           State = "denied"
	StateUnavailable      State = "unavailable"
	StateClientError      State = "client_error"
	StateGenerationFailed State = "generation_failed"
	StateInternalError    State = "internal_error"
)

// OutcomeKind tags the result of one orchestration.
type OutcomeKind string

const (
	OutcomeSucceeded        OutcomeKind = "succeeded"
	OutcomeDenied           OutcomeKind = "denied"
	OutcomeUnavailable      OutcomeKind = "unavailable"
	OutcomeClientError      OutcomeKind = "client_error"
	OutcomeGenerationFailed OutcomeKind = "generation_failed"
	OutcomeInternalError    OutcomeKind = "internal_error"
)

// Outcome is the tagged result of Run. Err is set for every kind but
// OutcomeSucceeded; Delivery is set only when a delivery was attempted.
type Outcome struct {
	Kind      OutcomeKind
	RequestID string
	Decision  interfaces.Decision

	HTML     string
	Delivery *interfaces.DeliveryOutcome

	Err error

	// Trace lists the states the orchestration went through, in order.
	Trace []State
}

// Bypass reports whether access was granted by voucher.
func (o Outcome) Bypass() bool {
	return o.Decision.Allow && o.Decision.Path == interfaces.PathBypass
}

// Delivered reports whether the result email was sent.
func (o Outcome) Delivered() bool {
	return o.Delivery != nil && o.Delivery.Delivered
}
