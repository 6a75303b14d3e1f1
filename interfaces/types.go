package interfaces

import (
	"encoding/json"
	"time"
)

// TransactionStatus is the provider-reported state of one checkout attempt.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "pending"
	StatusApproved TransactionStatus = "approved"
	StatusRejected TransactionStatus = "rejected"
	StatusUnknown  TransactionStatus = "unknown"
)

// NormalizeStatus maps a provider status string onto the ledger enum.
// Provider states that are neither pending nor a final verdict (in_process,
// authorized, refunded, ...) are kept as unknown.
func NormalizeStatus(s string) TransactionStatus {
	switch TransactionStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return TransactionStatus(s)
	case "cancelled", "charged_back":
		return StatusRejected
	default:
		return StatusUnknown
	}
}

// Transaction is one entry of a user's payment ledger, keyed by
// (UserID, TransactionID). Writes merge: empty fields never overwrite stored ones.
type Transaction struct {
	UserID        string            `json:"user_id" dynamodbav:"user_id"`
	TransactionID string            `json:"transaction_id" dynamodbav:"transaction_id"`
	Status        TransactionStatus `json:"status,omitempty" dynamodbav:"status,omitempty"`

	// Timestamp is assigned by the server at write time and orders "latest".
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`

	PreferenceID string `json:"preference_id,omitempty" dynamodbav:"preference_id,omitempty"`
	PaymentID    string `json:"payment_id,omitempty" dynamodbav:"payment_id,omitempty"`
	CheckoutURL  string `json:"checkout_url,omitempty" dynamodbav:"checkout_url,omitempty"`
	UserEmail    string `json:"user_email,omitempty" dynamodbav:"user_email,omitempty"`

	// RawPayload is the provider response kept for audit.
	RawPayload json.RawMessage `json:"raw,omitempty" dynamodbav:"raw,omitempty"`
}

// AuthPath records which branch of the payment gate produced a decision.
type AuthPath string

const (
	PathBypass AuthPath = "bypass"
	PathPaid   AuthPath = "paid"
	PathDenied AuthPath = "denied"
)

// Decision is the result of a payment gate check.
type Decision struct {
	Allow  bool     `json:"allow"`
	Path   AuthPath `json:"path"`
	Reason string   `json:"reason"`

	// Transaction is the ledger entry that granted access on the paid path.
	Transaction *Transaction `json:"-"`
}

// AnalysisRequest is the ephemeral input of one orchestrated analysis.
// It is never persisted.
type AnalysisRequest struct {
	RequesterName  string
	RequesterEmail string
	Party          string
	UserID         string
	Voucher        string

	FileName    string
	FileContent []byte
}

// Message is one outbound email with at most one attachment.
type Message struct {
	To             string
	Subject        string
	HTMLBody       string
	AttachmentName string
	Attachment     []byte
}

// DeliveryOutcome reports a best-effort delivery attempt.
type DeliveryOutcome struct {
	Delivered bool    `json:"delivered"`
	Error     *string `json:"error"`
}

// CheckoutRequest describes a single-item checkout for a user.
type CheckoutRequest struct {
	ItemTitle string
	ItemPrice float64
	UserEmail string
	UserID    string
}

// Checkout is what the payment provider returns for a created checkout.
type Checkout struct {
	CheckoutURL  string `json:"checkout_url"`
	PaymentID    string `json:"payment_id"`
	PreferenceID string `json:"-"`
}

// PaymentInfo is the provider's view of a payment, as fetched on webhook delivery.
type PaymentInfo struct {
	ID     string
	Status string

	// UserID comes from the checkout metadata, falling back to the external reference.
	UserID string
	Raw    json.RawMessage
}
