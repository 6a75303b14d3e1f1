package interfaces

import "context"

// PaymentLedger is the per-user, append-only record of checkout state transitions.
//
// Implementations must make Put idempotent under merge semantics: writing the
// same (UserID, TransactionID) again only overwrites the non-empty fields supplied.
type PaymentLedger interface {
	// Put writes a transaction with set-with-merge semantics.
	Put(ctx context.Context, tx Transaction) error

	// LatestApproved returns the approved transaction with the latest timestamp,
	// or nil when the user has none.
	LatestApproved(ctx context.Context, userID string) (*Transaction, error)

	// Latest returns the most recent transaction of any status, or nil.
	Latest(ctx context.Context, userID string) (*Transaction, error)

	// Available reports whether the backing store can currently be reached.
	Available(ctx context.Context) bool

	// Name identifies the backend in logs.
	Name() string
}

// LedgerFactory creates ledgers from location URIs such as memory://,
// sqlite:///var/lib/ledger.db or dynamodb://table?region=us-east-1.
type LedgerFactory interface {
	LedgerFor(locationURI string) (PaymentLedger, error)
}

// Generator is the external generation collaborator: it reads the document at
// filePath, combines it with the instruction and returns markup text.
type Generator interface {
	Generate(ctx context.Context, instruction string, filePath string) (string, error)
}

// Mailer sends one transactional email. SMTP and HTTP API relays both satisfy it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// PaymentProvider creates checkouts and resolves payments reported by webhooks.
type PaymentProvider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
}
