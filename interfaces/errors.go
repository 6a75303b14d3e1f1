package interfaces

import "errors"

var (
	// ErrLedgerUnavailable means the payment ledger is not configured or could
	// not be queried. It is an operational failure, never a denial.
	ErrLedgerUnavailable = errors.New("payment ledger unavailable")

	// ErrProviderNotConfigured is returned when no payment provider credentials are set.
	ErrProviderNotConfigured = errors.New("payment provider not configured")

	// ErrProviderResponse is returned when the provider answers with an incomplete payload.
	ErrProviderResponse = errors.New("incomplete payment provider response")

	ErrGenerationFailed    = errors.New("generation failed")
	ErrEmptyUpload         = errors.New("empty upload")
	ErrMailerNotConfigured = errors.New("mailer not configured")
	ErrInvalidLocationURI  = errors.New("invalid location URI")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
)
