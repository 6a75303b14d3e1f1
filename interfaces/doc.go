// Package interfaces defines the domain types and collaborator contracts of the
// contract analysis service, separating them from their implementations.
//
// # Ledger
//
// PaymentLedger is the per-user transaction ledger written by the payment webhook
// and read by the payment gate. LedgerFactory builds ledgers from location URIs.
//
// # External collaborators
//
//   - Generator: instruction + document path -> markup text
//   - Mailer: one outbound email with an optional attachment
//   - PaymentProvider: checkout creation and payment lookup
//
// # Types
//
//   - Transaction / TransactionStatus: one ledger entry and its state
//   - Decision / AuthPath: the outcome of a gate check
//   - AnalysisRequest: the ephemeral input of one analysis
//   - DeliveryOutcome: the best-effort result of a delivery attempt
package interfaces
