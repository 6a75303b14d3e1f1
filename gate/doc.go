// Package gate implements the payment gate that guards analysis requests.
//
// A request is allowed when its voucher matches the configured bypass secret
// (checked before any ledger access) or when the payment ledger holds an
// approved transaction for the user. Which transaction counts is selected by
// Policy: PolicyEverApproved (the default) accepts any approved transaction,
// PolicyLatest requires the most recent transaction to be approved.
//
// A missing or failing ledger is reported as ErrLedgerUnavailable, which
// callers must surface as a service failure rather than a denial.
package gate
