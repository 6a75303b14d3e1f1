package ledger

import "github.com/ruteri/contract-analysis-backend/interfaces"

// merge overlays the non-empty fields of update onto base.
func merge(base, update interfaces.Transaction) interfaces.Transaction {
	if update.Status != "" {
		base.Status = update.Status
	}
	if !update.Timestamp.IsZero() {
		base.Timestamp = update.Timestamp
	}
	if update.PreferenceID != "" {
		base.PreferenceID = update.PreferenceID
	}
	if update.PaymentID != "" {
		base.PaymentID = update.PaymentID
	}
	if update.CheckoutURL != "" {
		base.CheckoutURL = update.CheckoutURL
	}
	if update.UserEmail != "" {
		base.UserEmail = update.UserEmail
	}
	if len(update.RawPayload) > 0 {
		base.RawPayload = update.RawPayload
	}
	base.UserID = update.UserID
	base.TransactionID = update.TransactionID
	return base
}

// latest picks the transaction with the greatest timestamp among those
// accepted by keep. Ties resolve to the first one seen.
func latest(txs []interfaces.Transaction, keep func(interfaces.Transaction) bool) *interfaces.Transaction {
	var best *interfaces.Transaction
	for i := range txs {
		if keep != nil && !keep(txs[i]) {
			continue
		}
		if best == nil || txs[i].Timestamp.After(best.Timestamp) {
			tx := txs[i]
			best = &tx
		}
	}
	return best
}

func isApproved(tx interfaces.Transaction) bool {
	return tx.Status == interfaces.StatusApproved
}

func validateKey(tx interfaces.Transaction) error {
	if tx.UserID == "" || tx.TransactionID == "" {
		return errMissingKey
	}
	return nil
}
