// Package payments integrates the Mercado Pago checkout with the payment ledger.
//
// Service.CreateCheckout creates a one-item preference and records it as a
// pending transaction. Service.HandleNotification processes webhook
// notifications: it optionally verifies the x-signature header, fetches the
// payment from the provider and merges its status into the ledger under
// (user_id, payment_id). Webhook processing never fails towards the caller.
package payments
