// Package main (cmd/httpserver) runs the contract analysis API server.
//
// The server accepts contract uploads, checks that the requester has paid (or
// presented the bypass voucher), has the document analysed by Gemini, emails
// the resulting HTML report and returns it in the response. It also creates
// Mercado Pago checkouts and records payment state reported by Mercado Pago
// webhooks in the payment ledger.
//
// Configuration is handled through command-line flags, most of which can also
// be set through the environment (MERCADOPAGO_ACCESS_TOKEN, BREVO_API_KEY,
// EMAIL_FROM, BYPASS_VOUCHER, GEMINI_API_KEY, GEMINI_MODEL, ALLOWED_ORIGINS).
// When --vault-addr is set, credentials missing from flags and environment
// are read from a Vault KV v2 secret.
//
// The server implements graceful shutdown on receiving termination signals (SIGINT/SIGTERM)
// and supports health checks, metrics collection, and optional profiling endpoints.
//
// Example usage:
//
//	contract-analysis-server --listen-addr=0.0.0.0:8080 \
//	    --ledger=sqlite:///var/lib/contract-analysis/ledger.db \
//	    --mailer=brevo \
//	    --notification-url=https://api.example.com/api/pagamento/webhook-mercadopago
package main
