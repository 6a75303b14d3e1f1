/*
Package httpserver exposes the contract analysis service over HTTP.

# Endpoints

  - GET  /                                   service name and version
  - POST /api/contrato/analisar              multipart upload, runs one orchestrated analysis
  - POST /api/pagamento/criar-checkout       creates a Mercado Pago checkout
  - GET  /api/pagamento/verificar-status     reports whether a user has an approved payment
  - POST /api/pagamento/webhook-mercadopago  provider notifications, always answered with 200

Health endpoints (/livez, /readyz, /drain, /undrain) and, optionally, pprof under
/debug are served on the same listener. Metrics are served on a separate
listener by the metrics package.

# Analysis responses

A successful analysis answers 200 with the HTML result, whether the email was
delivered and whether the payment was bypassed by voucher:

	{"ok":true,"mensagem":"...","html":"<h2>...</h2>","email_enviado":false,
	 "email_erro":"...","bypass_pagamento":true,"request_id":"...","version":"..."}

Every failure is a structured body naming the outcome:

	{"ok":false,"outcome":"denied","error":"...","request_id":"...","version":"..."}

with status 400 (client_error), 403 (denied) or 500 (unavailable,
generation_failed, internal_error). A ledger that cannot be reached is
reported as unavailable, never as denied.
*/
package httpserver
