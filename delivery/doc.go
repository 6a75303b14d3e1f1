// Package delivery sends analysis results by email.
//
// Notifier wraps an interfaces.Mailer and converts every failure (missing
// configuration, transport errors, timeouts, panics) into a DeliveryOutcome so
// that a delivery problem never aborts a request whose analysis already
// succeeded. BrevoMailer talks to the Brevo HTTP API and SMTPMailer submits
// over SMTP; both attach the original upload unmodified.
package delivery
