package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/contract-analysis-backend/interfaces"
	"github.com/ruteri/contract-analysis-backend/metrics"
)

// WebhookResult describes what happened to one webhook notification. The
// HTTP layer acknowledges every notification regardless of the result.
type WebhookResult string

const (
	WebhookStored           WebhookResult = "stored"
	WebhookIgnored          WebhookResult = "ignored"
	WebhookInvalidSignature WebhookResult = "invalid_signature"
	WebhookNoUser           WebhookResult = "no_user"
	WebhookFailed           WebhookResult = "failed"
)

// WebhookRequest carries the raw parts of a provider notification.
type WebhookRequest struct {
	Notification Notification
	Signature    string
	RequestID    string
}

// Service connects the payment provider with the ledger.
type Service struct {
	provider      interfaces.PaymentProvider
	ledger        interfaces.PaymentLedger
	webhookSecret string
	timeout       time.Duration
	log           *slog.Logger

	now func() time.Time
}

// NewService creates a payments service. provider and ledger may be nil when
// not configured; the affected operations then fail or no-op as documented.
func NewService(provider interfaces.PaymentProvider, ledger interfaces.PaymentLedger, webhookSecret string, timeout time.Duration, log *slog.Logger) *Service {
	return &Service{
		provider:      provider,
		ledger:        ledger,
		webhookSecret: webhookSecret,
		timeout:       timeout,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateCheckout creates a provider checkout and records it as pending.
// A missing ledger does not fail the checkout; the record is skipped with a warning.
func (s *Service) CreateCheckout(ctx context.Context, req interfaces.CheckoutRequest) (*interfaces.Checkout, error) {
	if s.provider == nil {
		return nil, interfaces.ErrProviderNotConfigured
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	checkout, err := s.provider.CreateCheckout(ctx, req)
	metrics.RecordCheckout(err == nil)
	if err != nil {
		return nil, err
	}

	if s.ledger == nil {
		s.log.Warn("No ledger configured, checkout not recorded", slog.String("user_id", req.UserID))
		return checkout, nil
	}

	err = s.ledger.Put(ctx, interfaces.Transaction{
		UserID:        req.UserID,
		TransactionID: checkout.PaymentID,
		Status:        interfaces.StatusPending,
		Timestamp:     s.now(),
		PreferenceID:  checkout.PreferenceID,
		CheckoutURL:   checkout.CheckoutURL,
		UserEmail:     req.UserEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record checkout: %w", err)
	}

	s.log.Info("Checkout created",
		slog.String("user_id", req.UserID),
		slog.String("payment_id", checkout.PaymentID))
	return checkout, nil
}

// HandleNotification processes one webhook notification and reports what it
// did. It never returns an error or panics: webhook processing must not
// trigger redelivery.
func (s *Service) HandleNotification(ctx context.Context, req WebhookRequest) (result WebhookResult) {
	log := s.log.With(slog.String("topic", req.Notification.Topic), slog.String("data_id", req.Notification.DataID))
	defer func() {
		if r := recover(); r != nil {
			log.Error("Webhook processing panicked", "panic", fmt.Sprint(r))
			result = WebhookFailed
		}
		metrics.RecordWebhook(string(result))
	}()

	if !req.Notification.IsPayment() {
		log.Debug("Ignoring webhook notification")
		return WebhookIgnored
	}

	if s.webhookSecret != "" {
		if err := VerifySignature(s.webhookSecret, req.Signature, req.RequestID, req.Notification.DataID); err != nil {
			log.Warn("Rejected webhook notification", "err", err)
			return WebhookInvalidSignature
		}
	}

	if s.provider == nil || s.ledger == nil {
		log.Warn("Webhook received without provider or ledger configured")
		return WebhookIgnored
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	info, err := s.provider.GetPayment(ctx, req.Notification.DataID)
	if err != nil {
		log.Error("Failed to fetch payment", "err", err)
		return WebhookFailed
	}
	if info.UserID == "" {
		log.Warn("Payment carries no user id")
		return WebhookNoUser
	}

	err = s.ledger.Put(ctx, interfaces.Transaction{
		UserID:        info.UserID,
		TransactionID: req.Notification.DataID,
		Status:        interfaces.NormalizeStatus(info.Status),
		Timestamp:     s.now(),
		PaymentID:     req.Notification.DataID,
		RawPayload:    info.Raw,
	})
	if err != nil {
		log.Error("Failed to record payment", "err", err)
		return WebhookFailed
	}

	log.Info("Payment recorded", slog.String("user_id", info.UserID), slog.String("status", info.Status))
	return WebhookStored
}

// StatusReport is the answer of a payment status check.
type StatusReport struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const (
	StatusReportApproved = "approved"
	StatusReportPending  = "pending_or_rejected"
)

// ReportStatus turns the transaction selected by the gate into a status report.
func ReportStatus(tx *interfaces.Transaction) StatusReport {
	if tx != nil && tx.Status == interfaces.StatusApproved {
		return StatusReport{Status: StatusReportApproved, Message: "Pagamento confirmado com sucesso."}
	}
	return StatusReport{Status: StatusReportPending, Message: "Pagamento não aprovado ou pendente."}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
