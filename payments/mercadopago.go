package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/ruteri/contract-analysis-backend/interfaces"
)

type preferenceCreator interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentGetter interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// MercadoPagoProvider creates checkout preferences and resolves payments
// through the Mercado Pago API.
type MercadoPagoProvider struct {
	preferences     preferenceCreator
	payments        paymentGetter
	notificationURL string
}

// NewMercadoPagoProvider creates a provider authenticated with accessToken.
// notificationURL, when set, is sent with every preference so the provider
// knows where to deliver webhooks.
func NewMercadoPagoProvider(accessToken, notificationURL string) (*MercadoPagoProvider, error) {
	if accessToken == "" {
		return nil, interfaces.ErrProviderNotConfigured
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to configure mercado pago client: %w", err)
	}

	return &MercadoPagoProvider{
		preferences:     preference.NewClient(cfg),
		payments:        payment.NewClient(cfg),
		notificationURL: notificationURL,
	}, nil
}

// CreateCheckout creates a single-item preference. The preference id doubles
// as the ledger transaction id until the provider reports a payment.
func (p *MercadoPagoProvider) CreateCheckout(ctx context.Context, req interfaces.CheckoutRequest) (*interfaces.Checkout, error) {
	pref, err := p.preferences.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{{
			Title:     req.ItemTitle,
			Quantity:  1,
			UnitPrice: req.ItemPrice,
		}},
		Metadata: map[string]any{
			"user_id":    req.UserID,
			"user_email": req.UserEmail,
		},
		ExternalReference: req.UserID,
		NotificationURL:   p.notificationURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create preference: %w", err)
	}
	if pref == nil {
		return nil, interfaces.ErrProviderResponse
	}

	checkoutURL := pref.InitPoint
	if checkoutURL == "" {
		checkoutURL = pref.SandboxInitPoint
	}
	if checkoutURL == "" || pref.ID == "" {
		return nil, fmt.Errorf("%w: missing checkout url or preference id", interfaces.ErrProviderResponse)
	}

	return &interfaces.Checkout{
		CheckoutURL:  checkoutURL,
		PaymentID:    pref.ID,
		PreferenceID: pref.ID,
	}, nil
}

// GetPayment fetches a payment by its numeric id.
func (p *MercadoPagoProvider) GetPayment(ctx context.Context, paymentID string) (*interfaces.PaymentInfo, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, fmt.Errorf("invalid payment id %q: %w", paymentID, err)
	}

	resp, err := p.payments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment %d: %w", id, err)
	}
	if resp == nil {
		return nil, interfaces.ErrProviderResponse
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment: %w", err)
	}

	return &interfaces.PaymentInfo{
		ID:     paymentID,
		Status: resp.Status,
		UserID: paymentUserID(resp.Metadata, resp.ExternalReference),
		Raw:    raw,
	}, nil
}

// paymentUserID reads user_id from the checkout metadata, falling back to
// the external reference.
func paymentUserID(metadata map[string]any, externalReference string) string {
	if v, ok := metadata["user_id"]; ok && v != nil {
		switch id := v.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		default:
			return fmt.Sprint(id)
		}
	}
	return externalReference
}
