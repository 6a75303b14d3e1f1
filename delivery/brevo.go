package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ruteri/contract-analysis-backend/interfaces"
)

// DefaultBrevoEndpoint is the Brevo transactional email API.
const DefaultBrevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoAttachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type brevoRequest struct {
	Sender      brevoContact      `json:"sender"`
	To          []brevoContact    `json:"to"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent"`
	Attachment  []brevoAttachment `json:"attachment,omitempty"`
}

// BrevoMailer sends mail through the Brevo HTTP API.
type BrevoMailer struct {
	apiKey     string
	endpoint   string
	sender     Sender
	httpClient *http.Client
}

// NewBrevoMailer creates a Brevo client. An empty endpoint selects DefaultBrevoEndpoint.
func NewBrevoMailer(apiKey string, sender Sender, endpoint string) *BrevoMailer {
	if endpoint == "" {
		endpoint = DefaultBrevoEndpoint
	}
	return &BrevoMailer{
		apiKey:     apiKey,
		endpoint:   endpoint,
		sender:     sender,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Send implements interfaces.Mailer.
func (b *BrevoMailer) Send(ctx context.Context, msg interfaces.Message) error {
	if b.apiKey == "" {
		return fmt.Errorf("%w: brevo api key is not set", interfaces.ErrMailerNotConfigured)
	}
	if msg.To == "" {
		return errors.New("recipient address is empty")
	}

	reqBody := brevoRequest{
		Sender:      brevoContact{Name: b.sender.Name, Email: b.sender.Email},
		To:          []brevoContact{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLBody,
	}
	if msg.AttachmentName != "" && len(msg.Attachment) > 0 {
		reqBody.Attachment = []brevoAttachment{{
			Name:    msg.AttachmentName,
			Content: base64.StdEncoding.EncodeToString(msg.Attachment),
		}}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Brevo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return fmt.Errorf("brevo error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
