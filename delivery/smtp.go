package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ruteri/contract-analysis-backend/interfaces"
	"github.com/wneessen/go-mail"
)

// SMTPConfig configures SMTP submission.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPMailer submits mail over SMTP with mandatory STARTTLS and PLAIN auth.
type SMTPMailer struct {
	cfg    SMTPConfig
	sender Sender
}

func NewSMTPMailer(cfg SMTPConfig, sender Sender) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPMailer{cfg: cfg, sender: sender}
}

// Send implements interfaces.Mailer.
func (s *SMTPMailer) Send(ctx context.Context, msg interfaces.Message) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("%w: smtp host is not set", interfaces.ErrMailerNotConfigured)
	}

	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password))
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	return nil
}

func (s *SMTPMailer) buildMessage(msg interfaces.Message) (*mail.Msg, error) {
	if msg.To == "" {
		return nil, errors.New("recipient address is empty")
	}

	m := mail.NewMsg()
	if err := m.FromFormat(s.sender.Name, s.sender.Email); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	if msg.AttachmentName != "" && len(msg.Attachment) > 0 {
		m.AttachReadSeeker(msg.AttachmentName, bytes.NewReader(msg.Attachment))
	}
	return m, nil
}
