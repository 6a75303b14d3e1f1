package delivery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ruteri/contract-analysis-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMailer struct {
	err   error
	panic any
	wait  bool
	sent  []interfaces.Message
}

func (f *fakeMailer) Send(ctx context.Context, msg interfaces.Message) error {
	if f.panic != nil {
		panic(f.panic)
	}
	if f.wait {
		<-ctx.Done()
		return ctx.Err()
	}
	f.sent = append(f.sent, msg)
	return f.err
}

func testMessage() interfaces.Message {
	return interfaces.Message{
		To:             "ana@example.com",
		Subject:        Subject,
		HTMLBody:       "<h2>Análise</h2>",
		AttachmentName: "contrato.pdf",
		Attachment:     []byte("%PDF-1.4 body"),
	}
}

func TestNotifierSend(t *testing.T) {
	testCases := []struct {
		name          string
		mailer        interfaces.Mailer
		timeout       time.Duration
		wantDelivered bool
		wantErrSubstr string
	}{
		{
			name:          "delivered",
			mailer:        &fakeMailer{},
			wantDelivered: true,
		},
		{
			name:          "mailer error",
			mailer:        &fakeMailer{err: errors.New("535 authentication failed")},
			wantErrSubstr: "535 authentication failed",
		},
		{
			name:          "mailer panic",
			mailer:        &fakeMailer{panic: "boom"},
			wantErrSubstr: "boom",
		},
		{
			name:          "timeout",
			mailer:        &fakeMailer{wait: true},
			timeout:       10 * time.Millisecond,
			wantErrSubstr: "deadline exceeded",
		},
		{
			name:          "no mailer configured",
			mailer:        nil,
			wantErrSubstr: interfaces.ErrMailerNotConfigured.Error(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n := NewNotifier(tc.mailer, tc.timeout, quietLogger())

			out := n.Send(context.Background(), testMessage())
			assert.Equal(t, tc.wantDelivered, out.Delivered)
			if tc.wantDelivered {
				assert.Nil(t, out.Error)
				return
			}
			require.NotNil(t, out.Error)
			assert.Contains(t, *out.Error, tc.wantErrSubstr)
		})
	}
}

func TestBrevoMailerSend(t *testing.T) {
	var (
		gotKey  string
		gotBody brevoRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotKey = r.Header.Get("api-key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"messageId":"<abc@smtp-relay.mailin.fr>"}`))
	}))
	defer srv.Close()

	m := NewBrevoMailer("xkeysib-test", ParseSender("Dra. Cláusula <draclausula@gmail.com>"), srv.URL)
	require.NoError(t, m.Send(context.Background(), testMessage()))

	assert.Equal(t, "xkeysib-test", gotKey)
	assert.Equal(t, "draclausula@gmail.com", gotBody.Sender.Email)
	assert.Equal(t, "Dra. Cláusula", gotBody.Sender.Name)
	require.Len(t, gotBody.To, 1)
	assert.Equal(t, "ana@example.com", gotBody.To[0].Email)
	assert.Equal(t, Subject, gotBody.Subject)
	assert.Equal(t, "<h2>Análise</h2>", gotBody.HTMLContent)
	require.Len(t, gotBody.Attachment, 1)
	assert.Equal(t, "contrato.pdf", gotBody.Attachment[0].Name)

	raw, err := base64.StdEncoding.DecodeString(gotBody.Attachment[0].Content)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 body"), raw)
}

func TestBrevoMailerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"unauthorized","message":"Key not found"}`))
	}))
	defer srv.Close()

	err := NewBrevoMailer("bad", Sender{Email: "a@b.c"}, srv.URL).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Key not found")

	err = NewBrevoMailer("", Sender{Email: "a@b.c"}, srv.URL).Send(context.Background(), testMessage())
	assert.ErrorIs(t, err, interfaces.ErrMailerNotConfigured)
}

func TestBrevoMailerWithoutAttachment(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	msg := testMessage()
	msg.Attachment = nil
	require.NoError(t, NewBrevoMailer("key", Sender{Email: "a@b.c"}, srv.URL).Send(context.Background(), msg))
	assert.NotContains(t, raw, "attachment")
}

func TestSMTPMailerBuildMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com"}, Sender{Name: "Dra. Cláusula", Email: "draclausula@example.com"})

	msg, err := m.buildMessage(testMessage())
	require.NoError(t, err)

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, rcpts)
	assert.Len(t, msg.GetAttachments(), 1)

	_, err = m.buildMessage(interfaces.Message{To: "not an address"})
	assert.Error(t, err)

	_, err = m.buildMessage(interfaces.Message{})
	assert.Error(t, err)
}

func TestSMTPMailerNotConfigured(t *testing.T) {
	err := NewSMTPMailer(SMTPConfig{}, Sender{Email: "a@b.c"}).Send(context.Background(), testMessage())
	assert.ErrorIs(t, err, interfaces.ErrMailerNotConfigured)
}

func TestParseSender(t *testing.T) {
	testCases := []struct {
		in   string
		want Sender
	}{
		{in: "Dra. Cláusula <draclausula@gmail.com>", want: Sender{Name: "Dra. Cláusula", Email: "draclausula@gmail.com"}},
		{in: "contato@example.com", want: Sender{Name: DefaultSenderName, Email: "contato@example.com"}},
		{in: "<contato@example.com>", want: Sender{Name: DefaultSenderName, Email: "contato@example.com"}},
		{in: "Equipe Jurídica, Ltda <eq@example.com", want: Sender{Name: DefaultSenderName, Email: "eq@example.com"}},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseSender(tc.in))
		})
	}
}
