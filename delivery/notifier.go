package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/contract-analysis-backend/interfaces"
	"github.com/ruteri/contract-analysis-backend/metrics"
)

// Subject is the subject line of analysis result emails.
const Subject = "Resultado da Análise Contratual - Dra. Cláusula"

// Notifier makes one best-effort delivery attempt per message. It never
// returns an error: every failure becomes a DeliveryOutcome.
type Notifier struct {
	mailer  interfaces.Mailer
	timeout time.Duration
	log     *slog.Logger
}

// NewNotifier wraps mailer. A nil mailer makes every delivery fail with
// ErrMailerNotConfigured.
func NewNotifier(mailer interfaces.Mailer, timeout time.Duration, log *slog.Logger) *Notifier {
	return &Notifier{mailer: mailer, timeout: timeout, log: log}
}

// Send attempts delivery of msg exactly once.
func (n *Notifier) Send(ctx context.Context, msg interfaces.Message) (outcome interfaces.DeliveryOutcome) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("Mailer panicked", slog.Any("panic", r), slog.String("to", msg.To))
			outcome = failedDelivery(fmt.Sprintf("mailer panic: %v", r))
		}
		metrics.RecordDelivery(outcome.Delivered)
	}()

	if n.mailer == nil {
		return failedDelivery(interfaces.ErrMailerNotConfigured.Error())
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		n.log.Warn("Email delivery failed", slog.String("to", msg.To), "err", err)
		return failedDelivery(err.Error())
	}

	n.log.Info("Email delivered", slog.String("to", msg.To), slog.String("attachment", msg.AttachmentName))
	return interfaces.DeliveryOutcome{Delivered: true}
}

func failedDelivery(reason string) interfaces.DeliveryOutcome {
	return interfaces.DeliveryOutcome{Delivered: false, Error: &reason}
}
