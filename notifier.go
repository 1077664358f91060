package credentials

import (
	"context"
)

type noopNotifier struct{}

func (noopNotifier) Deliver(ctx context.Context, email, resetToken string) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// LogNotifier writes reset deliveries to the logger instead of a real
// channel. Development use only; wire an actual mailer in production.
type LogNotifier struct {
	Logger Logger
}

// Deliver satisfies the Notifier interface.
func (n LogNotifier) Deliver(ctx context.Context, email, resetToken string) error {
	logger := n.Logger
	if logger == nil {
		logger = defLogger{}
	}

	logger.Info("====== SENDING RESET NOTIFICATION =======")
	logger.Info("to: %s", email)
	logger.Info("link: /password-reset?token=%s", resetToken)
	return nil
}
