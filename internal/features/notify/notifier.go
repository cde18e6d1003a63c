package notify

import (
	"panel-connector/internal/core/logger"

	"go.uber.org/zap"
)

// Notifier dispatches fire-and-forget notifications. Delivery failures are
// an implementation concern; they are logged and never propagated to the
// caller.
type Notifier interface {
	// NotifyAdmin notifies operators about an event.
	NotifyAdmin(kind string, payload map[string]any)
	// NotifyUser notifies the affected end user about an event.
	NotifyUser(kind string, payload map[string]any)
}

// LogNotifier is the default Notifier, writing notifications to the
// application log. Real delivery channels (email, webhooks) plug in behind
// the same interface.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{
		logger: logger.Get(),
	}
}

// NotifyAdmin logs an operator-facing notification.
func (n *LogNotifier) NotifyAdmin(kind string, payload map[string]any) {
	n.logger.Warn("Admin notification",
		zap.String("kind", kind),
		zap.Any("payload", payload),
	)
}

// NotifyUser logs a user-facing notification.
func (n *LogNotifier) NotifyUser(kind string, payload map[string]any) {
	n.logger.Info("User notification",
		zap.String("kind", kind),
		zap.Any("payload", payload),
	)
}
