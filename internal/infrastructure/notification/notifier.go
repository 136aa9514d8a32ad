package notification

import (
	"context"

	"go.uber.org/zap"

	appstock "github.com/mes/backend/internal/application/stock"
)

// LogNotifier writes notifications to the structured log. It stands in for
// a mail or chat integration; the delivery channel is configuration, the
// contract is appstock.Notifier.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements appstock.Notifier
func (n *LogNotifier) Notify(ctx context.Context, tenantID, subject, body string) error {
	n.logger.Info("notification",
		zap.String("tenant_id", tenantID),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

var _ appstock.Notifier = (*LogNotifier)(nil)
