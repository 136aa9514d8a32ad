package stock

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
)

// Notifier delivers operational notifications raised by domain events
type Notifier interface {
	Notify(ctx context.Context, tenantID, subject, body string) error
}

// ShortageNotificationHandler turns shortage and threshold events into
// notifications. Delivery failures are logged and swallowed; advisory
// signals never fail the transaction that raised them.
type ShortageNotificationHandler struct {
	notifier Notifier
	logger   *zap.Logger
}

// NewShortageNotificationHandler creates the handler
func NewShortageNotificationHandler(notifier Notifier, logger *zap.Logger) *ShortageNotificationHandler {
	return &ShortageNotificationHandler{notifier: notifier, logger: logger}
}

// EventTypes returns the events this handler subscribes to
func (h *ShortageNotificationHandler) EventTypes() []string {
	return []string{
		stock.EventTypeStockShortageDetected,
		stock.EventTypeStockBelowThreshold,
	}
}

// Handle processes a shortage or threshold event
func (h *ShortageNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var subject, body string
	switch e := event.(type) {
	case *stock.StockShortageDetectedEvent:
		subject = "Material shortage detected"
		body = fmt.Sprintf("Product %s requires %s but only %s is available",
			e.ProductID, e.Required, e.Available)
	case *stock.StockBelowThresholdEvent:
		subject = "Stock below reorder point"
		body = fmt.Sprintf("Product %s at location %s is down to %s (threshold %s)",
			e.ProductID, e.LocationID, e.OnHand, e.Threshold)
	default:
		return nil
	}

	if err := h.notifier.Notify(ctx, event.TenantID().String(), subject, body); err != nil {
		h.logger.Warn("failed to deliver stock notification",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
	return nil
}
