package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"medrestock/internal/domain"
)

// Event types emitted by the inventory service.
const (
	TypeRestockOrderCreated   = "restock.order.created"
	TypeRestockOrderDelivered = "restock.order.delivered"
)

// Publisher delivers restock lifecycle events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event RestockEvent) error
	Close() error
}

// RestockEvent carries the order as it was right after the change.
type RestockEvent struct {
	ID         string              `json:"event_id"`
	Type       string              `json:"event_type"`
	OccurredAt time.Time           `json:"occurred_at"`
	Order      domain.RestockOrder `json:"order"`
	// Quantity on hand after the change; only set on delivery.
	StockAfter *int `json:"stock_after,omitempty"`
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event RestockEvent) error {
	p.logger.Info("Event published (log only)",
		zap.String("event_type", event.Type),
		zap.String("event_id", event.ID),
		zap.String("order_id", event.Order.ID),
		zap.String("medication_id", event.Order.MedicationID),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
