package services

import (
	"context"
	"log/slog"

	"transcoop/internal/amqp"
)

// EventPublisher is satisfied by *amqp.Client. A nil publisher disables events.
type EventPublisher interface {
	PublishSettlementSaved(ctx context.Context, m amqp.SettlementSaved) error
	PublishLoanPaymentApplied(ctx context.Context, m amqp.LoanPaymentApplied) error
}

// publish runs fn when events are enabled. Failures are logged, never
// returned: the record is already committed.
func publish(ctx context.Context, p EventPublisher, eventType string, fn func(EventPublisher) error) {
	if p == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping event", "event_type", eventType)
		return
	}
	if err := fn(p); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event", "event_type", eventType, "error", err)
	}
}
