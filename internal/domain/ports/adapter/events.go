package adapter

import (
	"context"

	"storefront/internal/domain/model"
)

// EventPublisher announces storefront events to downstream consumers
// (fulfilment, analytics). Publishing is best-effort from the caller's view.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *model.Order) error
	Close() error
}
