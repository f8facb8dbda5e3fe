package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"storefront/internal/domain/model"
	"storefront/internal/domain/ports/adapter"
)

var _ adapter.EventPublisher = (*Producer)(nil)

const EventOrderCreated = "OrderCreated"

// Envelope wraps every storefront event on the wire.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID          string           `json:"order_id"`
	BuyerID          string           `json:"buyer_id"`
	PaymentSessionID string           `json:"payment_session_id"`
	Items            []model.LineItem `json:"items"`
	TotalAmount      int64            `json:"total_amount"`
}

// Producer publishes order events, keyed by buyer id so a buyer's events stay
// ordered within a partition.
type Producer struct {
	w *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *Producer) PublishOrderCreated(ctx context.Context, o *model.Order) error {
	payload, err := json.Marshal(OrderCreatedPayload{
		OrderID:          o.ID,
		BuyerID:          o.BuyerID,
		PaymentSessionID: o.PaymentSessionID,
		Items:            o.LineItems,
		TotalAmount:      o.TotalAmount,
	})
	if err != nil {
		return err
	}
	env, err := json.Marshal(Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventOrderCreated,
		EventVersion: 1,
		OccurredAt:   time.Now(),
		Producer:     "storefront-api",
		Payload:      payload,
	})
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.BuyerID),
		Value: env,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error { return p.w.Close() }
