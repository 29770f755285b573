// Package reconcile feeds fallback orders to back-office tooling. A
// fallback order exists only on the client side after the user was
// charged; the event stream is what lets the backend re-create it.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/hadidevlabx/shopfront/internal/domain"
)

const Topic = "order-reconciliation"

type FallbackOrderEvent struct {
	EventID         string            `json:"event_id"`
	OrderID         string            `json:"order_id"`
	OrderNumber     string            `json:"order_number"`
	UserID          int64             `json:"user_id"`
	Total           float64           `json:"total"`
	Currency        string            `json:"currency"`
	PaymentMethodID string            `json:"payment_method_id"`
	Reason          string            `json:"reason"`
	Draft           domain.OrderDraft `json:"draft"`
	OccurredAt      time.Time         `json:"occurred_at"`
}

func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// MessageWriter is the slice of kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher struct {
	writer MessageWriter
	log    zerolog.Logger
}

func NewPublisher(writer MessageWriter, log zerolog.Logger) *Publisher {
	return &Publisher{writer: writer, log: log}
}

// RecordFallback publishes the synthesized order keyed by order id so
// replays for one order stay in partition order.
func (p *Publisher) RecordFallback(ctx context.Context, userID int64, order domain.Order, draft domain.OrderDraft, reason string) error {
	event := FallbackOrderEvent{
		EventID:         uuid.NewString(),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		UserID:          userID,
		Total:           order.Total,
		Currency:        order.Currency,
		PaymentMethodID: order.PaymentMethodID,
		Reason:          reason,
		Draft:           draft,
		OccurredAt:      order.CreatedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal fallback event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order.fallback_created")},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish fallback event: %w", err)
	}

	p.log.Info().Str("order_id", order.ID).Str("event_id", event.EventID).
		Msg("fallback order flagged for reconciliation")
	return nil
}

// NopRecorder satisfies the recorder contract when no broker is
// configured; fallbacks are still logged by the finalizer.
type NopRecorder struct{}

func (NopRecorder) RecordFallback(context.Context, int64, domain.Order, domain.OrderDraft, string) error {
	return nil
}
