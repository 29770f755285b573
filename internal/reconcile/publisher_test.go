package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadidevlabx/shopfront/internal/domain"
)

type mockWriter struct {
	messages []kafka.Message
	err      error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func fallbackOrder() domain.Order {
	return domain.Order{
		ID:              "1726000000123",
		OrderNumber:     "ORD-00000123",
		Total:           45.0,
		Currency:        "USD",
		PaymentMethodID: "pm_123",
		CreatedAt:       time.UnixMilli(1726000000123),
	}
}

func TestRecordFallback_PublishesKeyedEvent(t *testing.T) {
	writer := &mockWriter{}
	sut := NewPublisher(writer, zerolog.Nop())

	draft := domain.OrderDraft{Total: 45.0}
	err := sut.RecordFallback(context.Background(), 42, fallbackOrder(), draft, "order service unavailable")
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]

	assert.Equal(t, "1726000000123", string(msg.Key), "messages for one order must share a partition")
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "order.fallback_created", string(msg.Headers[0].Value))

	var event FallbackOrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "1726000000123", event.OrderID)
	assert.Equal(t, int64(42), event.UserID)
	assert.Equal(t, "order service unavailable", event.Reason)
	assert.Equal(t, 45.0, event.Draft.Total)
}

func TestRecordFallback_WriterFailure(t *testing.T) {
	writer := &mockWriter{err: errors.New("broker unreachable")}
	sut := NewPublisher(writer, zerolog.Nop())

	err := sut.RecordFallback(context.Background(), 42, fallbackOrder(), domain.OrderDraft{}, "reason")
	require.ErrorContains(t, err, "publish fallback event")
}

func TestNopRecorder(t *testing.T) {
	err := NopRecorder{}.RecordFallback(context.Background(), 42, fallbackOrder(), domain.OrderDraft{}, "reason")
	assert.NoError(t, err)
}
