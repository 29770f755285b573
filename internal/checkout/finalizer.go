package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hadidevlabx/shopfront/internal/domain"
	"github.com/hadidevlabx/shopfront/internal/session"
)

// OrderCreator is the backend call that persists an order.
type OrderCreator interface {
	CreateOrder(ctx context.Context, token string, draft domain.OrderDraft, paymentMethodID string) (*domain.Order, error)
}

// FallbackRecorder flags a synthesized order for back-office
// reconciliation.
type FallbackRecorder interface {
	RecordFallback(ctx context.Context, userID int64, order domain.Order, draft domain.OrderDraft, reason string) error
}

// Finalizer turns a confirmed payment into an order. By the time it
// runs the user has been charged, so a backend failure is never
// surfaced: a locally consistent fallback order is synthesized instead
// and flagged for reconciliation.
type Finalizer struct {
	orders   OrderCreator
	recorder FallbackRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewFinalizer(orders OrderCreator, recorder FallbackRecorder, log zerolog.Logger) *Finalizer {
	return &Finalizer{
		orders:   orders,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

func (f *Finalizer) Finalize(ctx context.Context, sess session.Session, draft domain.OrderDraft, paymentMethodID string) domain.FinalizedOrder {
	order, err := f.orders.CreateOrder(ctx, sess.Token, draft, paymentMethodID)
	if err == nil {
		return domain.FinalizedOrder{Order: *order, Provenance: domain.ProvenanceConfirmed}
	}

	f.log.Error().Err(err).Int64("user_id", sess.UserID).
		Str("payment_method_id", paymentMethodID).
		Msg("order creation failed after successful payment, synthesizing fallback order")

	fallback := f.synthesize(draft, paymentMethodID)

	if errRec := f.recorder.RecordFallback(ctx, sess.UserID, fallback, draft, err.Error()); errRec != nil {
		f.log.Error().Err(errRec).Str("order_id", fallback.ID).
			Msg("failed to record fallback order for reconciliation")
	}

	return domain.FinalizedOrder{
		Order:          fallback,
		Provenance:     domain.ProvenanceFallback,
		FallbackReason: err.Error(),
	}
}

func (f *Finalizer) synthesize(draft domain.OrderDraft, paymentMethodID string) domain.Order {
	now := f.now()
	id := strconv.FormatInt(now.UnixMilli(), 10)

	items := make([]domain.OrderItem, 0, len(draft.Items))
	for i, item := range draft.Items {
		items = append(items, domain.OrderItem{
			ID:        fmt.Sprintf("item_%d_%s", i, id),
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Snapshot: domain.ProductSnapshot{
				Name:  item.Name,
				Image: item.Image,
				SKU:   fmt.Sprintf("SKU-%d", item.ProductID),
			},
		})
	}

	return domain.Order{
		ID:              id,
		OrderNumber:     orderNumber(id),
		Status:          domain.OrderStatusCompleted,
		PaymentStatus:   "paid",
		PaymentMethod:   "card",
		PaymentMethodID: paymentMethodID,
		Total:           draft.Total,
		Currency:        "USD",
		CreatedAt:       now,
		ShippingAddress: draft.ShippingAddress,
		BillingAddress:  draft.BillingAddress,
		Items:           items,
	}
}

func orderNumber(id string) string {
	suffix := id
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return "ORD-" + strings.ToUpper(suffix)
}
