package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hadidevlabx/shopfront/internal/backend"
	"github.com/hadidevlabx/shopfront/internal/domain"
)

// OrdersBackend is the read side of the commerce orders API.
type OrdersBackend interface {
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrdersBackend
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersBackend, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrders(ctx, sess.Token)
	if err != nil {
		handleBackendError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	order, err := h.orders.GetOrder(ctx, sess.Token, orderID)
	if err != nil {
		handleBackendError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func handleBackendError(w http.ResponseWriter, err error) {
	if errors.Is(err, backend.ErrUnauthenticated) {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "session expired")
		return
	}

	var reqErr *backend.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.Status {
		case http.StatusNotFound:
			respondError(w, http.StatusNotFound, "not_found", reqErr.Message)
		case http.StatusForbidden:
			respondError(w, http.StatusForbidden, "permission_denied", reqErr.Message)
		default:
			respondError(w, http.StatusBadGateway, "backend_error", reqErr.Message)
		}
		return
	}

	respondError(w, http.StatusBadGateway, "backend_unavailable", "orders service is temporarily unavailable")
}
