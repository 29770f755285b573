package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hadidevlabx/shopfront/internal/cart"
)

type CartHandler struct {
	carts   *cart.Store
	timeout time.Duration
}

func NewCartHandler(carts *cart.Store, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	respondJSON(w, http.StatusOK, h.carts.Cart(ctx, sess))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.carts.Add(ctx, sess, req.ProductID, req.Quantity); err != nil {
		handleCartError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, h.carts.Cart(ctx, sess))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil || itemID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.carts.UpdateQuantity(ctx, sess, itemID, req.Quantity); err != nil {
		handleCartError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, h.carts.Cart(ctx, sess))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil || itemID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be a positive integer")
		return
	}

	if err := h.carts.Remove(ctx, sess, itemID); err != nil {
		handleCartError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, h.carts.Cart(ctx, sess))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.carts.Clear(ctx, sess); err != nil {
		handleCartError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, h.carts.Cart(ctx, sess))
}
