package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/hadidevlabx/shopfront/internal/backend"
	"github.com/hadidevlabx/shopfront/internal/cart"
	"github.com/hadidevlabx/shopfront/internal/session"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func getSessionFromContext(ctx context.Context) session.Session {
	if sess, ok := ctx.Value("session").(session.Session); ok {
		return sess
	}
	return session.Anonymous
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value("request_id").(string); ok {
		return requestID
	}
	return ""
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleCartError converts store and backend failures to HTTP status
// codes, mirroring the backend's own rejection semantics.
func handleCartError(w http.ResponseWriter, r *http.Request, err error) {
	var mutErr *cart.MutationError
	switch {
	case errors.Is(err, cart.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
	case errors.Is(err, cart.ErrInvalidProduct):
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
	case errors.As(err, &mutErr):
		handleMutationError(w, r, mutErr)
	default:
		log.Printf("request %s: unexpected cart error: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func handleMutationError(w http.ResponseWriter, r *http.Request, mutErr *cart.MutationError) {
	if errors.Is(mutErr.Err, backend.ErrUnauthenticated) {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "session expired")
		return
	}

	var reqErr *backend.RequestError
	if errors.As(mutErr.Err, &reqErr) && backend.IsRejection(mutErr.Err) {
		respondError(w, http.StatusConflict, "cart_mutation_rejected", reqErr.Message)
		return
	}

	log.Printf("request %s: cart backend failure: %v", getRequestID(r.Context()), mutErr)
	respondError(w, http.StatusBadGateway, "backend_unavailable", "cart service is temporarily unavailable")
}
