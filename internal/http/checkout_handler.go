package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hadidevlabx/shopfront/internal/checkout"
	"github.com/hadidevlabx/shopfront/internal/domain"
)

type CheckoutHandler struct {
	service *checkout.Service
	timeout time.Duration
}

func NewCheckoutHandler(service *checkout.Service, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		timeout: timeout,
	}
}

type AddressDTO struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

type CardDTO struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"` // MM/YY
	CVC    string `json:"cvc"`
}

type CheckoutRequestDTO struct {
	ShippingAddress       AddressDTO `json:"shipping_address"`
	BillingSameAsShipping bool       `json:"billing_same_as_shipping"`
	BillingAddress        AddressDTO `json:"billing_address"`
	Notes                 string     `json:"notes"`
	Card                  CardDTO    `json:"card"`
}

type CheckoutResponseDTO struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	Total       float64 `json:"total"`
	Status      string  `json:"status"`
	RedirectURL string  `json:"redirect_url"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	month, year, ok := checkout.ParseExpiry(req.Card.Expiry)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_card_expiry", "expiry must be MM/YY")
		return
	}

	sub := checkout.Submission{
		Form: checkout.Form{
			Shipping:              toAddress(req.ShippingAddress),
			BillingSameAsShipping: req.BillingSameAsShipping,
			Billing:               toAddress(req.BillingAddress),
			Notes:                 req.Notes,
		},
		Card: checkout.CardDetails{
			Number:   req.Card.Number,
			ExpMonth: month,
			ExpYear:  year,
			CVC:      req.Card.CVC,
		},
	}

	result, err := h.service.Submit(ctx, sess, sub)
	if err != nil {
		handleCheckoutError(w, r, result, err)
		return
	}

	redirect(w, result.RedirectURL, CheckoutResponseDTO{
		OrderID:     result.Order.Order.ID,
		OrderNumber: result.Order.Order.OrderNumber,
		Total:       result.Order.Order.Total,
		Status:      result.Order.Order.Status,
		RedirectURL: result.RedirectURL,
	})
}

func handleCheckoutError(w http.ResponseWriter, r *http.Request, result checkout.Result, err error) {
	var confErr *checkout.ConfirmationError
	switch {
	case errors.Is(err, checkout.ErrAuthRequired), errors.Is(err, checkout.ErrEmptyCart):
		// Recoverable pre-charge failures navigate, they don't error.
		http.Redirect(w, r, result.RedirectURL, http.StatusSeeOther)
	case errors.As(err, &confErr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   confErr.Message,
			Code:    "payment_failed",
			Details: confErr.Field,
		})
	case errors.Is(err, checkout.ErrInFlight):
		respondError(w, http.StatusConflict, "checkout_in_progress", "a checkout is already in progress")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// redirect answers with 303 plus a JSON body so both browser form posts
// and API clients can follow it.
func redirect(w http.ResponseWriter, url string, body interface{}) {
	w.Header().Set("Location", url)
	respondJSON(w, http.StatusSeeOther, body)
}

func toAddress(dto AddressDTO) domain.Address {
	return domain.Address{
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Email:     dto.Email,
		Phone:     dto.Phone,
		Address1:  dto.Address1,
		Address2:  dto.Address2,
		City:      dto.City,
		State:     dto.State,
		Postcode:  dto.Postcode,
		Country:   dto.Country,
	}
}
