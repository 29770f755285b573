package checkout

import (
	"context"
	"fmt"

	"github.com/hadidevlabx/shopfront/internal/domain"
)

// CardDetails is the raw payment instrument as entered on the payment
// form. It goes to the payment provider only, never to the commerce
// backend.
type CardDetails struct {
	Number   string `json:"number"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
	CVC      string `json:"cvc"`
}

// ConfirmationError is a payment confirmation failure, surfaced inline
// on the payment form. Field names the offending input when the
// provider identifies one; empty means a form-level error. The flow
// returns to idle and the user may retry.
type ConfirmationError struct {
	Field   string
	Message string
}

func (e *ConfirmationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("payment confirmation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("payment confirmation failed: %s", e.Message)
}

// Gateway tokenizes a payment instrument with the third-party provider
// and returns a payment-method handle on success.
type Gateway interface {
	Confirm(ctx context.Context, card CardDetails, draft domain.OrderDraft) (string, error)
}
