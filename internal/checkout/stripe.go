package checkout

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/hadidevlabx/shopfront/internal/domain"
)

// StripeGateway confirms payment by creating a Stripe payment method
// from the card details. Card data transits Stripe only.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) Confirm(ctx context.Context, card CardDetails, draft domain.OrderDraft) (string, error) {
	shipping := draft.ShippingAddress
	billing := draft.BillingAddress

	params := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(card.ExpMonth),
			ExpYear:  stripe.Int64(card.ExpYear),
			CVC:      stripe.String(card.CVC),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name:  stripe.String(strings.TrimSpace(shipping.FirstName + " " + shipping.LastName)),
			Email: stripe.String(shipping.Email),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(billing.Address1),
				Line2:      stripe.String(billing.Address2),
				City:       stripe.String(billing.City),
				State:      stripe.String(billing.State),
				PostalCode: stripe.String(billing.Postcode),
				Country:    stripe.String(billing.Country),
			},
		},
	}
	params.Context = ctx

	pm, err := g.api.PaymentMethods.New(params)
	if err != nil {
		return "", convertStripeError(err)
	}
	return pm.ID, nil
}

func convertStripeError(err error) error {
	var sErr *stripe.Error
	if !errors.As(err, &sErr) {
		return &ConfirmationError{Message: err.Error()}
	}

	msg := sErr.Msg
	if msg == "" {
		msg = string(sErr.Code)
	}
	return &ConfirmationError{Field: sErr.Param, Message: msg}
}

// ParseExpiry splits an MM/YY expiry string into month and year, the
// shape card forms submit.
func ParseExpiry(expiry string) (month, year int64, ok bool) {
	parts := strings.SplitN(expiry, "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	m, errM := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	y, errY := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if errM != nil || errY != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	if y < 100 {
		y += 2000
	}
	return m, y, true
}
