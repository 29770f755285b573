package checkout

import (
	"errors"

	"github.com/hadidevlabx/shopfront/internal/domain"
)

var ErrEmptyCart = errors.New("checkout: cart is empty, nothing to check out")

// Form is the shipping/billing state collected on the checkout page.
type Form struct {
	Shipping              domain.Address
	BillingSameAsShipping bool
	Billing               domain.Address
	Notes                 string
}

// BuildDraft assembles the order submission from form state and the
// mirrored cart. It is a pure transform: the draft's total is the
// cart's server-reported total, and pricing is never recomputed here.
func BuildDraft(form Form, cart *domain.Cart) (domain.OrderDraft, error) {
	if cart.IsEmpty() {
		return domain.OrderDraft{}, ErrEmptyCart
	}

	billing := form.Billing
	if form.BillingSameAsShipping {
		billing = form.Shipping
	}

	items := make([]domain.DraftItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, domain.DraftItem{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Product.Image(),
		})
	}

	return domain.OrderDraft{
		ShippingAddress: form.Shipping,
		BillingAddress:  billing,
		PaymentMethod:   "stripe",
		Notes:           form.Notes,
		Total:           cart.Total,
		Items:           items,
	}, nil
}
