package domain

import "time"

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

// DraftItem is a line item captured from the cart at submission time.
type DraftItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

// OrderDraft is the transient checkout submission payload. It is a
// transport object: Total carries the cart's server-reported total and
// is never recomputed here.
type OrderDraft struct {
	ShippingAddress Address     `json:"shipping_address"`
	BillingAddress  Address     `json:"billing_address"`
	PaymentMethod   string      `json:"payment_method"`
	Notes           string      `json:"notes,omitempty"`
	Total           float64     `json:"total"`
	Items           []DraftItem `json:"items"`
}

type ProductSnapshot struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	SKU   string `json:"sku,omitempty"`
}

type OrderItem struct {
	ID        string          `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     float64         `json:"price"`
	Snapshot  ProductSnapshot `json:"product_snapshot"`
}

// Order status values are an open set owned by the backend; they are
// carried as opaque strings.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

type Order struct {
	ID              string      `json:"id"`
	OrderNumber     string      `json:"order_number"`
	Status          string      `json:"status"`
	PaymentStatus   string      `json:"payment_status"`
	PaymentMethod   string      `json:"payment_method"`
	PaymentMethodID string      `json:"payment_method_id,omitempty"`
	Total           float64     `json:"total"`
	Currency        string      `json:"currency"`
	CreatedAt       time.Time   `json:"created_at"`
	ShippingAddress Address     `json:"shipping_address"`
	BillingAddress  Address     `json:"billing_address"`
	Items           []OrderItem `json:"order_items"`
}

// Provenance distinguishes backend-confirmed orders from ones this
// client synthesized after the backend failed post-payment. Both are
// presented identically to the user.
type Provenance string

const (
	ProvenanceConfirmed Provenance = "confirmed"
	ProvenanceFallback  Provenance = "fallback"
)

// FinalizedOrder is the tagged result of order finalization.
type FinalizedOrder struct {
	Order          Order
	Provenance     Provenance
	FallbackReason string
}

func (f FinalizedOrder) Confirmed() bool {
	return f.Provenance == ProvenanceConfirmed
}
