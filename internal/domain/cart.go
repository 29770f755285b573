package domain

// Product is the catalog snapshot the backend embeds in cart and order
// payloads. Only the fields the checkout flow reads are mapped.
type Product struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug,omitempty"`
	SKU           string   `json:"sku,omitempty"`
	Price         float64  `json:"price"`
	FeaturedImage string   `json:"featured_image,omitempty"`
	Images        []string `json:"images,omitempty"`
}

// Image returns the product's display image, preferring the featured one.
func (p Product) Image() string {
	if p.FeaturedImage != "" {
		return p.FeaturedImage
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

type CartItem struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Product   Product `json:"product"`
}

// Cart mirrors the backend's cart payload. Total and Count are computed
// server side; the client never recalculates them.
type Cart struct {
	Items []CartItem `json:"cart_items"`
	Total float64    `json:"total"`
	Count int        `json:"count"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// EmptyCart is the local state after a successful clear. "Empty" is
// unambiguous, so no refresh round-trip is needed to produce it.
func EmptyCart() *Cart {
	return &Cart{Items: []CartItem{}, Total: 0, Count: 0}
}
