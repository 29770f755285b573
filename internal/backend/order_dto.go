package backend

import (
	"encoding/json"
	"time"

	"github.com/hadidevlabx/shopfront/internal/domain"
)

// The backend serializes order and item ids as JSON numbers while the
// checkout core keys orders by string (fallback ids are client
// generated). json.Number absorbs both shapes.
type orderItemDTO struct {
	ID        json.Number            `json:"id"`
	ProductID int64                  `json:"product_id"`
	Quantity  int                    `json:"quantity"`
	Price     float64                `json:"price"`
	Snapshot  domain.ProductSnapshot `json:"product_snapshot"`
}

type orderDTO struct {
	ID              json.Number        `json:"id"`
	OrderNumber     string             `json:"order_number"`
	Status          string             `json:"status"`
	PaymentStatus   string             `json:"payment_status"`
	PaymentMethod   string             `json:"payment_method"`
	PaymentMethodID string             `json:"payment_method_id"`
	Total           float64            `json:"total"`
	Currency        string             `json:"currency"`
	CreatedAt       time.Time          `json:"created_at"`
	ShippingAddress domain.Address     `json:"shipping_address"`
	BillingAddress  domain.Address     `json:"billing_address"`
	Items           []orderItemDTO     `json:"order_items"`
}

func (dto orderDTO) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(dto.Items))
	for _, item := range dto.Items {
		items = append(items, domain.OrderItem{
			ID:        item.ID.String(),
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Snapshot:  item.Snapshot,
		})
	}

	currency := dto.Currency
	if currency == "" {
		currency = "USD"
	}

	return domain.Order{
		ID:              dto.ID.String(),
		OrderNumber:     dto.OrderNumber,
		Status:          dto.Status,
		PaymentStatus:   dto.PaymentStatus,
		PaymentMethod:   dto.PaymentMethod,
		PaymentMethodID: dto.PaymentMethodID,
		Total:           dto.Total,
		Currency:        currency,
		CreatedAt:       dto.CreatedAt,
		ShippingAddress: dto.ShippingAddress,
		BillingAddress:  dto.BillingAddress,
		Items:           items,
	}
}
