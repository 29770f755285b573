// Package backend is the typed client for the commerce REST backend.
// The backend is authoritative for cart contents, totals, stock and
// order persistence; this package only moves payloads back and forth.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hadidevlabx/shopfront/internal/domain"
)

var ErrUnauthenticated = errors.New("backend: missing or invalid credentials")

// RequestError is a non-2xx backend response. 4xx responses carry the
// backend's rejection reason (stock, validation) for user notification.
type RequestError struct {
	Status  int
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend: %s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("backend: %s (%d)", e.Message, e.Status)
}

// IsRejection reports whether err is a backend rejection of the request
// itself (4xx), as opposed to a transport or server failure.
func IsRejection(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status >= 400 && re.Status < 500
}

type Client struct {
	baseURL string
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "commerce-backend",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			// Rejections are valid backend answers, not backend outages.
			return err == nil || IsRejection(err) || errors.Is(err, ErrUnauthenticated)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &Client{
		baseURL: baseURL,
		httpc: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		log:     log,
	}
}

func (c *Client) GetCart(ctx context.Context, token string) (*domain.Cart, error) {
	body, err := c.do(ctx, http.MethodGet, "/cart", token, nil)
	if err != nil {
		return nil, err
	}
	var cart domain.Cart
	if err := json.Unmarshal(body, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &cart, nil
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (c *Client) AddItem(ctx context.Context, token string, productID int64, quantity int) error {
	_, err := c.do(ctx, http.MethodPost, "/cart", token, addItemRequest{ProductID: productID, Quantity: quantity})
	return err
}

func (c *Client) UpdateItem(ctx context.Context, token string, itemID int64, quantity int) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/cart/%d", itemID), token, updateItemRequest{Quantity: quantity})
	return err
}

func (c *Client) RemoveItem(ctx context.Context, token string, itemID int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%d", itemID), token, nil)
	return err
}

func (c *Client) ClearCart(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodDelete, "/cart", token, nil)
	return err
}

type createOrderRequest struct {
	domain.OrderDraft
	PaymentMethodID string `json:"payment_method_id"`
}

type createOrderResponse struct {
	Success bool      `json:"success"`
	Order   *orderDTO `json:"order"`
	Message string    `json:"message,omitempty"`
}

// CreateOrder submits a checkout draft plus the confirmed payment
// handle. A response with success=false is reported as an error so the
// caller's fallback path engages.
func (c *Client) CreateOrder(ctx context.Context, token string, draft domain.OrderDraft, paymentMethodID string) (*domain.Order, error) {
	body, err := c.do(ctx, http.MethodPost, "/orders", token, createOrderRequest{
		OrderDraft:      draft,
		PaymentMethodID: paymentMethodID,
	})
	if err != nil {
		return nil, err
	}

	var resp createOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	if !resp.Success || resp.Order == nil {
		return nil, fmt.Errorf("backend declined order creation: %s", resp.Message)
	}
	order := resp.Order.toDomain()
	return &order, nil
}

func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error) {
	body, err := c.do(ctx, http.MethodGet, "/orders/"+orderID, token, nil)
	if err != nil {
		return nil, err
	}
	var dto orderDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	order := dto.toDomain()
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	body, err := c.do(ctx, http.MethodGet, "/orders", token, nil)
	if err != nil {
		return nil, err
	}
	var dtos []orderDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	orders := make([]domain.Order, 0, len(dtos))
	for _, dto := range dtos {
		orders = append(orders, dto.toDomain())
	}
	return orders, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("marshal request: %w", err)
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthenticated
		}
		if resp.StatusCode >= 400 {
			return nil, parseError(resp.StatusCode, data)
		}
		return data, nil
	})
}

func parseError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Error
	if msg == "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &RequestError{Status: status, Code: payload.Code, Message: msg}
}
