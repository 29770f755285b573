package cache

import (
	"context"
	"errors"

	"github.com/hadidevlabx/shopfront/internal/domain"
)

// CartCache holds the last refreshed cart per user so every storefront
// instance reads the same mirror.
type CartCache interface {
	Get(ctx context.Context, userID int64) (*domain.Cart, error)
	Set(ctx context.Context, userID int64, cart *domain.Cart) error
	Delete(ctx context.Context, userID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
