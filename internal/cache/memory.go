package cache

import (
	"context"
	"sync"

	"github.com/hadidevlabx/shopfront/internal/domain"
)

// MemoryCache is the single-instance default when no Redis address is
// configured.
type MemoryCache struct {
	mu    sync.RWMutex
	carts map[int64]*domain.Cart
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{carts: make(map[int64]*domain.Cart)}
}

func (m *MemoryCache) Get(_ context.Context, userID int64) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil, ErrCacheMiss
	}
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (m *MemoryCache) Set(_ context.Context, userID int64, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	m.carts[userID] = &copied
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}
