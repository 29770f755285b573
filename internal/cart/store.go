// Package cart owns the local mirror of the server-side cart. The
// backend computes totals, tax and stock checks, so the mirror is never
// mutated speculatively: every mutation is followed by a full refresh
// before the cart is considered consistent again.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/hadidevlabx/shopfront/internal/cache"
	"github.com/hadidevlabx/shopfront/internal/domain"
	"github.com/hadidevlabx/shopfront/internal/session"
)

var (
	ErrNotAuthenticated = errors.New("cart: authentication required")
	ErrInvalidProduct   = errors.New("cart: product id must be positive")
	// Quantity below 1 is rejected outright; decrementing to zero must
	// route through Remove, never through UpdateQuantity.
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
)

// MutationError is a backend rejection of an add/update/remove/clear
// (out of stock, validation). The local mirror is left unchanged.
type MutationError struct {
	Op  string
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("cart %s rejected: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Backend is the slice of the commerce API the store needs.
type Backend interface {
	GetCart(ctx context.Context, token string) (*domain.Cart, error)
	AddItem(ctx context.Context, token string, productID int64, quantity int) error
	UpdateItem(ctx context.Context, token string, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, token string, itemID int64) error
	ClearCart(ctx context.Context, token string) error
}

type Store struct {
	backend Backend
	cache   cache.CartCache
	log     zerolog.Logger
	sfg     singleflight.Group // coalesces concurrent refreshes per user
	loading atomic.Int32

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
	// generations fences refreshes against mutations: a committed
	// mutation bumps the user's generation, so a refresh whose fetch
	// started under an older generation can neither be joined by the
	// mutation's trailing refresh nor write its snapshot to the mirror.
	generations map[int64]uint64
}

func NewStore(backend Backend, cartCache cache.CartCache, log zerolog.Logger) *Store {
	return &Store{
		backend:     backend,
		cache:       cartCache,
		log:         log,
		userLocks:   make(map[int64]*sync.Mutex),
		generations: make(map[int64]uint64),
	}
}

// Loading reports whether any cart network call is in flight. Display
// surfaces use it as a shared busy indicator.
func (s *Store) Loading() bool {
	return s.loading.Load() > 0
}

// Cart returns the current mirror, refreshing once when the mirror is
// cold. Unauthenticated sessions always see a nil cart.
func (s *Store) Cart(ctx context.Context, sess session.Session) *domain.Cart {
	if !sess.Authenticated() {
		return nil
	}
	cart, err := s.cache.Get(ctx, sess.UserID)
	if err == nil {
		return cart
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("cart cache read failed")
	}
	return s.Refresh(ctx, sess)
}

// Refresh fetches the authoritative cart from the backend. A fetch
// failure is not fatal: it is logged and the previous mirror stays
// available, stale. Concurrent refreshes for one user are coalesced,
// but never across a mutation: the singleflight key carries the user's
// generation, so a mutation's trailing refresh cannot join a flight
// whose fetch started before the mutation committed.
func (s *Store) Refresh(ctx context.Context, sess session.Session) *domain.Cart {
	if !sess.Authenticated() {
		return nil
	}

	gen := s.generation(sess.UserID)
	key := fmt.Sprintf("%d:%d", sess.UserID, gen)

	v, _, _ := s.sfg.Do(key, func() (interface{}, error) {
		s.loading.Add(1)
		defer s.loading.Add(-1)

		fresh, err := s.backend.GetCart(ctx, sess.Token)
		if err != nil {
			s.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("cart refresh failed, keeping stale mirror")
			return s.cachedOrNil(ctx, sess.UserID), nil
		}

		if s.generation(sess.UserID) != gen {
			// A mutation committed mid-flight; this snapshot predates
			// it and must not overwrite the mirror.
			return fresh, nil
		}

		if errSet := s.cache.Set(ctx, sess.UserID, fresh); errSet != nil {
			s.log.Warn().Err(errSet).Int64("user_id", sess.UserID).Msg("cart cache write failed")
		}
		return fresh, nil
	})

	cart, _ := v.(*domain.Cart)
	return cart
}

func (s *Store) cachedOrNil(ctx context.Context, userID int64) *domain.Cart {
	cart, err := s.cache.Get(ctx, userID)
	if err != nil {
		return nil
	}
	return cart
}

func (s *Store) Add(ctx context.Context, sess session.Session, productID int64, quantity int) error {
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}
	if productID <= 0 {
		return ErrInvalidProduct
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	return s.mutate(ctx, sess, "add", func() error {
		return s.backend.AddItem(ctx, sess.Token, productID, quantity)
	})
}

func (s *Store) UpdateQuantity(ctx context.Context, sess session.Session, itemID int64, quantity int) error {
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	return s.mutate(ctx, sess, "update", func() error {
		return s.backend.UpdateItem(ctx, sess.Token, itemID, quantity)
	})
}

func (s *Store) Remove(ctx context.Context, sess session.Session, itemID int64) error {
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}

	return s.mutate(ctx, sess, "remove", func() error {
		return s.backend.RemoveItem(ctx, sess.Token, itemID)
	})
}

// Clear empties the cart. On success the mirror is set to an empty cart
// directly, the one mutation that skips the refresh round-trip, so a
// background clear never delays the post-purchase redirect.
func (s *Store) Clear(ctx context.Context, sess session.Session) error {
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}

	lock := s.userLock(sess.UserID)
	lock.Lock()
	defer lock.Unlock()

	s.loading.Add(1)
	defer s.loading.Add(-1)

	if err := s.backend.ClearCart(ctx, sess.Token); err != nil {
		return &MutationError{Op: "clear", Err: err}
	}

	s.bumpGeneration(sess.UserID)
	if err := s.cache.Set(ctx, sess.UserID, domain.EmptyCart()); err != nil {
		s.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("cart cache write failed after clear")
	}
	return nil
}

// mutate runs one mutation-then-refresh pair. Pairs are serialized per
// user so two rapid quantity updates cannot leave the mirror on the
// older refresh.
func (s *Store) mutate(ctx context.Context, sess session.Session, op string, call func() error) error {
	lock := s.userLock(sess.UserID)
	lock.Lock()
	defer lock.Unlock()

	s.loading.Add(1)
	err := call()
	s.loading.Add(-1)
	if err != nil {
		return &MutationError{Op: op, Err: err}
	}

	s.bumpGeneration(sess.UserID)
	s.Refresh(ctx, sess)
	return nil
}

func (s *Store) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

func (s *Store) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

func (s *Store) bumpGeneration(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[userID]++
}
