package cart

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadidevlabx/shopfront/internal/cache"
	"github.com/hadidevlabx/shopfront/internal/domain"
	"github.com/hadidevlabx/shopfront/internal/session"
)

// mockBackend simulates the commerce backend: it owns the cart and
// recomputes totals server side, the way the real one does.
type mockBackend struct {
	m      sync.Mutex
	items  []domain.CartItem
	getErr error
	mutErr error
	nextID int64
	gets   int

	// getHook, when set, runs after a fetch has taken its snapshot but
	// before it returns, letting tests hold a response in flight.
	getHook func()
}

func (m *mockBackend) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.Lock()
	m.gets++
	if m.getErr != nil {
		m.m.Unlock()
		return nil, m.getErr
	}
	snap := m.snapshot()
	hook := m.getHook
	m.m.Unlock()

	if hook != nil {
		hook()
	}
	return snap, nil
}

func (m *mockBackend) snapshot() *domain.Cart {
	cart := &domain.Cart{Items: append([]domain.CartItem(nil), m.items...)}
	for _, item := range m.items {
		cart.Total += item.Price * float64(item.Quantity)
		cart.Count += item.Quantity
	}
	return cart
}

func (m *mockBackend) AddItem(_ context.Context, _ string, productID int64, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.mutErr != nil {
		return m.mutErr
	}
	m.nextID++
	m.items = append(m.items, domain.CartItem{
		ID:        m.nextID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     10.0,
		Product:   domain.Product{ID: productID, Name: fmt.Sprintf("product-%d", productID), Price: 10.0},
	})
	return nil
}

func (m *mockBackend) UpdateItem(_ context.Context, _ string, itemID int64, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.mutErr != nil {
		return m.mutErr
	}
	for i := range m.items {
		if m.items[i].ID == itemID {
			m.items[i].Quantity = quantity
			return nil
		}
	}
	return fmt.Errorf("item not found")
}

func (m *mockBackend) RemoveItem(_ context.Context, _ string, itemID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.mutErr != nil {
		return m.mutErr
	}
	for i, item := range m.items {
		if item.ID == itemID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("item not found")
}

func (m *mockBackend) ClearCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.mutErr != nil {
		return m.mutErr
	}
	m.items = nil
	return nil
}

func (m *mockBackend) getCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.gets
}

var testSession = session.Session{UserID: 123, Email: "buyer@example.com", Token: "token-123"}

func newTestStore(b *mockBackend) *Store {
	return NewStore(b, cache.NewMemoryCache(), zerolog.Nop())
}

func TestRefresh_Unauthenticated_ReturnsNilWithoutError(t *testing.T) {
	backend := &mockBackend{}
	sut := newTestStore(backend)

	cart := sut.Refresh(context.Background(), session.Anonymous)
	assert.Nil(t, cart)
	assert.Equal(t, 0, backend.getCount())
}

func TestRefresh_MirrorsBackendTotals(t *testing.T) {
	backend := &mockBackend{}
	require.NoError(t, backend.AddItem(context.Background(), "", 1, 2))
	sut := newTestStore(backend)

	cart := sut.Refresh(context.Background(), testSession)
	require.NotNil(t, cart)
	assert.Equal(t, 20.0, cart.Total)
	assert.Equal(t, 2, cart.Count)
}

func TestRefresh_BackendError_KeepsStaleMirror(t *testing.T) {
	backend := &mockBackend{}
	require.NoError(t, backend.AddItem(context.Background(), "", 1, 1))
	sut := newTestStore(backend)

	fresh := sut.Refresh(context.Background(), testSession)
	require.NotNil(t, fresh)

	backend.m.Lock()
	backend.getErr = fmt.Errorf("backend down")
	backend.m.Unlock()

	stale := sut.Refresh(context.Background(), testSession)
	require.NotNil(t, stale, "previous mirror must stay available")
	assert.Equal(t, fresh.Total, stale.Total)
}

func TestAdd_RefreshesAfterMutation(t *testing.T) {
	backend := &mockBackend{}
	sut := newTestStore(backend)

	err := sut.Add(context.Background(), testSession, 7, 3)
	require.NoError(t, err)

	cart := sut.Cart(context.Background(), testSession)
	require.NotNil(t, cart)
	assert.Equal(t, 1, len(cart.Items))
	assert.Equal(t, 30.0, cart.Total)
	assert.Equal(t, 1, backend.getCount(), "mutation must be followed by exactly one refresh")
}

func TestAdd_BackendRejection_LeavesMirrorUnchanged(t *testing.T) {
	backend := &mockBackend{}
	require.NoError(t, backend.AddItem(context.Background(), "", 1, 1))
	sut := newTestStore(backend)
	before := sut.Refresh(context.Background(), testSession)

	backend.m.Lock()
	backend.mutErr = fmt.Errorf("out of stock")
	backend.m.Unlock()

	err := sut.Add(context.Background(), testSession, 2, 1)
	var mutErr *MutationError
	require.ErrorAs(t, err, &mutErr)
	assert.Equal(t, "add", mutErr.Op)

	after := sut.Cart(context.Background(), testSession)
	assert.Equal(t, before.Total, after.Total)
	assert.Equal(t, len(before.Items), len(after.Items))
}

func TestAdd_InvalidArguments(t *testing.T) {
	sut := newTestStore(&mockBackend{})

	assert.ErrorIs(t, sut.Add(context.Background(), testSession, 0, 1), ErrInvalidProduct)
	assert.ErrorIs(t, sut.Add(context.Background(), testSession, 1, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, sut.Add(context.Background(), session.Anonymous, 1, 1), ErrNotAuthenticated)
}

func TestUpdateQuantity_ZeroRejected(t *testing.T) {
	backend := &mockBackend{}
	require.NoError(t, backend.AddItem(context.Background(), "", 7, 2))
	sut := newTestStore(backend)
	sut.Refresh(context.Background(), testSession)

	err := sut.UpdateQuantity(context.Background(), testSession, 7, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	// The mirror still holds the original quantity; no zero-quantity
	// item can ever appear in a refreshed cart.
	cart := sut.Cart(context.Background(), testSession)
	require.Equal(t, 1, len(cart.Items))
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestUpdateQuantity_Success(t *testing.T) {
	backend := &mockBackend{}
	require.NoError(t, backend.AddItem(context.Background(), "", 1, 2))
	sut := newTestStore(backend)

	err := sut.UpdateQuantity(context.Background(), testSession, 1, 5)
	require.NoError(t, err)

	cart := sut.Cart(context.Background(), testSession)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 50.0, cart.Total)
}

func TestRemove_RefreshesAfterMutation(t *testing.T) {
	backend := &mockBackend{}
	require.NoError(t, backend.AddItem(context.Background(), "", 1, 1))
	require.NoError(t, backend.AddItem(context.Background(), "", 2, 1))
	sut := newTestStore(backend)

	err := sut.Remove(context.Background(), testSession, 1)
	require.NoError(t, err)

	cart := sut.Cart(context.Background(), testSession)
	require.Equal(t, 1, len(cart.Items))
	assert.Equal(t, int64(2), cart.Items[0].ProductID)
}

func TestClear_SetsEmptyMirrorWithoutRefresh(t *testing.T) {
	backend := &mockBackend{}
	require.NoError(t, backend.AddItem(context.Background(), "", 1, 2))
	sut := newTestStore(backend)
	sut.Refresh(context.Background(), testSession)
	getsBefore := backend.getCount()

	err := sut.Clear(context.Background(), testSession)
	require.NoError(t, err)

	cart := sut.Cart(context.Background(), testSession)
	require.NotNil(t, cart)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.Total)
	assert.Equal(t, 0, cart.Count)
	assert.Equal(t, getsBefore, backend.getCount(), "clear must not trigger a refresh round-trip")
}

func TestClear_BackendError_LeavesMirrorUnchanged(t *testing.T) {
	backend := &mockBackend{}
	require.NoError(t, backend.AddItem(context.Background(), "", 1, 2))
	sut := newTestStore(backend)
	sut.Refresh(context.Background(), testSession)

	backend.m.Lock()
	backend.mutErr = fmt.Errorf("backend down")
	backend.m.Unlock()

	err := sut.Clear(context.Background(), testSession)
	var mutErr *MutationError
	require.ErrorAs(t, err, &mutErr)

	cart := sut.Cart(context.Background(), testSession)
	assert.Equal(t, 1, len(cart.Items))
}

func TestConcurrentMutations_MirrorMatchesBackend(t *testing.T) {
	backend := &mockBackend{}
	require.NoError(t, backend.AddItem(context.Background(), "", 1, 1))
	sut := newTestStore(backend)
	sut.Refresh(context.Background(), testSession)

	var wg sync.WaitGroup
	for q := 1; q <= 10; q++ {
		wg.Add(1)
		go func(quantity int) {
			defer wg.Done()
			_ = sut.UpdateQuantity(context.Background(), testSession, 1, quantity)
		}(q)
	}
	wg.Wait()

	cart := sut.Cart(context.Background(), testSession)
	want := backend.snapshot()
	assert.Equal(t, want.Total, cart.Total, "mirror must match the backend after the last pair completes")
	assert.Equal(t, want.Items[0].Quantity, cart.Items[0].Quantity)
}

func TestRefreshOverlappingMutation_MirrorKeepsMutation(t *testing.T) {
	backend := &mockBackend{}
	sut := newTestStore(backend)

	// Park the first fetch in flight with a pre-mutation snapshot.
	started := make(chan struct{})
	release := make(chan struct{})
	var parked atomic.Bool
	backend.m.Lock()
	backend.getHook = func() {
		if parked.CompareAndSwap(false, true) {
			close(started)
			<-release
		}
	}
	backend.m.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sut.Refresh(context.Background(), testSession)
	}()
	<-started

	// The mutation and its trailing refresh complete while the stale
	// fetch is still open.
	require.NoError(t, sut.Add(context.Background(), testSession, 7, 1))

	cart := sut.Cart(context.Background(), testSession)
	require.Equal(t, 1, len(cart.Items), "trailing refresh must not coalesce with a pre-mutation fetch")
	assert.Equal(t, 10.0, cart.Total)

	// Releasing the stale fetch must not roll the mirror back.
	close(release)
	<-done

	cart = sut.Cart(context.Background(), testSession)
	require.Equal(t, 1, len(cart.Items), "a pre-mutation snapshot must never overwrite the mirror")
	assert.Equal(t, 10.0, cart.Total)
}
