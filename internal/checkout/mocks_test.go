package checkout

import (
	"context"
	"sync"

	"github.com/hadidevlabx/shopfront/internal/domain"
)

// stubCartBackend serves a fixed cart so a real cart.Store can back the
// checkout service under test.
type stubCartBackend struct {
	m       sync.Mutex
	cart    *domain.Cart
	clears  int
	clerErr error
}

func (s *stubCartBackend) GetCart(context.Context, string) (*domain.Cart, error) {
	s.m.Lock()
	defer s.m.Unlock()
	copied := *s.cart
	return &copied, nil
}

func (s *stubCartBackend) AddItem(context.Context, string, int64, int) error  { return nil }
func (s *stubCartBackend) UpdateItem(context.Context, string, int64, int) error { return nil }
func (s *stubCartBackend) RemoveItem(context.Context, string, int64) error    { return nil }

func (s *stubCartBackend) ClearCart(context.Context, string) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.clears++
	return s.clerErr
}

func (s *stubCartBackend) clearCount() int {
	s.m.Lock()
	defer s.m.Unlock()
	return s.clears
}

type mockGateway struct {
	handle string
	err    error
	calls  int
}

func (m *mockGateway) Confirm(_ context.Context, _ CardDetails, _ domain.OrderDraft) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.handle, nil
}

type mockOrderCreator struct {
	order *domain.Order
	err   error
	calls int
	draft domain.OrderDraft
}

func (m *mockOrderCreator) CreateOrder(_ context.Context, _ string, draft domain.OrderDraft, _ string) (*domain.Order, error) {
	m.calls++
	m.draft = draft
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

type mockRecorder struct {
	m      sync.Mutex
	events int
	order  domain.Order
	reason string
	err    error
}

func (m *mockRecorder) RecordFallback(_ context.Context, _ int64, order domain.Order, _ domain.OrderDraft, reason string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.events++
	m.order = order
	m.reason = reason
	return m.err
}

type mockNotifier struct {
	m        sync.Mutex
	messages []string
}

func (m *mockNotifier) Success(_ int64, message string) {
	m.m.Lock()
	defer m.m.Unlock()
	m.messages = append(m.messages, message)
}

func (m *mockNotifier) count() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.messages)
}
