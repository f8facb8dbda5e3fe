//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// --- Mock order repository ---

type MockOrderRepo struct {
	mu        sync.Mutex
	data      map[string]*model.Order // by id
	bySession map[string]string       // payment session id -> order id

	InsertFunc                 func(ctx context.Context, o *model.Order) error
	FindByPaymentSessionIDFunc func(ctx context.Context, sessionID string) (*model.Order, error)
	ListByBuyerFunc            func(ctx context.Context, buyerID string) ([]*model.Order, error)
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{data: map[string]*model.Order{}, bySession: map[string]string{}}
}

func (m *MockOrderRepo) Insert(ctx context.Context, o *model.Order) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.bySession[o.PaymentSessionID]; dup {
		return domain.ErrAlreadyExists
	}
	cp := *o
	m.data[o.ID] = &cp
	m.bySession[o.PaymentSessionID] = o.ID
	return nil
}

func (m *MockOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepo) FindByPaymentSessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	if m.FindByPaymentSessionIDFunc != nil {
		return m.FindByPaymentSessionIDFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.bySession[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.data[id]
	return &cp, nil
}

func (m *MockOrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]*model.Order, error) {
	if m.ListByBuyerFunc != nil {
		return m.ListByBuyerFunc(ctx, buyerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.data {
		if o.BuyerID == buyerID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockOrderRepo) ListAll(ctx context.Context, offset, limit int) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.data {
		cp := *o
		out = append(out, &cp)
	}
	if offset >= len(out) {
		return []*model.Order{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *MockOrderRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// --- Mock coupon repository ---

type MockCouponRepo struct {
	mu   sync.Mutex
	data map[string]*model.Coupon // by code

	SaveFunc       func(ctx context.Context, c *model.Coupon) error
	DeactivateFunc func(ctx context.Context, code, buyerID string) (bool, error)
}

func NewMockCouponRepo() *MockCouponRepo {
	return &MockCouponRepo{data: map[string]*model.Coupon{}}
}

func (m *MockCouponRepo) Save(ctx context.Context, c *model.Coupon) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.data[c.Code] = &cp
	return nil
}

func (m *MockCouponRepo) FindActive(ctx context.Context, code, buyerID string) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data[code]
	if !ok || c.BuyerID != buyerID || !c.IsActive {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCouponRepo) Deactivate(ctx context.Context, code, buyerID string) (bool, error) {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, code, buyerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data[code]
	if !ok || c.BuyerID != buyerID || !c.IsActive {
		return false, nil
	}
	c.IsActive = false
	return true, nil
}

func (m *MockCouponRepo) DeactivateAllForBuyer(ctx context.Context, buyerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.data {
		if c.BuyerID == buyerID {
			c.IsActive = false
		}
	}
	return nil
}

// FindByBuyer returns the buyer's active coupon, if any. Test helper only.
func (m *MockCouponRepo) FindByBuyer(ctx context.Context, buyerID string) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.data {
		if c.BuyerID == buyerID && c.IsActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockCouponRepo) Get(code string) *model.Coupon {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.data[code]; ok {
		cp := *c
		return &cp
	}
	return nil
}

// --- Mock checkout session journal ---

type MockSessionRepo struct {
	mu   sync.Mutex
	data map[string]*model.CheckoutSession

	UpdateStatusFunc func(ctx context.Context, sessionID string, status model.CheckoutSessionStatus) error
}

func NewMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{data: map[string]*model.CheckoutSession{}}
}

func (m *MockSessionRepo) Save(ctx context.Context, s *model.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.data[s.SessionID] = &cp
	return nil
}

func (m *MockSessionRepo) UpdateStatus(ctx context.Context, sessionID string, status model.CheckoutSessionStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, sessionID, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	return nil
}

func (m *MockSessionRepo) ListPendingOlderThan(ctx context.Context, olderThan time.Time, limit int) ([]*model.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CheckoutSession
	for _, s := range m.data {
		if s.Status == model.CheckoutSessionPending && s.CreatedAt.Before(olderThan) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSessionRepo) Get(sessionID string) *model.CheckoutSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.data[sessionID]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// --- Mock payment gateway ---

type MockGateway struct {
	mu       sync.Mutex
	sessions map[string]*model.PaymentConfirmation
	seq      int

	CreateSessionFunc   func(ctx context.Context, amount int64, gatewayCouponID string, meta model.CheckoutMetadata) (string, string, error)
	RetrieveSessionFunc func(ctx context.Context, sessionID string) (*model.PaymentConfirmation, error)
	CreateDiscountFunc  func(ctx context.Context, percentage int) (string, error)
}

func NewMockGateway() *MockGateway {
	return &MockGateway{sessions: map[string]*model.PaymentConfirmation{}}
}

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) AddSession(conf *model.PaymentConfirmation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[conf.SessionID] = conf
}

func (g *MockGateway) CreateSession(ctx context.Context, amount int64, gatewayCouponID string, meta model.CheckoutMetadata) (string, string, error) {
	if g.CreateSessionFunc != nil {
		return g.CreateSessionFunc(ctx, amount, gatewayCouponID, meta)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("sess_mock_%d", g.seq)
	g.sessions[id] = &model.PaymentConfirmation{
		SessionID:     id,
		PaymentStatus: model.PaymentStatusUnpaid,
		AmountTotal:   amount,
		Metadata:      meta,
	}
	return id, "https://pay.example/" + id, nil
}

func (g *MockGateway) RetrieveSession(ctx context.Context, sessionID string) (*model.PaymentConfirmation, error) {
	if g.RetrieveSessionFunc != nil {
		return g.RetrieveSessionFunc(ctx, sessionID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	conf, ok := g.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *conf
	return &cp, nil
}

func (g *MockGateway) CreateDiscount(ctx context.Context, percentage int) (string, error) {
	if g.CreateDiscountFunc != nil {
		return g.CreateDiscountFunc(ctx, percentage)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("gw_coupon_%d", g.seq), nil
}

// --- Mock order cache ---

type MockOrderCache struct {
	mu   sync.Mutex
	data map[string][]*model.Order

	SetErr error // injected failure
	GetErr error
}

func NewMockOrderCache() *MockOrderCache {
	return &MockOrderCache{data: map[string][]*model.Order{}}
}

func (m *MockOrderCache) SetOrders(ctx context.Context, buyerID string, orders []*model.Order) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[buyerID] = orders
	return nil
}

func (m *MockOrderCache) GetOrders(ctx context.Context, buyerID string) ([]*model.Order, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[buyerID], nil
}

func (m *MockOrderCache) InvalidateOrders(ctx context.Context, buyerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, buyerID)
	return nil
}

func (m *MockOrderCache) Cached(buyerID string) []*model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[buyerID]
}

// --- Mock event publisher ---

type MockEventPublisher struct {
	mu        sync.Mutex
	published []*model.Order

	PublishErr error
}

func (m *MockEventPublisher) PublishOrderCreated(ctx context.Context, o *model.Order) error {
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, o)
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

func (m *MockEventPublisher) Published() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}
