package payment

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway is an in-memory gateway for dev mode: every created session is
// immediately considered paid.
type NoopGateway struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]*model.PaymentConfirmation
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{sessions: make(map[string]*model.PaymentConfirmation)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) CreateSession(ctx context.Context, amount int64, gatewayCouponID string, meta model.CheckoutMetadata) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("noop_sess_%d", g.seq)
	g.sessions[id] = &model.PaymentConfirmation{
		SessionID:     id,
		PaymentStatus: model.PaymentStatusPaid,
		AmountTotal:   amount,
		Metadata:      meta,
	}
	return id, "https://example.invalid/pay/" + id, nil
}

func (g *NoopGateway) RetrieveSession(ctx context.Context, sessionID string) (*model.PaymentConfirmation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	conf, ok := g.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *conf
	return &cp, nil
}

func (g *NoopGateway) CreateDiscount(ctx context.Context, percentage int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("noop_coupon_%d", g.seq), nil
}
