// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/domain/ports/adapter"
	"storefront/internal/domain/ports/repository"
	"storefront/internal/infra/logging"
	"storefront/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// CreateSession opens a gateway checkout session for the buyer's items,
	// applying an active coupon when one is named, and journals it locally.
	CreateSession(ctx context.Context, buyerID string, items []model.LineItem, couponCode string) (*SessionResult, error)
	// Complete turns a gateway "paid" confirmation into a durable order.
	// Safe to call any number of times with the same session id: exactly one
	// order exists afterwards and every call returns its id. A non-empty
	// buyerID must match the session's buyer; a mismatch fails with
	// ErrForbidden before any side effect runs. System callers (the reconcile
	// worker) pass "".
	Complete(ctx context.Context, sessionID, buyerID string) (*CompletionResult, error)
}

type SessionResult struct {
	SessionID string `json:"session_id"`
	PayURL    string `json:"pay_url"`
	Amount    int64  `json:"amount"` // minor units, after discount
}

type CompletionResult struct {
	OrderID string `json:"order_id"`
	// Duplicate is true when a prior call already recorded the order.
	Duplicate bool `json:"-"`
}

// OrderCache is the read cache for buyer order lists. It is derived state:
// every failure here is swallowed and the cache self-heals on the next miss.
type OrderCache interface {
	SetOrders(ctx context.Context, buyerID string, orders []*model.Order) error
	GetOrders(ctx context.Context, buyerID string) ([]*model.Order, error)
	InvalidateOrders(ctx context.Context, buyerID string) error
}

type checkoutUC struct {
	orders   repository.OrderRepository
	sessions repository.CheckoutSessionRepository
	coupons  CouponUseCase
	gateway  adapter.PaymentGateway
	cache    OrderCache
	events   adapter.EventPublisher
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	orders repository.OrderRepository,
	sessions repository.CheckoutSessionRepository,
	coupons CouponUseCase,
	gateway adapter.PaymentGateway,
	cache OrderCache,
	events adapter.EventPublisher,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		orders:   orders,
		sessions: sessions,
		coupons:  coupons,
		gateway:  gateway,
		cache:    cache,
		events:   events,
		log:      logger,
	}
}

func (u *checkoutUC) CreateSession(ctx context.Context, buyerID string, items []model.LineItem, couponCode string) (*SessionResult, error) {
	if buyerID == "" || len(items) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	var total int64
	for _, li := range items {
		if li.ProductID == "" || li.Quantity <= 0 || li.UnitPrice < 0 {
			return nil, domain.ErrInvalidArgument
		}
		total += li.UnitPrice * int64(li.Quantity)
	}

	var gatewayCouponID string
	if couponCode != "" {
		c, err := u.coupons.Validate(ctx, couponCode, buyerID)
		switch {
		case err == nil:
			total -= c.Discount(total)
			gatewayCouponID = c.GatewayCouponID
		case errors.Is(err, domain.ErrCouponNotFound) || errors.Is(err, domain.ErrCouponExpired):
			// Unusable coupon does not block checkout; charge full price.
			couponCode = ""
		default:
			return nil, err
		}
	}

	meta := model.CheckoutMetadata{BuyerID: buyerID, CouponCode: couponCode, LineItems: items}
	sessionID, payURL, err := u.gateway.CreateSession(ctx, total, gatewayCouponID, meta)
	if err != nil {
		return nil, fmt.Errorf("create gateway session: %w", err)
	}

	now := time.Now()
	journal := &model.CheckoutSession{
		SessionID: sessionID,
		BuyerID:   buyerID,
		Amount:    total,
		Status:    model.CheckoutSessionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.sessions.Save(ctx, journal); err != nil {
		// The gateway session exists either way; losing the journal row only
		// costs the crash-recovery scan for this one session.
		logging.With(ctx, u.log).Warn().Err(err).Str("session_id", sessionID).Msg("checkout journal write failed")
	}

	return &SessionResult{SessionID: sessionID, PayURL: payURL, Amount: total}, nil
}

// phaseResult classifies one completion phase so the orchestrator can decide
// between aborting and carrying on, instead of scattering recover logic.
type phaseResult struct {
	phase string
	fatal bool
	err   error
}

func (p phaseResult) abort() bool { return p.fatal && p.err != nil }

func (u *checkoutUC) phase(ctx context.Context, name string, fatal bool, fn func() error) phaseResult {
	err := fn()
	if err != nil && !fatal {
		metrics.IncPhaseFailure(name)
		logging.With(ctx, u.log).Warn().Err(err).Str("phase", name).Msg("non-fatal checkout phase failed")
	}
	return phaseResult{phase: name, fatal: fatal, err: err}
}

func (u *checkoutUC) Complete(ctx context.Context, sessionID, buyerID string) (*CompletionResult, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	log := logging.With(ctx, u.log)

	// Fast path: a previous call already recorded this session. The unique
	// index on payment_session_id remains the authoritative guard; this only
	// skips gateway round-trips on retries.
	if existing, err := u.orders.FindByPaymentSessionID(ctx, sessionID); err == nil {
		if buyerID != "" && existing.BuyerID != buyerID {
			metrics.IncCheckout("rejected")
			return nil, domain.ErrForbidden
		}
		metrics.IncCheckout("duplicate")
		return &CompletionResult{OrderID: existing.ID, Duplicate: true}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	conf, err := u.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			metrics.IncCheckout("rejected")
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("retrieve session: %w", err)
	}
	// Ownership is settled before touching coupons, orders or the journal.
	if buyerID != "" && conf.Metadata.BuyerID != buyerID {
		metrics.IncCheckout("rejected")
		return nil, domain.ErrForbidden
	}
	if conf.PaymentStatus != model.PaymentStatusPaid {
		metrics.IncCheckout("rejected")
		return nil, fmt.Errorf("%w: status=%s", domain.ErrPaymentIncomplete, conf.PaymentStatus)
	}

	buyerID = conf.Metadata.BuyerID

	// Coupon retirement runs before the order insert on purpose: a crash in
	// between leaves a dead coupon without an order (buyer cannot over-redeem),
	// never an order with a still-redeemable coupon.
	if conf.Metadata.CouponCode != "" {
		u.phase(ctx, "coupon_deactivate", false, func() error {
			_, err := u.coupons.Deactivate(ctx, conf.Metadata.CouponCode, buyerID)
			return err
		})
	}

	now := time.Now()
	order := &model.Order{
		ID:               uuid.NewString(),
		BuyerID:          buyerID,
		LineItems:        conf.Metadata.LineItems,
		TotalAmount:      conf.AmountTotal,
		PaymentSessionID: sessionID,
		Status:           model.OrderStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	duplicate := false
	ins := u.phase(ctx, "order_persist", true, func() error {
		return u.orders.Insert(ctx, order)
	})
	if ins.abort() {
		if !errors.Is(ins.err, domain.ErrAlreadyExists) {
			metrics.IncCheckout("failed")
			return nil, fmt.Errorf("%w: %v", domain.ErrOrderPersistFailed, ins.err)
		}
		// A concurrent call won the insert race; adopt its order.
		existing, findErr := u.orders.FindByPaymentSessionID(ctx, sessionID)
		if findErr != nil {
			metrics.IncCheckout("failed")
			return nil, fmt.Errorf("%w: duplicate detected but unreadable: %v", domain.ErrOrderPersistFailed, findErr)
		}
		order = existing
		duplicate = true
	} else {
		metrics.IncOrderCreated()
	}

	// Everything below is best-effort: the order is durable, the rest is
	// derived state or bonuses that self-heal or can be re-run.
	u.phase(ctx, "cache_refresh", false, func() error {
		orders, err := u.orders.ListByBuyer(ctx, buyerID)
		if err != nil {
			return err
		}
		return u.cache.SetOrders(ctx, buyerID, orders)
	})

	if !duplicate && u.events != nil {
		u.phase(ctx, "publish_event", false, func() error {
			return u.events.PublishOrderCreated(ctx, order)
		})
	}

	if !duplicate {
		u.phase(ctx, "coupon_issue", false, func() error {
			_, err := u.coupons.IssueIfEligible(ctx, buyerID, conf.PreDiscountTotal())
			return err
		})
	}

	u.phase(ctx, "journal_complete", false, func() error {
		return u.sessions.UpdateStatus(ctx, sessionID, model.CheckoutSessionCompleted)
	})

	metrics.IncCheckout("completed")
	log.Info().Str("order_id", order.ID).Str("session_id", sessionID).Bool("duplicate", duplicate).Msg("checkout completed")
	return &CompletionResult{OrderID: order.ID, Duplicate: duplicate}, nil
}
