package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// -----------------------------
// Checkout session journal
// -----------------------------

type CheckoutSessionRepository interface {
	Save(ctx context.Context, s *model.CheckoutSession) error
	UpdateStatus(ctx context.Context, sessionID string, status model.CheckoutSessionStatus) error
	// ListPendingOlderThan feeds the background reconcile worker.
	ListPendingOlderThan(ctx context.Context, olderThan time.Time, limit int) ([]*model.CheckoutSession, error)
}
