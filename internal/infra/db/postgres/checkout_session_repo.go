package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/domain/ports/repository"
)

var _ repository.CheckoutSessionRepository = (*checkoutSessionRepo)(nil)

// checkoutSessionRepo journals gateway sessions so the reconcile worker can
// finalize paid sessions whose success callback never arrived.
type checkoutSessionRepo struct{ pool *pgxpool.Pool }

func NewCheckoutSessionRepo(pool *pgxpool.Pool) *checkoutSessionRepo {
	return &checkoutSessionRepo{pool: pool}
}

func (r *checkoutSessionRepo) Save(ctx context.Context, s *model.CheckoutSession) error {
	const q = `
INSERT INTO checkout_sessions (session_id, buyer_id, amount, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (session_id) DO UPDATE SET status=$4, updated_at=$6;`
	_, err := r.pool.Exec(ctx, q, s.SessionID, s.BuyerID, s.Amount, s.Status, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}

func (r *checkoutSessionRepo) UpdateStatus(ctx context.Context, sessionID string, status model.CheckoutSessionStatus) error {
	const q = `UPDATE checkout_sessions SET status=$2, updated_at=NOW() WHERE session_id=$1;`
	cmd, err := r.pool.Exec(ctx, q, sessionID, status)
	if err != nil {
		return fmt.Errorf("update checkout session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *checkoutSessionRepo) ListPendingOlderThan(ctx context.Context, olderThan time.Time, limit int) ([]*model.CheckoutSession, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT session_id, buyer_id, amount, status, created_at, updated_at
FROM checkout_sessions
WHERE status='pending' AND created_at < $1
ORDER BY created_at ASC LIMIT $2;`
	rows, err := r.pool.Query(ctx, q, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sessions: %w", err)
	}
	defer rows.Close()

	var out []*model.CheckoutSession
	for rows.Next() {
		s := &model.CheckoutSession{}
		if err := rows.Scan(&s.SessionID, &s.BuyerID, &s.Amount, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan checkout session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
