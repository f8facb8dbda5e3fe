package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

// orderRepo persists orders. The orders table carries a unique index on
// payment_session_id; violation of it is the authoritative duplicate signal
// for checkout completion.
type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

const orderColumns = `id, buyer_id, line_items, total_amount, payment_session_id, status, created_at, updated_at`

// uniqueViolation is the postgres SQLSTATE for duplicate-key errors.
const uniqueViolation = "23505"

func (r *orderRepo) Insert(ctx context.Context, o *model.Order) error {
	items, err := json.Marshal(o.LineItems)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}
	const q = `
INSERT INTO orders (id, buyer_id, line_items, total_amount, payment_session_id, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	_, err = r.pool.Exec(ctx, q, o.ID, o.BuyerID, items, o.TotalAmount, o.PaymentSessionID, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1;`
	return r.scanOne(r.pool.QueryRow(ctx, q, id))
}

func (r *orderRepo) FindByPaymentSessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE payment_session_id=$1 LIMIT 1;`
	return r.scanOne(r.pool.QueryRow(ctx, q, sessionID))
}

func (r *orderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE buyer_id=$1 ORDER BY created_at DESC;`
	rows, err := r.pool.Query(ctx, q, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *orderRepo) ListAll(ctx context.Context, offset, limit int) ([]*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC OFFSET $1 LIMIT $2;`
	rows, err := r.pool.Query(ctx, q, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	const q = `UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1;`
	cmd, err := r.pool.Exec(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepo) scanOne(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	var items []byte
	err := row.Scan(&o.ID, &o.BuyerID, &items, &o.TotalAmount, &o.PaymentSessionID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if err := json.Unmarshal(items, &o.LineItems); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}
	return o, nil
}

func (r *orderRepo) scanAll(rows pgx.Rows) ([]*model.Order, error) {
	out := []*model.Order{}
	for rows.Next() {
		o := &model.Order{}
		var items []byte
		if err := rows.Scan(&o.ID, &o.BuyerID, &items, &o.TotalAmount, &o.PaymentSessionID, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if err := json.Unmarshal(items, &o.LineItems); err != nil {
			return nil, fmt.Errorf("unmarshal line items: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
