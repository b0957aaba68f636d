package payment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("payment not found")

type Store interface {
	Insert(ctx context.Context, p Payment) (Payment, error)
	// LatestByOrder returns the most recent payment recorded for an order.
	LatestByOrder(ctx context.Context, orderID string) (Payment, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS payments (
			id            BIGSERIAL PRIMARY KEY,
			order_id      TEXT NOT NULL,
			amount        DOUBLE PRECISION NOT NULL,
			currency      TEXT NOT NULL DEFAULT 'USD',
			status        TEXT NOT NULL,
			is_successful BOOLEAN NOT NULL DEFAULT false,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS payments_order_id_idx ON payments (order_id)`)
	return err
}

func (r *Repo) Insert(ctx context.Context, p Payment) (Payment, error) {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO payments (order_id, amount, currency, status, is_successful)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		p.OrderID, p.Amount, p.Currency, p.Status, p.IsSuccessful).
		Scan(&p.ID, &p.CreatedAt)
	return p, err
}

func (r *Repo) LatestByOrder(ctx context.Context, orderID string) (Payment, error) {
	var p Payment
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_id, amount, currency, status, is_successful, created_at
		FROM payments WHERE order_id=$1
		ORDER BY id DESC LIMIT 1`, orderID).
		Scan(&p.ID, &p.OrderID, &p.Amount, &p.Currency, &p.Status, &p.IsSuccessful, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	return p, err
}
