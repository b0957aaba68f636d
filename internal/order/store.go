package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

// Store is the coordinator's view of the order ledger.
type Store interface {
	// Create persists a new PENDING order, or returns the existing one
	// unchanged when the idempotency key was already used.
	Create(ctx context.Context, o Order) (created Order, existed bool, err error)
	Get(ctx context.Context, orderID string) (Order, error)
	// Finalize moves a PENDING order to a terminal status. It reports false
	// when the order was already terminal and ErrNotFound when no such
	// order exists.
	Finalize(ctx context.Context, orderID string, st Status) (bool, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id               BIGSERIAL PRIMARY KEY,
			order_id         TEXT NOT NULL UNIQUE,
			sku              TEXT NOT NULL,
			quantity         INT NOT NULL,
			amount           DOUBLE PRECISION NOT NULL,
			currency         TEXT NOT NULL DEFAULT 'USD',
			idempotency_key  TEXT NOT NULL UNIQUE,
			status           TEXT NOT NULL DEFAULT 'PENDING',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

const orderColumns = `id, order_id, sku, quantity, amount, currency, idempotency_key, status, created_at, updated_at`

func (r *Repo) Create(ctx context.Context, o Order) (Order, bool, error) {
	// Fast path: repeated idempotency key returns the existing row as-is.
	existing, err := r.getByIdempotencyKey(ctx, o.IdempotencyKey)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Order{}, false, err
	}

	if o.OrderID == "" {
		o.OrderID = uuid.NewString()
	}
	o.Status = StatusPending

	// ON CONFLICT DO NOTHING closes the race between two concurrent creates
	// with the same key: exactly one row wins, the loser rereads it.
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO orders (order_id, sku, quantity, amount, currency, idempotency_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idempotency_key) DO NOTHING`,
		o.OrderID, o.SKU, o.Quantity, o.Amount, o.Currency, o.IdempotencyKey, o.Status)
	if err != nil {
		return Order{}, false, err
	}
	if ct.RowsAffected() == 0 {
		existing, err := r.getByIdempotencyKey(ctx, o.IdempotencyKey)
		if err != nil {
			return Order{}, false, err
		}
		return existing, true, nil
	}

	created, err := r.getByIdempotencyKey(ctx, o.IdempotencyKey)
	if err != nil {
		return Order{}, false, err
	}
	return created, false, nil
}

func (r *Repo) Get(ctx context.Context, orderID string) (Order, error) {
	return r.scanOne(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id=$1`, orderID))
}

func (r *Repo) getByIdempotencyKey(ctx context.Context, key string) (Order, error) {
	return r.scanOne(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE idempotency_key=$1`, key))
}

func (r *Repo) scanOne(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderID, &o.SKU, &o.Quantity, &o.Amount,
		&o.Currency, &o.IdempotencyKey, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}

func (r *Repo) Finalize(ctx context.Context, orderID string, st Status) (bool, error) {
	// Terminal absorption in a single guarded statement: only a PENDING row
	// can move.
	ct, err := r.DB.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE order_id=$1 AND status=$3`,
		orderID, st, StatusPending)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 1 {
		return true, nil
	}
	// Zero rows: either already terminal or unknown order.
	if _, err := r.Get(ctx, orderID); err != nil {
		return false, err
	}
	return false, nil
}
