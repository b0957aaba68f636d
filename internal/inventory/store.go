package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("stock item not found")

type Store interface {
	// Upsert adds quantity to an existing SKU or creates it.
	Upsert(ctx context.Context, sku string, quantity int) (StockItem, error)
	Get(ctx context.Context, sku string) (StockItem, error)
	// Reserve atomically decrements quantity for the order if enough stock
	// exists, recording the outcome so a redelivered order.created yields
	// the same answer without a second decrement.
	Reserve(ctx context.Context, orderID, sku string, quantity int) (bool, error)
	// Release restores the reserved quantity once per order. The sku and
	// quantity come from the compensating event, not from a lookup.
	Release(ctx context.Context, orderID, sku string, quantity int) (bool, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS stock_items (
			id         BIGSERIAL PRIMARY KEY,
			sku        TEXT NOT NULL UNIQUE,
			quantity   INT NOT NULL CHECK (quantity >= 0),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS reservations (
			order_id   TEXT PRIMARY KEY,
			sku        TEXT NOT NULL,
			quantity   INT NOT NULL,
			status     TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (r *Repo) Upsert(ctx context.Context, sku string, quantity int) (StockItem, error) {
	var it StockItem
	err := r.DB.QueryRow(ctx, `
		INSERT INTO stock_items (sku, quantity)
		VALUES ($1, $2)
		ON CONFLICT (sku) DO UPDATE
		SET quantity = stock_items.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING sku, quantity, updated_at`,
		sku, quantity).Scan(&it.SKU, &it.Quantity, &it.UpdatedAt)
	return it, err
}

func (r *Repo) Get(ctx context.Context, sku string) (StockItem, error) {
	var it StockItem
	err := r.DB.QueryRow(ctx,
		`SELECT sku, quantity, updated_at FROM stock_items WHERE sku=$1`, sku).
		Scan(&it.SKU, &it.Quantity, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockItem{}, ErrNotFound
	}
	return it, err
}

func (r *Repo) Reserve(ctx context.Context, orderID, sku string, quantity int) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Redelivery short-circuit: the reservation row already holds the
	// answer for this order.
	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM reservations WHERE order_id=$1`, orderID).Scan(&status)
	if err == nil {
		return status != ReservationRejected, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	// Guarded compare-and-decrement: zero rows means the SKU is missing or
	// short. Two orders racing for the same SKU serialize on the row lock,
	// so stock can never be oversold or go negative.
	ct, err := tx.Exec(ctx, `
		UPDATE stock_items
		SET quantity = quantity - $2, updated_at = now()
		WHERE sku = $1 AND quantity >= $2`,
		sku, quantity)
	if err != nil {
		return false, err
	}
	reserved := ct.RowsAffected() == 1

	status = ReservationRejected
	if reserved {
		status = ReservationReserved
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO reservations (order_id, sku, quantity, status)
		VALUES ($1, $2, $3, $4)`,
		orderID, sku, quantity, status); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return reserved, nil
}

func (r *Repo) Release(ctx context.Context, orderID, sku string, quantity int) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Each reservation is released at most once.
	ct, err := tx.Exec(ctx, `
		UPDATE reservations SET status=$2, updated_at=now()
		WHERE order_id=$1 AND status=$3`,
		orderID, ReservationReleased, ReservationReserved)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	ct, err = tx.Exec(ctx, `
		UPDATE stock_items SET quantity = quantity + $2, updated_at = now()
		WHERE sku = $1`,
		sku, quantity)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
