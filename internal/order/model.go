package order

import "time"

// Order is the coordinator's lifecycle record. OrderID is the opaque public
// id; ID is the internal row id and never leaves the service.
type Order struct {
	ID             int64     `json:"-"`
	OrderID        string    `json:"order_id"`
	SKU            string    `json:"sku"`
	Quantity       int       `json:"quantity"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	IdempotencyKey string    `json:"idempotency_key"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
