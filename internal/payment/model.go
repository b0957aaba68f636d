package payment

import "time"

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Payment is one row of the append-only payment ledger. Rows are created
// once per saga attempt and never updated.
type Payment struct {
	ID           int64     `json:"id"`
	OrderID      string    `json:"order_id"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Status       Status    `json:"status"`
	IsSuccessful bool      `json:"is_successful"`
	CreatedAt    time.Time `json:"created_at"`
}
