package inventory

import "time"

// StockItem is the per-SKU available quantity. Quantity never goes below
// zero; the store enforces that on every decrement.
type StockItem struct {
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reservation bookkeeping makes reserve and release exactly-once per order
// even when the bus redelivers.
const (
	ReservationReserved = "RESERVED"
	ReservationRejected = "REJECTED"
	ReservationReleased = "RELEASED"
)
