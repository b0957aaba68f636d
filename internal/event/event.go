// Package event defines the saga's wire contracts: one struct per routing
// key, flat JSON payloads. The set is sealed so consumers dispatch with a
// type switch instead of matching on raw strings.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is a routing key on the bus.
type Kind string

const (
	KindOrderCreated     Kind = "order.created"
	KindStockReserved    Kind = "stock.reserved"
	KindStockRejected    Kind = "stock.rejected"
	KindPaymentSucceeded Kind = "payment.succeeded"
	KindPaymentFailed    Kind = "payment.failed"
)

const ReasonInsufficientStock = "INSUFFICIENT_STOCK"

var (
	ErrUnknownKind = errors.New("unknown routing key")
	ErrMalformed   = errors.New("malformed event payload")
)

// Event is the closed union of saga events. CorrelationID is the order id
// the event belongs to; it doubles as the partition key so all events of one
// order stay ordered.
type Event interface {
	Kind() Kind
	CorrelationID() string
	sealed()
}

type OrderCreated struct {
	OrderID  string  `json:"order_id"`
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// StockReserved carries the full order context forward so downstream
// services never have to re-query the order to authorize or compensate.
type StockReserved struct {
	OrderID  string  `json:"order_id"`
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type StockRejected struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

type PaymentSucceeded struct {
	OrderID  string `json:"order_id"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// PaymentFailed must carry sku and quantity: the inventory ledger restores
// stock from these fields alone.
type PaymentFailed struct {
	OrderID  string `json:"order_id"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (OrderCreated) Kind() Kind     { return KindOrderCreated }
func (StockReserved) Kind() Kind    { return KindStockReserved }
func (StockRejected) Kind() Kind    { return KindStockRejected }
func (PaymentSucceeded) Kind() Kind { return KindPaymentSucceeded }
func (PaymentFailed) Kind() Kind    { return KindPaymentFailed }

func (e OrderCreated) CorrelationID() string     { return e.OrderID }
func (e StockReserved) CorrelationID() string    { return e.OrderID }
func (e StockRejected) CorrelationID() string    { return e.OrderID }
func (e PaymentSucceeded) CorrelationID() string { return e.OrderID }
func (e PaymentFailed) CorrelationID() string    { return e.OrderID }

func (OrderCreated) sealed()     {}
func (StockReserved) sealed()    {}
func (StockRejected) sealed()    {}
func (PaymentSucceeded) sealed() {}
func (PaymentFailed) sealed()    {}

// Decode parses a payload for the given routing key. Unknown keys and broken
// JSON return sentinel errors so the consumer can dead-letter instead of
// retrying forever.
func Decode(k Kind, data []byte) (Event, error) {
	switch k {
	case KindOrderCreated:
		return decodeInto[OrderCreated](data)
	case KindStockReserved:
		return decodeInto[StockReserved](data)
	case KindStockRejected:
		return decodeInto[StockRejected](data)
	case KindPaymentSucceeded:
		return decodeInto[PaymentSucceeded](data)
	case KindPaymentFailed:
		return decodeInto[PaymentFailed](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
}

func decodeInto[T Event](data []byte) (Event, error) {
	var t T
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return t, nil
}
