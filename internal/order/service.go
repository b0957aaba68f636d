package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/RashedShahabi/order-system-project/internal/event"
	"github.com/RashedShahabi/order-system-project/internal/redisx"
)

// Publisher is the slice of the bus the coordinator needs.
type Publisher interface {
	Publish(ctx context.Context, ev event.Event) error
}

// Service originates the saga (CreateOrder publishes order.created) and
// finalizes it (HandleEvent reacts to the three terminal events). It never
// calls the other services directly.
type Service struct {
	Store Store
	Bus   Publisher
	Cache *redis.Client // optional read cache; nil disables it
	Log   *slog.Logger
}

type CreateRequest struct {
	SKU            string  `json:"sku"`
	Quantity       int     `json:"quantity"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	IdempotencyKey string  `json:"idempotency_key"`
}

func (r CreateRequest) validate() error {
	switch {
	case r.SKU == "":
		return errors.New("sku is required")
	case r.Quantity <= 0:
		return errors.New("quantity must be positive")
	case r.Amount < 0:
		return errors.New("amount must not be negative")
	case r.IdempotencyKey == "":
		return errors.New("idempotency_key is required")
	}
	return nil
}

var ErrInvalidRequest = errors.New("invalid order request")

// CreateOrder persists a PENDING order and publishes order.created, then
// returns immediately; callers poll for the terminal status. A repeated
// idempotency key returns the existing order and publishes nothing.
func (s *Service) CreateOrder(ctx context.Context, req CreateRequest) (Order, bool, error) {
	if err := req.validate(); err != nil {
		return Order{}, false, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	o, existed, err := s.Store.Create(ctx, Order{
		SKU:            req.SKU,
		Quantity:       req.Quantity,
		Amount:         req.Amount,
		Currency:       req.Currency,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return Order{}, false, err
	}
	if existed {
		return o, true, nil
	}

	s.cacheOrder(ctx, o)

	ev := event.OrderCreated{
		OrderID:  o.OrderID,
		SKU:      o.SKU,
		Quantity: o.Quantity,
		Amount:   o.Amount,
		Currency: o.Currency,
	}
	if err := s.Bus.Publish(ctx, ev); err != nil {
		// The order row is the source of truth and already committed; the
		// caller still gets PENDING. Losing the event leaves the saga
		// parked, so make it loud.
		s.Log.Error("order.created publish failed", "order_id", o.OrderID, "err", err)
	}
	return o, false, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (Order, error) {
	if s.Cache != nil {
		if raw, err := s.Cache.Get(ctx, fmt.Sprintf(redisx.KeyOrder, orderID)).Result(); err == nil {
			var o Order
			if json.Unmarshal([]byte(raw), &o) == nil {
				return o, nil
			}
		}
	}
	o, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	s.cacheOrder(ctx, o)
	return o, nil
}

// HandleEvent consumes the saga's terminal events and finalizes the order.
// Redeliveries and late events against terminal orders are no-ops; unknown
// orders are logged and dropped as a recoverable anomaly.
func (s *Service) HandleEvent(ctx context.Context, ev event.Event) error {
	var st Status
	switch ev.(type) {
	case event.PaymentSucceeded:
		st = StatusCompleted
	case event.StockRejected:
		st = StatusCancelledNoStock
	case event.PaymentFailed:
		st = StatusCancelledPaymentFailed
	default:
		s.Log.Warn("unexpected event on order results queue", "kind", ev.Kind())
		return nil
	}

	orderID := ev.CorrelationID()
	updated, err := s.Store.Finalize(ctx, orderID, st)
	if errors.Is(err, ErrNotFound) {
		s.Log.Warn("terminal event for unknown order, dropping",
			"order_id", orderID, "kind", ev.Kind())
		return nil
	}
	if err != nil {
		return err
	}
	if !updated {
		s.Log.Info("order already terminal, event ignored",
			"order_id", orderID, "kind", ev.Kind())
		return nil
	}

	s.Log.Info("order finalized", "order_id", orderID, "status", st)
	if o, err := s.Store.Get(ctx, orderID); err == nil {
		s.cacheOrder(ctx, o)
	}
	return nil
}

func (s *Service) cacheOrder(ctx context.Context, o Order) {
	if s.Cache == nil {
		return
	}
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, fmt.Sprintf(redisx.KeyOrder, o.OrderID), b, redisx.TTLOrderCache).Err(); err != nil {
		s.Log.Warn("order cache write failed", "order_id", o.OrderID, "err", err)
	}
}
