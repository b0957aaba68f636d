package inventory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/RashedShahabi/order-system-project/internal/event"
)

type Publisher interface {
	Publish(ctx context.Context, ev event.Event) error
}

// Service owns the stock ledger's saga reactions: reserve on order.created,
// compensate on payment.failed.
type Service struct {
	Store Store
	Bus   Publisher
	Log   *slog.Logger
}

func (s *Service) HandleEvent(ctx context.Context, ev event.Event) error {
	switch e := ev.(type) {
	case event.OrderCreated:
		return s.reserve(ctx, e)
	case event.PaymentFailed:
		return s.compensate(ctx, e)
	default:
		s.Log.Warn("unexpected event on inventory queue", "kind", ev.Kind())
		return nil
	}
}

func (s *Service) reserve(ctx context.Context, e event.OrderCreated) error {
	ok, err := s.Store.Reserve(ctx, e.OrderID, e.SKU, e.Quantity)
	if err != nil {
		return err
	}
	if !ok {
		s.Log.Info("stock insufficient", "order_id", e.OrderID, "sku", e.SKU, "quantity", e.Quantity)
		return s.Bus.Publish(ctx, event.StockRejected{
			OrderID: e.OrderID,
			Reason:  event.ReasonInsufficientStock,
		})
	}

	s.Log.Info("stock reserved", "order_id", e.OrderID, "sku", e.SKU, "quantity", e.Quantity)
	// Carry the full order context forward so the payment service and any
	// later compensation never need to look the order up again.
	return s.Bus.Publish(ctx, event.StockReserved{
		OrderID:  e.OrderID,
		SKU:      e.SKU,
		Quantity: e.Quantity,
		Amount:   e.Amount,
		Currency: e.Currency,
	})
}

// compensate is the saga's compensating transaction: a failed payment hands
// the reserved quantity back to the SKU.
func (s *Service) compensate(ctx context.Context, e event.PaymentFailed) error {
	if e.SKU == "" || e.Quantity <= 0 {
		s.Log.Warn("compensation event missing stock fields, cannot restore",
			"order_id", e.OrderID, "sku", e.SKU, "quantity", e.Quantity)
		return nil
	}

	restored, err := s.Store.Release(ctx, e.OrderID, e.SKU, e.Quantity)
	if errors.Is(err, ErrNotFound) {
		s.Log.Warn("compensation references unknown sku", "order_id", e.OrderID, "sku", e.SKU)
		return nil
	}
	if err != nil {
		return err
	}
	if !restored {
		s.Log.Info("no open reservation to release", "order_id", e.OrderID)
		return nil
	}
	s.Log.Info("stock restored", "order_id", e.OrderID, "sku", e.SKU, "quantity", e.Quantity)
	return nil
}
