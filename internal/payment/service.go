package payment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/RashedShahabi/order-system-project/internal/event"
)

type Publisher interface {
	Publish(ctx context.Context, ev event.Event) error
}

// Service decides authorization for reserved stock and appends the outcome
// to the payment ledger. The rule is deterministic: amounts below Ceiling
// are approved.
type Service struct {
	Store   Store
	Bus     Publisher
	Log     *slog.Logger
	Ceiling float64

	// RecordRejected also appends a zero-amount failed row when stock was
	// rejected, so a payment lookup by order id answers on every saga
	// branch. Correlation convenience, not required for correctness.
	RecordRejected bool
}

func (s *Service) HandleEvent(ctx context.Context, ev event.Event) error {
	switch e := ev.(type) {
	case event.StockReserved:
		return s.authorize(ctx, e)
	case event.StockRejected:
		return s.recordRejected(ctx, e)
	default:
		s.Log.Warn("unexpected event on payment queue", "kind", ev.Kind())
		return nil
	}
}

func (s *Service) authorize(ctx context.Context, e event.StockReserved) error {
	// Redelivery short-circuit: the ledger already holds this saga
	// attempt's outcome; republish it instead of appending a second row.
	if existing, err := s.Store.LatestByOrder(ctx, e.OrderID); err == nil {
		s.Log.Info("payment already recorded, republishing outcome",
			"order_id", e.OrderID, "status", existing.Status)
		return s.publishOutcome(ctx, e.OrderID, e.SKU, e.Quantity, existing.IsSuccessful)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	approved := e.Amount < s.Ceiling
	p := Payment{
		OrderID:      e.OrderID,
		Amount:       e.Amount,
		Currency:     currencyOrDefault(e.Currency),
		Status:       StatusFailed,
		IsSuccessful: approved,
	}
	if approved {
		p.Status = StatusSuccess
	}
	if _, err := s.Store.Insert(ctx, p); err != nil {
		return err
	}
	s.Log.Info("payment decided", "order_id", e.OrderID, "amount", e.Amount, "approved", approved)

	return s.publishOutcome(ctx, e.OrderID, e.SKU, e.Quantity, approved)
}

func (s *Service) publishOutcome(ctx context.Context, orderID, sku string, quantity int, approved bool) error {
	// sku and quantity ride along so the inventory ledger can compensate a
	// failure without re-querying anything.
	if approved {
		return s.Bus.Publish(ctx, event.PaymentSucceeded{
			OrderID: orderID, SKU: sku, Quantity: quantity,
		})
	}
	return s.Bus.Publish(ctx, event.PaymentFailed{
		OrderID: orderID, SKU: sku, Quantity: quantity,
	})
}

func (s *Service) recordRejected(ctx context.Context, e event.StockRejected) error {
	if !s.RecordRejected {
		return nil
	}
	if _, err := s.Store.LatestByOrder(ctx, e.OrderID); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err := s.Store.Insert(ctx, Payment{
		OrderID:      e.OrderID,
		Amount:       0,
		Currency:     currencyOrDefault(""),
		Status:       StatusFailed,
		IsSuccessful: false,
	})
	if err != nil {
		return err
	}
	s.Log.Info("correlation payment recorded for rejected stock", "order_id", e.OrderID)
	return nil
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}
