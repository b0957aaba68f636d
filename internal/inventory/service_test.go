package inventory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/RashedShahabi/order-system-project/internal/event"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore mirrors the Postgres repo's semantics: guarded decrement plus a
// reservation row per order, all under one lock.
type memStore struct {
	mu           sync.Mutex
	items        map[string]int
	reservations map[string]string // order_id -> status
}

func newMemStore() *memStore {
	return &memStore{items: map[string]int{}, reservations: map[string]string{}}
}

func (m *memStore) Upsert(_ context.Context, sku string, quantity int) (StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[sku] += quantity
	return StockItem{SKU: sku, Quantity: m.items[sku]}, nil
}

func (m *memStore) Get(_ context.Context, sku string) (StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.items[sku]
	if !ok {
		return StockItem{}, ErrNotFound
	}
	return StockItem{SKU: sku, Quantity: q}, nil
}

func (m *memStore) Reserve(_ context.Context, orderID, sku string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status, ok := m.reservations[orderID]; ok {
		return status != ReservationRejected, nil
	}
	q, ok := m.items[sku]
	if !ok || q < quantity {
		m.reservations[orderID] = ReservationRejected
		return false, nil
	}
	m.items[sku] = q - quantity
	m.reservations[orderID] = ReservationReserved
	return true, nil
}

func (m *memStore) Release(_ context.Context, orderID, sku string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reservations[orderID] != ReservationReserved {
		return false, nil
	}
	if _, ok := m.items[sku]; !ok {
		return false, ErrNotFound
	}
	m.reservations[orderID] = ReservationReleased
	m.items[sku] += quantity
	return true, nil
}

type memBus struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *memBus) Publish(_ context.Context, ev event.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *memBus) published() []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]event.Event(nil), b.events...)
}

func newTestService(seed map[string]int) (*Service, *memStore, *memBus) {
	store := newMemStore()
	for sku, q := range seed {
		store.items[sku] = q
	}
	pub := &memBus{}
	return &Service{Store: store, Bus: pub, Log: discardLogger()}, store, pub
}

func TestReserve_PublishesStockReservedWithFullContext(t *testing.T) {
	t.Parallel()

	svc, store, pub := newTestService(map[string]int{"P-1001": 10})
	err := svc.HandleEvent(context.Background(), event.OrderCreated{
		OrderID: "o-1", SKU: "P-1001", Quantity: 3, Amount: 150, Currency: "USD",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	it, _ := store.Get(context.Background(), "P-1001")
	if it.Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", it.Quantity)
	}

	evs := pub.published()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	want := event.StockReserved{OrderID: "o-1", SKU: "P-1001", Quantity: 3, Amount: 150, Currency: "USD"}
	if evs[0] != want {
		t.Errorf("got %+v, want %+v", evs[0], want)
	}
}

func TestReserve_InsufficientStockRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		seed map[string]int
	}{
		{"quantity too low", map[string]int{"P-1001": 10}},
		{"unknown sku", map[string]int{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, store, pub := newTestService(tt.seed)
			err := svc.HandleEvent(context.Background(), event.OrderCreated{
				OrderID: "o-2", SKU: "P-1001", Quantity: 15, Amount: 150, Currency: "USD",
			})
			if err != nil {
				t.Fatalf("handle: %v", err)
			}

			if q := tt.seed["P-1001"]; q > 0 {
				it, _ := store.Get(context.Background(), "P-1001")
				if it.Quantity != q {
					t.Fatalf("rejection must not mutate stock: got %d, want %d", it.Quantity, q)
				}
			}
			evs := pub.published()
			if len(evs) != 1 {
				t.Fatalf("expected 1 event, got %d", len(evs))
			}
			want := event.StockRejected{OrderID: "o-2", Reason: event.ReasonInsufficientStock}
			if evs[0] != want {
				t.Errorf("got %+v, want %+v", evs[0], want)
			}
		})
	}
}

func TestReserve_RedeliveryDoesNotDoubleDecrement(t *testing.T) {
	t.Parallel()

	svc, store, pub := newTestService(map[string]int{"P-1001": 10})
	created := event.OrderCreated{OrderID: "o-3", SKU: "P-1001", Quantity: 4, Amount: 99, Currency: "USD"}

	for i := 0; i < 3; i++ {
		if err := svc.HandleEvent(context.Background(), created); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	it, _ := store.Get(context.Background(), "P-1001")
	if it.Quantity != 6 {
		t.Fatalf("expected quantity 6 after redeliveries, got %d", it.Quantity)
	}
	// Republishing stock.reserved is fine; downstream dedups by event id.
	for _, ev := range pub.published() {
		if _, ok := ev.(event.StockReserved); !ok {
			t.Fatalf("unexpected event %T", ev)
		}
	}
}

func TestCompensate_RestoresCarriedQuantity(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(map[string]int{"P-1001": 10})
	ctx := context.Background()

	if err := svc.HandleEvent(ctx, event.OrderCreated{OrderID: "o-4", SKU: "P-1001", Quantity: 4, Amount: 9999, Currency: "USD"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := svc.HandleEvent(ctx, event.PaymentFailed{OrderID: "o-4", SKU: "P-1001", Quantity: 4}); err != nil {
		t.Fatalf("compensate: %v", err)
	}

	it, _ := store.Get(ctx, "P-1001")
	if it.Quantity != 10 {
		t.Fatalf("compensation must restore to 10, got %d", it.Quantity)
	}
}

func TestCompensate_RedeliveryRestoresOnce(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(map[string]int{"P-1001": 10})
	ctx := context.Background()

	_ = svc.HandleEvent(ctx, event.OrderCreated{OrderID: "o-5", SKU: "P-1001", Quantity: 4, Amount: 9999, Currency: "USD"})
	failed := event.PaymentFailed{OrderID: "o-5", SKU: "P-1001", Quantity: 4}
	for i := 0; i < 3; i++ {
		if err := svc.HandleEvent(ctx, failed); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	it, _ := store.Get(ctx, "P-1001")
	if it.Quantity != 10 {
		t.Fatalf("redelivered compensation must net to 10, got %d", it.Quantity)
	}
}

func TestCompensate_MissingFieldsIsWarnedNoop(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(map[string]int{"P-1001": 10})
	ctx := context.Background()

	_ = svc.HandleEvent(ctx, event.OrderCreated{OrderID: "o-6", SKU: "P-1001", Quantity: 4, Amount: 9999, Currency: "USD"})
	// Event without carried stock fields: cannot compensate, must not guess.
	if err := svc.HandleEvent(ctx, event.PaymentFailed{OrderID: "o-6"}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	it, _ := store.Get(ctx, "P-1001")
	if it.Quantity != 6 {
		t.Fatalf("broken compensation must not mutate stock: got %d", it.Quantity)
	}
}

func TestReserve_ConcurrentOrdersNeverOversell(t *testing.T) {
	t.Parallel()

	const initial = 10
	svc, store, pub := newTestService(map[string]int{"P-1001": initial})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = svc.HandleEvent(ctx, event.OrderCreated{
				OrderID:  string(rune('a' + n)),
				SKU:      "P-1001",
				Quantity: 3,
				Amount:   50,
				Currency: "USD",
			})
		}(i)
	}
	wg.Wait()

	reservedTotal := 0
	for _, ev := range pub.published() {
		if r, ok := ev.(event.StockReserved); ok {
			reservedTotal += r.Quantity
		}
	}
	if reservedTotal > initial {
		t.Fatalf("reserved %d exceeds initial stock %d", reservedTotal, initial)
	}
	it, _ := store.Get(ctx, "P-1001")
	if it.Quantity < 0 {
		t.Fatalf("stock went negative: %d", it.Quantity)
	}
	if it.Quantity+reservedTotal != initial {
		t.Fatalf("conservation violated: %d remaining + %d reserved != %d", it.Quantity, reservedTotal, initial)
	}
}
