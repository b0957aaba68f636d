package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RashedShahabi/order-system-project/internal/health"
	"github.com/RashedShahabi/order-system-project/internal/httpx"
)

func newTestRouter() (*httptest.Server, *memStore) {
	svc, store, _ := newTestService()
	hc := health.NewChecker()
	hc.SetReady(true)
	router := httpx.NewRouter(hc)
	(&Handler{Service: svc, Log: discardLogger()}).Register(router)
	return httptest.NewServer(router), store
}

func TestCreateOrderEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestRouter()
	defer srv.Close()

	body := `{"sku":"P-1001","quantity":3,"amount":150,"currency":"USD","idempotency_key":"k-http"}`

	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.OrderID == "" || created.Status != StatusPending {
		t.Fatalf("unexpected response: %+v", created)
	}

	// Same idempotency key: 200 with the same order, not a second 201.
	resp2, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("replay post: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d", resp2.StatusCode)
	}
	var replayed createResponse
	if err := json.NewDecoder(resp2.Body).Decode(&replayed); err != nil {
		t.Fatalf("decode replay: %v", err)
	}
	if replayed.OrderID != created.OrderID {
		t.Fatalf("replay returned different order: %s vs %s", replayed.OrderID, created.OrderID)
	}
}

func TestCreateOrderEndpoint_BadRequests(t *testing.T) {
	t.Parallel()

	srv, _ := newTestRouter()
	t.Cleanup(srv.Close)

	tests := []struct {
		name string
		body string
	}{
		{"broken json", `{nope`},
		{"missing idempotency key", `{"sku":"P-1","quantity":1,"amount":10}`},
		{"zero quantity", `{"sku":"P-1","quantity":0,"amount":10,"idempotency_key":"k"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestGetOrderEndpoint(t *testing.T) {
	t.Parallel()

	srv, store := newTestRouter()
	defer srv.Close()

	seeded, _, err := store.Create(context.Background(), Order{
		SKU: "P-1001", Quantity: 2, Amount: 50, Currency: "USD", IdempotencyKey: "k-get",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/orders/" + seeded.OrderID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got Order
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.OrderID != seeded.OrderID || got.Status != StatusPending {
		t.Fatalf("unexpected order: %+v", got)
	}

	missing, err := http.Get(srv.URL + "/orders/ghost")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}
