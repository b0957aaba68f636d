package order

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/RashedShahabi/order-system-project/internal/httpx"
)

type Handler struct {
	Service *Service
	Log     *slog.Logger
}

func (h *Handler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{order_id}", h.getOrder)
}

type createResponse struct {
	OrderID string `json:"order_id"`
	Status  Status `json:"status"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, existed, err := h.Service.CreateOrder(ctx, req)
	if errors.Is(err, ErrInvalidRequest) {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("create order failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not create order")
		return
	}

	code := http.StatusCreated
	if existed {
		code = http.StatusOK
	}
	httpx.WriteJSON(w, code, createResponse{OrderID: o.OrderID, Status: o.Status})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.GetOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.Log.Error("get order failed", "order_id", orderID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not load order")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}
