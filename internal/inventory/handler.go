package inventory

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
	Store Store
	Log   *slog.Logger
}

func (h *Handler) Register(r *chi.Mux) {
	r.Post("/stock/items", h.upsertItem)
	r.Get("/stock/items/{sku}", h.getItem)
}

type upsertRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) upsertItem(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SKU == "" || req.Quantity < 0 {
		httpx.WriteError(w, http.StatusBadRequest, "sku required and quantity must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Store.Upsert(ctx, req.SKU, req.Quantity)
	if err != nil {
		h.Log.Error("stock upsert failed", "sku", req.SKU, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not update stock")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, it)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	it, err := h.Store.Get(ctx, sku)
	if errors.Is(err, ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "stock item not found")
		return
	}
	if err != nil {
		h.Log.Error("stock read failed", "sku", sku, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not load stock item")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, it)
}
