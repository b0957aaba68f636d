package payment

import (
	"context"
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
	r.Get("/payments/{order_id}", h.getPayment)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Store.LatestByOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "payment not found")
		return
	}
	if err != nil {
		h.Log.Error("payment read failed", "order_id", orderID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not load payment")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}
