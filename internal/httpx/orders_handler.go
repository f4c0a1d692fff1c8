package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/y0ncha/E-commerce-sub001/internal/breaker"
	"github.com/y0ncha/E-commerce-sub001/internal/orders"
	"github.com/y0ncha/E-commerce-sub001/internal/publisher"
)

type CreateOrderReq struct {
	OrderID   string `json:"order_id"`
	ItemCount int    `json:"item_count"`
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

// OrdersHandler is the producer-side HTTP boundary: it translates gateway
// results and errors into status codes and nothing more.
type OrdersHandler struct {
	Gateway *publisher.Gateway
	Store   *orders.Store[orders.Order]
	Ready   func() bool
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Post("/orders/{id}/status", h.updateStatus)
	r.Get("/orders/failed", h.listFailed)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/readyz", readyHandler(h.Ready))
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Gateway.CreateOrder(ctx, req.OrderID, req.ItemCount)
	if err != nil {
		h.writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Gateway.UpdateOrder(ctx, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orders.CanonicalID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, ok := h.Store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listFailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Gateway.FailedPublishes())
}

func (h *OrdersHandler) writeGatewayError(w http.ResponseWriter, err error) {
	var invalid *publisher.InvalidTransitionError
	var pubErr *publisher.PublishError
	switch {
	case errors.Is(err, orders.ErrInvalidID),
		errors.Is(err, publisher.ErrInvalidStatus),
		errors.Is(err, publisher.ErrInvalidItemCount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, publisher.ErrDuplicateOrder),
		errors.Is(err, publisher.ErrStatusConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, publisher.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &invalid):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, breaker.ErrOpen), errors.As(err, &pubErr):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
