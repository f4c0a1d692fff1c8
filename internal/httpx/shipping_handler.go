package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/y0ncha/E-commerce-sub001/internal/orders"
	"github.com/y0ncha/E-commerce-sub001/internal/redisx"
)

// ShippingHandler is the consumer-side HTTP boundary: read-only queries of
// the processed-order projection.
type ShippingHandler struct {
	Store *orders.Store[orders.ProcessedOrder]
	Redis *redis.Client
	Ready func() bool
}

func (h *ShippingHandler) Register(r *chi.Mux) {
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Get("/readyz", readyHandler(h.Ready))
}

func (h *ShippingHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orders.CanonicalID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	po, ok := h.Store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (h *ShippingHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orders.CanonicalID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// Cache first, projection as fallback.
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	po, ok := h.Store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	body := map[string]any{"status": po.Status, "updated_at": po.ReceivedAt}
	if h.Redis != nil {
		b, _ := json.Marshal(body)
		_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	}
	writeJSON(w, http.StatusOK, body)
}
