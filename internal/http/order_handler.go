package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/service"
)

type OrderHandler struct {
	orders      *service.OrderService
	timeout     time.Duration
	development bool
}

func NewOrderHandler(orders *service.OrderService, timeout time.Duration, development bool) *OrderHandler {
	return &OrderHandler{
		orders:      orders,
		timeout:     timeout,
		development: development,
	}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.PlaceOrder(ctx, getOwnerID(r.Context()), &req)
	if err != nil {
		recordOrderOperation("create", false)
		handleServiceError(w, r, err, h.development)
		return
	}

	recordOrderOperation("create", true)
	respondJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx, getOwnerID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, getOwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Update is the admin status endpoint. Transitions outside the guarded
// tables come back as 409s.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.UpdateOrder(ctx, &req)
	if err != nil {
		recordOrderOperation("update", false)
		handleServiceError(w, r, err, h.development)
		return
	}

	recordOrderOperation("update", true)
	respondJSON(w, http.StatusOK, order)
}
