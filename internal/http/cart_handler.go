package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/service"
)

type CartHandler struct {
	carts       *service.CartService
	timeout     time.Duration
	development bool
}

func NewCartHandler(carts *service.CartService, timeout time.Duration, development bool) *CartHandler {
	return &CartHandler{
		carts:       carts,
		timeout:     timeout,
		development: development,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.carts.GetCart(ctx, getOwnerID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId required")
		return
	}

	item, err := h.carts.AddItem(ctx, getOwnerID(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	item, err := h.carts.UpdateQuantity(ctx, getOwnerID(r.Context()), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	if item == nil {
		// Quantity 0 removed the row.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.RemoveItem(ctx, getOwnerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
