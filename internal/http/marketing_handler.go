package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/service"
)

type MarketingHandler struct {
	marketing   *service.MarketingService
	timeout     time.Duration
	development bool
}

func NewMarketingHandler(marketing *service.MarketingService, timeout time.Duration, development bool) *MarketingHandler {
	return &MarketingHandler{
		marketing:   marketing,
		timeout:     timeout,
		development: development,
	}
}

type SubscribeRequestDTO struct {
	Email string `json:"email"`
}

func (h *MarketingHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SubscribeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	subscriber, err := h.marketing.Subscribe(ctx, req.Email)
	if err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"subscriber": subscriber})
}

func (h *MarketingHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	subscribers, err := h.marketing.ListSubscribers(ctx)
	if err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"subscribers": subscribers})
}

func (h *MarketingHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.marketing.SubmitContact(ctx, &req); err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
