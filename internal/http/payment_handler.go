package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/payment"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/service"
)

const (
	mpesaSignatureHeader  = "X-Mpesa-Signature"
	stripeSignatureHeader = "X-Stripe-Signature"

	// maxCallbackBody caps provider callback bodies before HMAC verification.
	maxCallbackBody = 1 << 20
)

type PaymentHandler struct {
	payments     *service.PaymentService
	mpesaSecret  []byte
	stripeSecret []byte
	timeout      time.Duration
	development  bool
}

func NewPaymentHandler(payments *service.PaymentService, mpesaSecret, stripeSecret []byte, timeout time.Duration, development bool) *PaymentHandler {
	return &PaymentHandler{
		payments:     payments,
		mpesaSecret:  mpesaSecret,
		stripeSecret: stripeSecret,
		timeout:      timeout,
		development:  development,
	}
}

type MpesaInitiateDTO struct {
	OrderID string `json:"orderId"`
	Phone   string `json:"phone"`
	Amount  int64  `json:"amount"`
}

type StripeInitiateDTO struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (h *PaymentHandler) InitiateMpesa(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req MpesaInitiateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.payments.InitiateMpesa(ctx, req.OrderID, req.Phone, req.Amount)
	if err != nil {
		recordOrderOperation("payment_initiate", false)
		handleServiceError(w, r, err, h.development)
		return
	}

	recordOrderOperation("payment_initiate", true)
	respondJSON(w, http.StatusOK, result)
}

func (h *PaymentHandler) InitiateStripe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req StripeInitiateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.payments.InitiateStripe(ctx, req.OrderID, req.Amount, req.Currency)
	if err != nil {
		recordOrderOperation("payment_initiate", false)
		handleServiceError(w, r, err, h.development)
		return
	}

	recordOrderOperation("payment_initiate", true)
	respondJSON(w, http.StatusOK, result)
}

// MpesaCallback verifies the webhook signature against the raw body before
// decoding anything from it.
func (h *PaymentHandler) MpesaCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	body, ok := h.verifiedBody(w, r, h.mpesaSecret, mpesaSignatureHeader)
	if !ok {
		return
	}

	var cb service.MpesaCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.payments.HandleMpesaCallback(ctx, &cb)
	if err != nil {
		recordOrderOperation("payment_callback", false)
		handleServiceError(w, r, err, h.development)
		return
	}

	recordOrderOperation("payment_callback", true)
	respondJSON(w, http.StatusOK, order)
}

func (h *PaymentHandler) StripeConfirmation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	body, ok := h.verifiedBody(w, r, h.stripeSecret, stripeSignatureHeader)
	if !ok {
		return
	}

	var conf service.StripeConfirmation
	if err := json.Unmarshal(body, &conf); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.payments.HandleStripeConfirmation(ctx, &conf)
	if err != nil {
		recordOrderOperation("payment_callback", false)
		handleServiceError(w, r, err, h.development)
		return
	}

	recordOrderOperation("payment_callback", true)
	respondJSON(w, http.StatusOK, order)
}

// verifiedBody reads the raw body and checks the signature header. On
// failure it writes the error response and returns ok=false.
func (h *PaymentHandler) verifiedBody(w http.ResponseWriter, r *http.Request, secret []byte, header string) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read request body")
		return nil, false
	}

	if err := payment.Verify(secret, r.Header.Get(header), body, payment.DefaultSignatureWindow); err != nil {
		switch {
		case errors.Is(err, payment.ErrStaleSignature):
			respondError(w, http.StatusUnauthorized, "stale_signature", "signature timestamp outside the accepted window")
		case errors.Is(err, payment.ErrMalformedSignature):
			respondError(w, http.StatusUnauthorized, "invalid_signature", "malformed signature header")
		default:
			respondError(w, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
		}
		return nil, false
	}
	return body, true
}
