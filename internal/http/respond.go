package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/repository"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/service"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps service/repository errors onto the HTTP error
// envelope. Unknown errors are logged with the endpoint and answered with a
// generic message in production; development mode includes the detail.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, development bool) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Code:    "validation_failed",
			Details: verr.Fields,
		})
		return
	}

	var missing *service.ProductMissingError
	if errors.As(err, &missing) {
		respondError(w, http.StatusNotFound, "product_not_found", missing.Error())
		return
	}

	var stock *repository.ErrInsufficientStock
	if errors.As(err, &stock) {
		respondError(w, http.StatusBadRequest, "insufficient_stock", stock.Error())
		return
	}

	var transition *repository.ErrIllegalTransition
	if errors.As(err, &transition) {
		respondError(w, http.StatusConflict, "illegal_transition", transition.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrEmptyOrder):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "Product not found")
	case errors.Is(err, repository.ErrCartItemNotFound):
		respondError(w, http.StatusNotFound, "cart_item_not_found", "Cart item not found")
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "Order not found")
	case errors.Is(err, repository.ErrDuplicateSKU):
		respondError(w, http.StatusConflict, "duplicate_sku", err.Error())
	case errors.Is(err, repository.ErrProductReferenced):
		respondError(w, http.StatusConflict, "product_referenced", err.Error())
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		if development {
			respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
