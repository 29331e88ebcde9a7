package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/service"
)

type ProductHandler struct {
	products    *service.ProductService
	timeout     time.Duration
	development bool
}

func NewProductHandler(products *service.ProductService, timeout time.Duration, development bool) *ProductHandler {
	return &ProductHandler{
		products:    products,
		timeout:     timeout,
		development: development,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	filter := domain.ProductFilter{
		Category:     q.Get("category"),
		FeaturedOnly: q.Get("featured") == "true",
		// The storefront only ever sees published products; the admin
		// catalog opts out explicitly.
		PublishedOnly: q.Get("includeUnpublished") != "true",
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.products.ListProducts(ctx, filter)
	if err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.products.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.products.CreateProduct(ctx, &product); err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	respondJSON(w, http.StatusCreated, &product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	product.ID = chi.URLParam(r, "id")

	if err := h.products.UpdateProduct(ctx, &product); err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	respondJSON(w, http.StatusOK, &product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.products.DeleteProduct(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err, h.development)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
