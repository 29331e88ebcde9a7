package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	JWTSecret      []byte
	RequestTimeout time.Duration
	RateLimit      int
	RateWindow     time.Duration
}

// NewRouter assembles the public API surface. Payment callbacks sit outside
// the rate limiter so a provider retry burst cannot be throttled into
// dropped status updates.
func NewRouter(cfg RouterConfig, products *ProductHandler, carts *CartHandler, orders *OrderHandler, payments *PaymentHandler, marketing *MarketingHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	r.Use(IdentityMiddleware(cfg.JWTSecret))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	rateLimit := RateLimitMiddleware(cfg.RateLimit, cfg.RateWindow)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Get("/{id}", products.Get)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.With(rateLimit).Post("/items", carts.AddItem)
			r.With(rateLimit).Put("/items/{id}", carts.UpdateQuantity)
			r.With(rateLimit).Delete("/items/{id}", carts.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(rateLimit).Post("/", orders.Create)
			r.Get("/", orders.List)
			r.Get("/{id}", orders.Get)
			r.With(RequireAdmin).Put("/", orders.Update)
		})

		r.Route("/payment", func(r chi.Router) {
			r.With(rateLimit).Post("/mpesa", payments.InitiateMpesa)
			r.Put("/mpesa", payments.MpesaCallback)
			r.With(rateLimit).Post("/stripe", payments.InitiateStripe)
			r.Put("/stripe", payments.StripeConfirmation)
		})

		r.With(rateLimit).Post("/newsletter", marketing.Subscribe)
		r.With(rateLimit).Post("/contact", marketing.SubmitContact)
		r.With(RequireAdmin).Get("/admin/subscribers", marketing.ListSubscribers)

		r.Route("/admin/products", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/", products.Create)
			r.Put("/{id}", products.Update)
			r.Delete("/{id}", products.Delete)
		})
	})

	return r
}
