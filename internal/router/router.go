// Package router wires handlers and middleware into the HTTP mux.
package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	cartHandler *handler.CartHandler,
	couponHandler *handler.CouponHandler,
	orderHandler *handler.OrderHandler,
	jwtSecret string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Prometheus metrics (no authentication required)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Catalogue
	mux.HandleFunc("GET /api/products", productHandler.List)
	mux.HandleFunc("GET /api/products/{id}", productHandler.GetByID)

	// Cart
	mux.HandleFunc("GET /api/cart", cartHandler.Get)
	mux.HandleFunc("DELETE /api/cart", cartHandler.Clear)
	mux.HandleFunc("POST /api/cart/items", cartHandler.AddItem)
	mux.HandleFunc("DELETE /api/cart/items/{productId}", cartHandler.RemoveItem)

	// Coupons
	mux.HandleFunc("GET /api/coupons", couponHandler.List)
	mux.HandleFunc("POST /api/coupons", couponHandler.Create)
	mux.HandleFunc("GET /api/coupons/{code}/preview", couponHandler.Preview)
	mux.HandleFunc("POST /api/coupons/apply", cartHandler.ApplyCoupon)
	mux.HandleFunc("DELETE /api/coupons/remove", cartHandler.RemoveCoupon)

	// Orders
	mux.HandleFunc("POST /api/orders", orderHandler.Create)
	mux.HandleFunc("GET /api/orders", orderHandler.List)
	mux.HandleFunc("GET /api/orders/{id}", orderHandler.GetByID)
	mux.HandleFunc("PUT /api/orders/{id}", orderHandler.Update)

	// Apply middleware in order: Recovery -> Logging -> Metrics -> CORS -> Auth
	var h http.Handler = mux
	h = middleware.Auth(jwtSecret, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Metrics(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
