package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/paystore/pkg/health"
	"github.com/utafrali/paystore/pkg/middleware"
)

// RouterConfig collects everything the router needs to serve the storefront
// API surface.
type RouterConfig struct {
	Cart     *CartHandler
	Catalog  *CatalogHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Health   *health.Handler
	CORS     middleware.CORSConfig
	Logger   *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	// The verify endpoint can hold a request for the full polling window,
	// so the timeout sits well above MaxAttempts * PollInterval.
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestContext(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Catalog reads are session-free so product pages work before a
		// session exists.
		r.Get("/products", cfg.Catalog.ListProducts)
		r.Get("/products/{productId}", cfg.Catalog.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cfg.Cart.GetCart)
				r.Delete("/", cfg.Cart.ClearCart)
				r.Post("/items", cfg.Cart.AddItem)
				r.Put("/items/{productId}", cfg.Cart.UpdateQuantity)
				r.Delete("/items/{productId}", cfg.Cart.RemoveItem)
			})

			r.Post("/checkout", cfg.Checkout.Checkout)

			r.Route("/payments", func(r chi.Router) {
				r.Get("/{paymentId}", cfg.Checkout.GetPayment)
				r.Post("/{paymentId}/verify", cfg.Checkout.VerifyPayment)
				r.Get("/order/{orderId}", cfg.Checkout.ListOrderPayments)
			})

			r.Get("/orders", cfg.Orders.ListOrders)
		})
	})

	return r
}
