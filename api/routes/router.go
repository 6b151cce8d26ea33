package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evermois/checkout-bridge/api/controllers"
	webhookcontrollers "github.com/evermois/checkout-bridge/api/controllers/webhooks"
	"github.com/evermois/checkout-bridge/api/middleware"
	stripewebhook "github.com/evermois/checkout-bridge/internal/webhooks/stripe"
	"github.com/evermois/checkout-bridge/pkg/config"
	"github.com/evermois/checkout-bridge/pkg/logger"
	"github.com/evermois/checkout-bridge/pkg/metrics"
	"github.com/evermois/checkout-bridge/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	cache redis.Pinger,
	checkoutService controllers.CheckoutService,
	webhookService webhookcontrollers.StripeWebhookService,
	verifier *stripewebhook.Verifier,
	guard *stripewebhook.EventGuard,
	m *metrics.CheckoutMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.Recoverer(logg))

	r.Get("/health/live", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, cache, logg))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/checkout", func(r chi.Router) {
			r.Use(middleware.CORS(cfg.Checkout.AllowedOrigins))
			r.Post("/session", controllers.CreateCheckoutSession(checkoutService, m, logg))
		})

		// Webhook deliveries are server-to-server; no CORS here.
		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(webhookService, verifier, guard, m, logg))
	})

	return r
}
