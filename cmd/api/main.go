package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/evermois/checkout-bridge/api/routes"
	"github.com/evermois/checkout-bridge/internal/checkout"
	"github.com/evermois/checkout-bridge/internal/discounts"
	"github.com/evermois/checkout-bridge/internal/orders"
	"github.com/evermois/checkout-bridge/internal/pricing"
	stripewebhook "github.com/evermois/checkout-bridge/internal/webhooks/stripe"
	"github.com/evermois/checkout-bridge/pkg/config"
	"github.com/evermois/checkout-bridge/pkg/logger"
	"github.com/evermois/checkout-bridge/pkg/metrics"
	"github.com/evermois/checkout-bridge/pkg/redis"
	"github.com/evermois/checkout-bridge/pkg/shopify"
	"github.com/evermois/checkout-bridge/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	shopifyClient, err := shopify.NewClient(cfg.Shopify)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap shopify", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	currency := cfg.Checkout.NormalizedCurrency()

	resolver, err := pricing.NewResolver(shopifyClient, currency)
	if err != nil {
		logg.Error(context.Background(), "failed to create price resolver", err)
		os.Exit(1)
	}

	translator, err := discounts.NewTranslator(shopifyClient, discounts.NewPromotionClient(stripeClient), currency, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create discount translator", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(resolver, translator, checkout.NewSessionClient(stripeClient), cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	synthesizer, err := orders.NewSynthesizer(orders.NewSessionFetcher(stripeClient), shopifyClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order synthesizer", err)
		os.Exit(1)
	}

	verifier, err := stripewebhook.NewVerifier(stripeClient.SigningSecret())
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook verifier", err)
		os.Exit(1)
	}

	guard, err := stripewebhook.NewEventGuard(redisClient, cfg.Webhook.EventGuardTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create event guard", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(synthesizer)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	bridgeMetrics := metrics.NewCheckoutMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, checkoutService, webhookService, verifier, guard, bridgeMetrics, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
