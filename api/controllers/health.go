package controllers

import (
	"net/http"

	"github.com/evermois/checkout-bridge/api/responses"
	"github.com/evermois/checkout-bridge/pkg/config"
	pkgerrors "github.com/evermois/checkout-bridge/pkg/errors"
	"github.com/evermois/checkout-bridge/pkg/logger"
	"github.com/evermois/checkout-bridge/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Bridge-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-Bridge-Env", cfg.App.Env)
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
