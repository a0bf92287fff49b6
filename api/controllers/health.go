package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/sightlinehq/optishop-backend/api/responses"
	"github.com/sightlinehq/optishop-backend/pkg/config"
	pkgerrors "github.com/sightlinehq/optishop-backend/pkg/errors"
	"github.com/sightlinehq/optishop-backend/pkg/logger"
)

const readinessPingTimeout = 2 * time.Second

// Pinger is the health check surface shared by the datastore clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OptiShop-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when both the database and redis answer a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, database Pinger, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OptiShop-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		for name, p := range map[string]Pinger{"database": database, "redis": cache} {
			if p == nil {
				checks[name] = "not configured"
				healthy = false
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readinessPingTimeout)
			if err := p.Ping(ctx); err != nil {
				checks[name] = err.Error()
				healthy = false
			} else {
				checks[name] = "ok"
			}
			cancel()
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies not ready").WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
