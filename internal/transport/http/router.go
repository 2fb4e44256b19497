package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"empresaflow/internal/platform/metrics"
	"empresaflow/internal/platform/middleware"
	"empresaflow/pkg/platform/httputil"
)

const healthTimeout = 2 * time.Second

// Registrar mounts a module's routes on an authenticated router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps is everything the router needs.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Validator middleware.JWTValidator
	Modules   []Registrar
	Health    map[string]HealthCheck
}

// NewRouter wires the public endpoints. /healthz and /metrics are
// unauthenticated; every module route requires a bearer token.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(d.Logger, d.Metrics))

	r.Get("/healthz", healthHandler(d.Health))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Validator, d.Logger))
		for _, m := range d.Modules {
			m.Register(r)
		}
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		report := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": report})
	}
}
