// Package httptransport assembles the feature handlers behind one chi router.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hostelgate/internal/platform/middleware"
	"hostelgate/pkg/platform/httputil"
)

// Registrar is a feature handler that adds its routes to the router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck pings one backing dependency.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries the cross-cutting pieces of the router. Zero values
// disable latency metrics and /metrics.
type RouterConfig struct {
	Logger   *slog.Logger
	Latency  middleware.LatencyObserver
	Gatherer prometheus.Gatherer
	Checks   map[string]HealthCheck
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter applies the global middleware chain and registers every handler.
func NewRouter(cfg RouterConfig, handlers ...Registrar) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	if cfg.Latency != nil {
		r.Use(middleware.LatencyMiddleware(cfg.Latency))
	}

	r.Get("/health", healthHandler(cfg.Checks))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
