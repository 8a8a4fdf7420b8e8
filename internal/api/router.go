package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/aiox-platform/recall/internal/middleware"
)

// HandlerSet holds handler functions injected from main to avoid import cycles.
type HandlerSet struct {
	// Memory handlers
	GetMemories    http.HandlerFunc
	AddMemory      http.HandlerFunc
	DeleteMemories http.HandlerFunc
	GetMemory      http.HandlerFunc
	UpdateMemory   http.HandlerFunc
	DeleteMemory   http.HandlerFunc
	SearchMemories http.HandlerFunc
	MemoryHistory  http.HandlerFunc

	// Shared-secret middleware, applied to every request; it decides by path.
	AuthMiddleware func(http.Handler) http.Handler

	// Optional limiter for the memory routes.
	RateLimiter func(http.Handler) http.Handler
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	// HealthChecks are run by the readiness probe, keyed by dependency name.
	HealthChecks map[string]HealthCheck
}

func NewRouter(cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(mw.CORS(cfg.CORSAllowedOrigins))
	r.Use(h.AuthMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		HandleError(w, ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		HandleError(w, ErrMethodNotAllowed)
	})

	// Liveness probe, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{"status": "healthy"}
		status := http.StatusOK

		names := make([]string, 0, len(cfg.HealthChecks))
		for name := range cfg.HealthChecks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if err := cfg.HealthChecks[name](r.Context()); err != nil {
				health[name] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			health[name] = "healthy"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Memory routes
	r.Group(func(r chi.Router) {
		if h.RateLimiter != nil {
			r.Use(h.RateLimiter)
		}

		r.Post("/get_memories", h.GetMemories)
		r.Post("/add_memory", h.AddMemory)
		r.Delete("/delete_memories", h.DeleteMemories)
		r.Get("/get_memory", h.GetMemory)
		r.Put("/update_memory", h.UpdateMemory)
		r.Delete("/delete_memory", h.DeleteMemory)
		r.Post("/search_memories", h.SearchMemories)
		r.Get("/memory_history", h.MemoryHistory)
	})

	return r
}
