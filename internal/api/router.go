package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicore/schedengine/pkg/logging"
)

// RouterConfig holds everything the HTTP surface needs.
type RouterConfig struct {
	Logger         *logging.Logger
	Handler        *Handler
	StatsHandler   *StatsHandler
	MetricsHandler http.Handler
}

// NewRouter creates the chi router with all routes configured.
func NewRouter(cfg *RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(requestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.StatsHandler != nil {
		r.Get("/ops/stats", cfg.StatsHandler.GetStats)
	}
	if cfg.Handler != nil {
		r.Mount("/clinics", cfg.Handler.Routes())
	}

	return r
}

// requestLogger logs one line per request with method, path and status.
func requestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
			)
		})
	}
}
