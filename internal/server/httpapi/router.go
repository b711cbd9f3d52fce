// Package httpapi exposes the catalog over HTTP using chi.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/metrics"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BasePath is the mount point of the records API.
const BasePath = "/catalog/movies/v1"

// Catalog is the service behind the handlers.
type Catalog interface {
	Create(ctx context.Context, params models.CreateParams) (*models.Record, error)
	Get(ctx context.Context, id string) (*models.Record, error)
	Update(ctx context.Context, id string, params models.UpdateParams) (*models.Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, count int, term string, cursor *string) (*models.Page[*models.Record], error)
}

// Options configure paging limits and the per-request timeout.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	RequestTimeout  time.Duration
}

// Handler serves the records API.
type Handler struct {
	svc     Catalog
	opts    Options
	logger  logging.Logger
	metrics *metrics.Metrics
}

// NewHandler constructs a Handler.
func NewHandler(svc Catalog, opts Options, logger logging.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, opts: opts, logger: logger.With("module", "http"), metrics: m}
}

// Router builds the chi router: health, metrics from gatherer (when not nil)
// and the records API under BasePath.
func (h *Handler) Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)
	if h.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(h.opts.RequestTimeout))
	}

	r.Get("/health", h.health)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route(BasePath, func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})

	return r
}

// instrument logs and counts every request by route pattern.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		h.metrics.Request(r.Method, route, status)
		h.logger.Debug(r.Context(), "request served",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
