package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopfra/catalogsync/internal/index"
	"github.com/shopfra/catalogsync/internal/search"
	"github.com/shopfra/catalogsync/internal/service"
	catalogsync "github.com/shopfra/catalogsync/internal/sync"
	"github.com/shopfra/catalogsync/pkg/health"
	"github.com/shopfra/catalogsync/pkg/middleware"
)

// NewRouter creates a chi router with all catalog and search routes registered.
func NewRouter(
	catalogService *service.CatalogService,
	searchRouter *search.Router,
	reconciler *catalogsync.Reconciler,
	coordinator *catalogsync.Coordinator,
	indexer index.Indexer,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("catalog-sync"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Catalog API endpoints
	productHandler := NewProductHandler(catalogService, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", productHandler.ListProducts)
		r.Get("/{id}", productHandler.GetProduct)
		r.Post("/", productHandler.CreateProduct)
		r.Put("/{id}", productHandler.UpdateProduct)
		r.Delete("/{id}", productHandler.DeleteProduct)
	})

	// Search API endpoints
	searchHandler := NewSearchHandler(searchRouter, logger)

	r.Route("/api/v1/search", func(r chi.Router) {
		// Results read from index snapshots, so short client caching is safe.
		r.Use(middleware.CacheControl(30))

		r.Get("/", searchHandler.Search)
	})

	// Admin endpoints
	adminHandler := NewAdminHandler(reconciler, coordinator, indexer, logger)

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/reconcile", adminHandler.Reconcile)
		r.Delete("/index", adminHandler.DropIndex)
	})

	return r
}
