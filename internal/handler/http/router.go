package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luanvuhlu/compmarket/internal/catalog"
	"github.com/luanvuhlu/compmarket/internal/search"
	"github.com/luanvuhlu/compmarket/pkg/health"
	"github.com/luanvuhlu/compmarket/pkg/middleware"
)

// RouterConfig carries the dependencies the router needs.
type RouterConfig struct {
	SearchService  *search.Service
	CatalogService *catalog.Service
	// ProductLister feeds index rebuilds; nil disables the reindex endpoint.
	ProductLister search.ProductLister
	HealthHandler *health.Handler
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all catalog and search routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("compmarket"))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	searchHandler := NewSearchHandler(cfg.SearchService, cfg.ProductLister, cfg.Logger)
	productHandler := NewProductHandler(cfg.CatalogService, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Get("/suggest", searchHandler.Suggest)
			r.Get("/", searchHandler.Search)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/", searchHandler.SearchPost)
				r.Post("/reindex", searchHandler.Reindex)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/{id}", productHandler.GetProduct)
			r.Get("/{id}/similar", searchHandler.Similar)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/", productHandler.CreateProduct)
				r.Put("/{id}", productHandler.UpdateProduct)
				r.Delete("/{id}", productHandler.DeleteProduct)
				r.Put("/{id}/specifications", productHandler.SetSpecifications)
			})
		})

		r.Get("/categories", productHandler.ListCategories)

		r.Route("/attributes", func(r chi.Router) {
			r.Get("/", productHandler.ListAttributeDefinitions)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/", productHandler.CreateAttributeDefinition)
			})
		})
	})

	return r
}
