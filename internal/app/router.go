package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mercadito-erp/mercadito-erp/internal/catalog"
	"github.com/mercadito-erp/mercadito-erp/internal/debtors"
	"github.com/mercadito-erp/mercadito-erp/internal/observability"
	"github.com/mercadito-erp/mercadito-erp/internal/rates"
	"github.com/mercadito-erp/mercadito-erp/internal/sales"
	"github.com/mercadito-erp/mercadito-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	CatalogHandler *catalog.Handler
	SalesHandler   *sales.Handler
	DebtorsHandler *debtors.Handler
	RatesHandler   *rates.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Mercadito defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/products", params.CatalogHandler.MountProductRoutes)
	r.Route("/categories", params.CatalogHandler.MountCategoryRoutes)
	r.Route("/sales", params.SalesHandler.MountRoutes)
	r.Route("/debtors", params.DebtorsHandler.MountRoutes)
	r.Route("/config", params.RatesHandler.MountRoutes)

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
