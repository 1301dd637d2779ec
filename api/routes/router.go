package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quotedesk/quotedesk-backend/api/controllers"
	"github.com/quotedesk/quotedesk-backend/api/middleware"
	"github.com/quotedesk/quotedesk-backend/pkg/config"
	"github.com/quotedesk/quotedesk-backend/pkg/db"
	"github.com/quotedesk/quotedesk-backend/pkg/logger"
	"github.com/quotedesk/quotedesk-backend/pkg/redis"
)

// NewRouter mounts the three surfaces of the service: liveness/metrics, the
// public token-authenticated supplier gateway and the buyer console API.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	quotationSvc controllers.QuotationService,
	gatewaySvc controllers.GatewayService,
	resolver controllers.Resolver,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Route("/v1/quotation", func(r chi.Router) {
			r.Get("/", controllers.GatewayFetch(gatewaySvc, logg))
			r.Post("/prices", controllers.GatewaySubmit(gatewaySvc, logg))
		})
	})

	r.Route("/api/v1/quotations", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))
		r.Post("/", controllers.QuotationCreate(quotationSvc, logg))
		r.Route("/{quotationId}", func(r chi.Router) {
			r.Get("/", controllers.QuotationGet(quotationSvc, logg))
			r.Get("/prices", controllers.QuotationPrices(quotationSvc, logg))
			r.Post("/contest", controllers.QuotationContest(quotationSvc, logg))
			r.Post("/resolve", controllers.QuotationResolve(resolver, logg))
			r.Delete("/", controllers.QuotationDelete(quotationSvc, logg))
		})
	})

	return r
}
