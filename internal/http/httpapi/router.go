package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"coverserver/internal/http/handlers"
	"coverserver/internal/middleware"
)

// Options configures the router middleware stack.
type Options struct {
	Log zerolog.Logger
	// CountryLookup may be nil when no GeoIP database is configured.
	CountryLookup middleware.CountryLookup
	// AllowedOrigins enables CORS for the listed origins. Empty disables it.
	AllowedOrigins []string
	// RateLimitPerMin caps generation requests per client IP. Zero disables
	// the limiter.
	RateLimitPerMin int
}

// NewRouter builds the service router.
func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Log),
	)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}
	r.Use(middleware.Telemetry(opts.CountryLookup))

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/covers", func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Get("/generate", app.GenerateCover)
		r.Post("/generate", app.GenerateCover)
	})

	// Client telemetry ingestion and the dashboard read path.
	r.Post("/metrics", app.IngestMetric)
	r.Get("/analytics", app.GetAnalytics)

	// Operational metrics for scrapers, separate from product telemetry.
	r.Handle("/metrics/prometheus", promhttp.Handler())

	return r
}
