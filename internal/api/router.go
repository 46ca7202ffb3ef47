package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterConfig carries the request-edge settings.
type RouterConfig struct {
	// Token protects the data routes when set.
	Token          string
	RatePerMinute  int
	AllowedOrigins []string
}

// NewRouter builds and returns the Chi router with all routes configured.
// The health endpoint is always public. memo may be nil when Redis is disabled.
func NewRouter(handlers *Handlers, cfg RouterConfig, db Pinger, memo Pinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{OriginHeader},
		MaxAge:         300,
	}))
	if cfg.RatePerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RatePerMinute, time.Minute))
	}

	r.NotFound(NotFound)
	r.MethodNotAllowed(NotFound)

	r.Get("/health", HealthHandlerFunc(db, memo, log))

	r.Group(func(r chi.Router) {
		if cfg.Token != "" {
			r.Use(BearerAuth(cfg.Token))
		}
		r.Get("/location", handlers.GetLocation)
		r.Get("/weather", handlers.GetWeather)
		r.Get("/yelp", handlers.GetBusinesses)
		r.Get("/movies", handlers.GetMovies)
		r.Get("/summary", handlers.GetSummary)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
