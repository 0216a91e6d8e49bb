package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// RouterConfig holds the router's settings and health-checked backends.
// A nil pinger reports its backend as disabled.
type RouterConfig struct {
	Token       string
	CORSOrigins []string
	DB          Pinger
	Redis       Pinger
}

// NewRouter builds and returns the Chi router with all routes configured.
// The health endpoint is unauthenticated; everything else requires bearer auth.
// Rate limiting is applied globally: 60 requests per minute per IP.
func NewRouter(handlers *Handlers, cfg RouterConfig, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(CORS(cfg.CORSOrigins))
	}
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(cfg.DB, cfg.Redis, log))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.Token))
		r.Get("/api/v1/cities", handlers.ListCities)
		r.Get("/api/v1/cities/{city}/pois", handlers.ListPOIs)
		r.Get("/api/v1/cities/{city}/weather", handlers.GetWeather)
		r.Get("/api/v1/cities/{city}/plan", handlers.Plan)
		r.Post("/api/v1/route", handlers.Route)
		r.Post("/api/v1/translate", handlers.Translate)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
