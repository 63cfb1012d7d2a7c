package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ataa/internal/http/handlers"
	"ataa/internal/infra"
	"ataa/internal/middleware"
)

// RouterOptions carries the middleware configuration for the API router.
type RouterOptions struct {
	Logger          infra.Logger
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	AllowedOrigins  []string
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/cases", func(r chi.Router) {
		r.Get("/", app.CasesList)
		r.Get("/{id}", app.CaseGet)
	})

	r.Route("/v1/contributions", func(r chi.Router) {
		r.Get("/{id}", app.ContributionGet)
		r.Patch("/{id}/status", app.ContributionStatusUpdate)
	})

	return r
}
