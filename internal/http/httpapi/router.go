package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"deckforge/internal/http/handlers"
	"deckforge/internal/middleware"
)

// Options configures cross-cutting router behavior.
type Options struct {
	Logger          zerolog.Logger
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/templates", app.Templates)

	r.Route("/v1/decks", func(r chi.Router) {
		limit := opts.RateLimitPerMin
		if limit <= 0 {
			limit = 30
		}
		r.With(middleware.RateLimit(limit, time.Minute)).Post("/", app.DecksGenerate)
		r.Get("/{job_id}", app.DeckStatus)
		r.Get("/{job_id}/download", app.DeckDownload)
		r.Get("/{job_id}/bundle", app.DeckBundle)
	})

	r.Get("/v1/history", app.HistoryList)
	r.Post("/v1/admin/cache/cleanup", app.CacheCleanup)

	return r
}
