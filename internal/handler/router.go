package handler

import (
	"log/slog"
	"net/http"

	"github.com/forgo/recipebook/internal/metrics"
	"github.com/forgo/recipebook/internal/middleware"
)

// RouterConfig holds everything the HTTP surface needs
type RouterConfig struct {
	Recipes        *RecipeHandler
	Auth           *AuthHandler
	Tokens         middleware.TokenValidator
	DB             Pinger
	Metrics        *metrics.Collector
	MetricsPath    string
	AllowedOrigins []string
	// AuthLimiter throttles register and login; nil disables it
	AuthLimiter *middleware.RateLimiter
	// Idempotency replays retried recipe creation; nil disables it
	Idempotency *middleware.IdempotencyStore
	Logger      *slog.Logger
}

// NewRouter registers every route and wraps the mux in the global
// middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.Auth(cfg.Tokens)
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}
	limited := func(h http.HandlerFunc) http.Handler {
		if cfg.AuthLimiter == nil {
			return h
		}
		return middleware.RateLimit(cfg.AuthLimiter)(h)
	}
	idempotent := func(h http.HandlerFunc) http.Handler {
		if cfg.Idempotency == nil {
			return h
		}
		return middleware.Idempotency(cfg.Idempotency)(h)
	}

	// Public endpoints
	mux.HandleFunc("GET /health", Health(cfg.DB))
	mux.HandleFunc("GET /recipe", RecipePage)
	mux.Handle("POST /api/register", limited(cfg.Auth.Register))
	mux.Handle("POST /api/login", limited(cfg.Auth.Login))
	mux.HandleFunc("GET /api/recipe/{id}/image", cfg.Recipes.Image)

	// Recipe endpoints
	mux.Handle("POST /api/createRecipe", auth(idempotent(cfg.Recipes.Create)))
	mux.Handle("GET /api/recipe/{id}", protected(cfg.Recipes.Show))
	mux.Handle("POST /api/recipe/{id}/uploadRecipeImage", protected(cfg.Recipes.UploadImage))
	mux.Handle("POST /api/recipe/{id}/updateRecipe", protected(cfg.Recipes.Update))
	mux.Handle("GET /api/editRecipe/{id}", protected(cfg.Recipes.Edit))
	mux.Handle("DELETE /api/recipe/{id}/cancelRecipe", protected(cfg.Recipes.Cancel))

	chain := []middleware.Middleware{
		middleware.Recovery,
		middleware.RequestID,
		middleware.Logger(cfg.Logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.Compress,
	}
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, cfg.Metrics.Handler())
		chain = append(chain, middleware.Metrics(cfg.Metrics))
	}

	return middleware.Chain(mux, chain...)
}
