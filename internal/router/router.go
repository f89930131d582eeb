package router

import (
	"net/http"

	"promo-engine/internal/handler"
	"promo-engine/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	promotionHandler *handler.PromotionHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api/promotions", func(r chi.Router) {
		r.Post("/", promotionHandler.Create)
		r.Get("/", promotionHandler.List)
		r.Post("/bulk", promotionHandler.BulkGenerate)
		r.Post("/evaluate", promotionHandler.Evaluate)
		r.Get("/export", promotionHandler.Export)
		r.Get("/{id}", promotionHandler.GetByID)
		r.Patch("/{id}", promotionHandler.Update)
		r.Delete("/{id}", promotionHandler.Delete)
	})

	// Redemption confirmation sits outside the promotion CRUD surface: it is
	// the hook order finalisation calls, keyed by code rather than id.
	r.Post("/api/redemptions/{code}", promotionHandler.ConfirmRedemption)

	return r
}
