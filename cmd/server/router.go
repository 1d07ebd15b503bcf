package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-fsrs/internal/api"
	apiMiddleware "github.com/phrazzld/scry-fsrs/internal/api/middleware"
)

// setupRouter creates the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	rateLimiter := apiMiddleware.NewRateLimiter(
		app.config.Server.RateLimitPerSecond,
		app.config.Server.RateLimitBurst,
	)

	deckHandler := api.NewDeckHandler(app.deckService, app.logger)
	cardHandler := api.NewCardHandler(app.cardReviewService, app.cardService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Use(rateLimiter.Middleware)

		r.Get("/decks", deckHandler.ListDecks)
		r.Post("/decks", deckHandler.CreateDeck)
		r.Post("/decks/{deckID}/cards", cardHandler.CreateCard)
		r.Get("/decks/{deckID}/cards", cardHandler.ListCards)
		r.Get("/decks/{deckID}/due", cardHandler.GetDueCards)

		r.Get("/cards/{id}", cardHandler.GetCard)
		r.Delete("/cards/{id}", cardHandler.DeleteCard)
		r.Post("/cards/{id}/review", cardHandler.SubmitReview)
		r.Get("/cards/{id}/preview", cardHandler.PreviewCard)
		r.Get("/cards/{id}/reviews", cardHandler.ListReviewLogs)
	})

	r.Get("/health", api.HealthHandler(app.db))

	return r
}
