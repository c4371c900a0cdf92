package routes

import (
	"github.com/austinlparker/bsky-bracket/handlers"
	"github.com/austinlparker/bsky-bracket/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes mounts the public tournament API and the authenticated feed.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	gameHandler *handlers.GameHandler,
	roundHandler *handlers.RoundHandler,
	teamHandler *handlers.TeamHandler,
	statsHandler *handlers.StatsHandler,
	feedHandler *handlers.FeedHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/games/current", gameHandler.CurrentHandler)

		r.Route("/rounds", func(r chi.Router) {
			r.Get("/current", roundHandler.CurrentHandler)
			r.Get("/status", roundHandler.StatusHandler)
			r.Get("/{roundID}/stats", roundHandler.StatsHandler)
			r.Get("/{roundID}/cutoffs", roundHandler.CutoffsHandler)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", teamHandler.ListHandler)
			r.Get("/{team}/eliminations", teamHandler.EliminationsHandler)
		})

		r.Get("/stats/current", statsHandler.CurrentHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Get("/feed", feedHandler.GetHandler)
		})
	})
}
