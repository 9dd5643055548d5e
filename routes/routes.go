package routes

import (
	"github.com/clmates/wesnoth-tournament-manager-sub001/handlers"
	"github.com/clmates/wesnoth-tournament-manager-sub001/middleware"
	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	matchHandler *handlers.MatchHandler,
	tournamentHandler *handlers.TournamentHandler,
	seriesHandler *handlers.SeriesHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Post("/auth/signup", authHandler.SignUp)
	router.Post("/auth/signin", authHandler.SignIn)

	router.Get("/leaderboard", userHandler.Leaderboard)
	router.Route("/users", func(r chi.Router) {
		r.Get("/{userID}", userHandler.Get)
		r.Get("/{userID}/matches", userHandler.Matches)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", matchHandler.Report)
			r.Post("/{matchID}/confirm", matchHandler.Confirm)
			r.Post("/{matchID}/dispute", matchHandler.Dispute)
			r.Post("/{matchID}/replay", matchHandler.UploadReplay)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(models.RoleAdmin))
			r.Get("/disputed", matchHandler.ListDisputed)
			r.Post("/{matchID}/resolve", matchHandler.Resolve)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", tournamentHandler.Create)
			r.Post("/{tournamentID}/register", tournamentHandler.Register)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(models.RoleAdmin))
			r.Post("/{tournamentID}/prepare", tournamentHandler.Prepare)
			r.Post("/{tournamentID}/rounds/{roundNumber}/activate", tournamentHandler.ActivateRound)
			r.Post("/{tournamentID}/rounds/{roundNumber}/check-completion", tournamentHandler.CheckRoundCompletion)
		})
	})

	router.Route("/series", func(r chi.Router) {
		r.Get("/{seriesID}", seriesHandler.Get)
		r.Get("/{seriesID}/games", seriesHandler.ListGames)
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.Authorize(models.RoleAdmin))
		r.Post("/admin/recalculate-stats", adminHandler.RecalculateStats)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
