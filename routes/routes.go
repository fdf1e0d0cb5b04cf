package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/beachcomp/tournament-engine/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	tournamentHandler *handlers.TournamentHandler,
	teamHandler *handlers.TeamHandler,
	poolHandler *handlers.PoolHandler,
	matchHandler *handlers.MatchHandler,
	standingsHandler *handlers.StandingsHandler,
	formatHandler *handlers.FormatHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Route("/formats", func(r chi.Router) {
		r.Post("/", formatHandler.Create)
		r.Get("/", formatHandler.List)
		r.Get("/{formatID}", formatHandler.Get)
		r.Delete("/{formatID}", formatHandler.Delete)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Post("/", tournamentHandler.Create)
		r.Get("/", tournamentHandler.List)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", tournamentHandler.Get)
			r.Get("/full", tournamentHandler.GetFullState)
			r.Put("/status", tournamentHandler.UpdateStatus)

			r.Post("/teams", teamHandler.Create)
			r.Get("/teams", teamHandler.List)

			r.Get("/matches", matchHandler.List)
			r.Post("/brackets/recompute", matchHandler.Recompute)

			r.Get("/standings", standingsHandler.Get)
			r.Put("/standings/override", standingsHandler.SetOverride)
			r.Delete("/standings/override", standingsHandler.ClearOverride)

			r.Route("/stages/{stageKey}", func(r chi.Router) {
				r.Post("/pools", poolHandler.InitializePools)
				r.Get("/pools", poolHandler.List)
				r.Post("/pools/autofill", poolHandler.AutoFill)
				r.Post("/matches", matchHandler.GenerateStage)
			})
		})
	})

	router.Route("/teams/{teamID}", func(r chi.Router) {
		r.Get("/", teamHandler.Get)
		r.Put("/", teamHandler.Update)
		r.Delete("/", teamHandler.Delete)
		r.Post("/crest", teamHandler.UploadCrest)
	})

	router.Put("/pools/{poolID}/teams/{teamID}", poolHandler.ReassignTeam)

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", matchHandler.Get)
		r.Put("/status", matchHandler.UpdateStatus)
		r.Post("/finalize", matchHandler.Finalize)
		r.Post("/unfinalize", matchHandler.Unfinalize)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
