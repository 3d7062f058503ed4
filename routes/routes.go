package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/padelhub/tournament-system/handlers"
	"github.com/padelhub/tournament-system/middleware"
	"github.com/padelhub/tournament-system/models"
)

// SetupRoutes настраивает все маршруты API. Чтение доступно любому
// аутентифицированному пользователю; мутации — только администраторам.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	teamHandler *handlers.TeamHandler,
	courtHandler *handlers.CourtHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	weatherHandler *handlers.WeatherHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	requireAdmin := middleware.RequireRole(models.RoleAdmin)

	// Публичные маршруты
	router.Post("/auth/register", authHandler.RegisterHandler)
	router.Post("/auth/register-admin", authHandler.RegisterAdminHandler)
	router.Post("/auth/login", authHandler.LoginHandler)

	router.Route("/player", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", playerHandler.ListHandler)
		r.Get("/{playerID}", playerHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", playerHandler.CreateHandler)
			r.Put("/{playerID}", playerHandler.UpdateHandler)
			r.Delete("/{playerID}", playerHandler.DeleteHandler)
		})
	})

	router.Route("/team", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", teamHandler.ListHandler)
		r.Get("/{teamID}", teamHandler.GetByIDHandler)
		r.Get("/{teamID}/matches", teamHandler.ListMatchesHandler)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", teamHandler.CreateHandler)
			r.Put("/{teamID}", teamHandler.UpdateHandler)
			r.Delete("/{teamID}", teamHandler.DeleteHandler)
			r.Post("/{teamID}/add-member", teamHandler.AddMemberHandler)
			r.Delete("/{teamID}/members/{playerID}", teamHandler.RemoveMemberHandler)
		})
	})

	router.Route("/court", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", courtHandler.ListHandler)
		r.Get("/{courtID}", courtHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", courtHandler.CreateHandler)
			r.Put("/{courtID}", courtHandler.UpdateHandler)
			r.Patch("/{courtID}/availability", courtHandler.SetAvailabilityHandler)
			r.Delete("/{courtID}", courtHandler.DeleteHandler)
		})
	})

	router.Route("/tournament", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/standings", tournamentHandler.StandingsHandler)
		r.Get("/{tournamentID}/matches", tournamentHandler.ListMatchesHandler)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", tournamentHandler.CreateHandler)
			r.Post("/{tournamentID}/register-team", tournamentHandler.RegisterTeamHandler)
			r.Post("/{tournamentID}/start-group-phase", tournamentHandler.StartGroupPhaseHandler)
			r.Post("/{tournamentID}/start-knockout-phase", tournamentHandler.StartKnockoutPhaseHandler)
			r.Post("/{tournamentID}/schedule-matches", tournamentHandler.ScheduleMatchesHandler)
			r.Post("/{tournamentID}/check-all-weather", tournamentHandler.CheckAllWeatherHandler)
		})
	})

	router.Route("/match", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", matchHandler.ListHandler)
		r.Get("/{matchID}", matchHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/{matchID}/record-result", matchHandler.RecordResultHandler)
			r.Post("/{matchID}/cancel", matchHandler.CancelHandler)
			r.Post("/{matchID}/check-weather", matchHandler.CheckWeatherHandler)
			r.Post("/{matchID}/validate-schedule", matchHandler.ValidateScheduleHandler)
		})
	})

	router.Route("/weather", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/test", weatherHandler.TestHandler)
	})
}
