package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/competition-ledger/docs" // регистрирует swagger-документ
	"github.com/Dosada05/competition-ledger/handlers"
	"github.com/Dosada05/competition-ledger/middleware"
)

// Handlers собирает все HTTP обработчики приложения.
type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Team        *handlers.TeamHandler
	Competition *handlers.CompetitionHandler
	Ledger      *handlers.LedgerHandler
	Payment     *handlers.PaymentHandler
	Card        *handlers.CardHandler
	Contact     *handlers.ContactHandler
	Dashboard   *handlers.DashboardHandler
	Admin       *handlers.AdminHandler
	WebSocket   *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimit       int
	RateLimitWindow time.Duration
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// WebSocket вне лимитера: соединение долгоживущее
	router.Get("/ws/competitions/{competitionID}", h.WebSocket.ServeWs)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimit, opts.RateLimitWindow))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(authenticate).Get("/me", h.Auth.Me)
		})

		r.Post("/contact", h.Contact.Submit)
		r.Get("/leaderboard", h.Dashboard.Leaderboard)

		r.Route("/competitions", func(r chi.Router) {
			r.Get("/", h.Competition.ListCompetitions)
			r.Get("/{competitionID}", h.Competition.GetCompetition)
			r.Get("/{competitionID}/ledger", h.Ledger.GetLedger)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)

				r.Post("/", h.Competition.CreateCompetition)
				r.Put("/{competitionID}", h.Competition.UpdateCompetition)
				r.With(middleware.RequireAdmin).Delete("/{competitionID}", h.Competition.DeleteCompetition)

				r.Post("/{competitionID}/teams", h.Ledger.RegisterTeam)
				r.Post("/{competitionID}/participants", h.Ledger.RegisterParticipant)
				r.Post("/{competitionID}/payments", h.Payment.InitiatePayment)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Delete("/{competitionID}/entrants/{entrantID}", h.Ledger.Deregister)
					r.Post("/{competitionID}/refunds", h.Ledger.Refund)
					r.Post("/{competitionID}/prize-distribution", h.Ledger.DistributePrizePool)
				})
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/{paymentID}", h.Payment.GetPayment)
			r.Delete("/{paymentID}", h.Payment.CancelPayment)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.Team.ListTeams)
			r.Get("/{teamID}", h.Team.GetTeamByID)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/", h.Team.CreateTeam)
				r.Get("/my", h.Team.ListMyTeams)
				r.Post("/{teamID}/join", h.Team.JoinTeam)
				r.Post("/{teamID}/leave", h.Team.LeaveTeam)
				r.Delete("/{teamID}", h.Team.DeleteTeam)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/{userID}", h.User.GetUserByID)
			r.Get("/{userID}/teams", h.User.GetUserTeams)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.Card.ListCards)
			r.Post("/", h.Card.SaveCard)
			r.Put("/{cardID}/default", h.Card.SetDefault)
			r.Delete("/{cardID}", h.Card.DeleteCard)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireAdmin)
			r.Get("/stats", h.Dashboard.Stats)
			r.Get("/users", h.Admin.ListUsers)
			r.Delete("/users/{userID}", h.Admin.DeleteUser)
			r.Get("/contact", h.Contact.List)
			r.Delete("/contact/{messageID}", h.Contact.Delete)
			r.Get("/snapshot", h.Admin.DownloadSnapshot)
			r.Post("/snapshots", h.Admin.ExportSnapshot)
			r.Delete("/snapshots", h.Admin.DeleteSnapshot)
			r.Post("/snapshots/restore", h.Admin.RestoreSnapshot)
		})
	})
}
