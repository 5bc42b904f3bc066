package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/routines-api/internal/api/handlers"
	"github.com/isdelr/routines-api/internal/api/respond"
	"github.com/isdelr/routines-api/internal/apperrors"
	"github.com/isdelr/routines-api/internal/auth"
	"github.com/isdelr/routines-api/internal/config"
	"github.com/isdelr/routines-api/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	db handlers.Pinger,
	issuer *auth.TokenIssuer,
	userService services.UserServiceProvider,
	routineService services.RoutineServiceProvider,
	eventService services.EventServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Every route may see an identity; only some require one.
	r.Use(auth.Authenticate(issuer, userService))

	userHandler := handlers.NewUserHandler(userService, routineService, eventService, issuer, cfg.IsProduction())
	eventHandler := handlers.NewEventHandler(eventService)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, apperrors.NotFound(r.URL.Path), 0)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Handle(handlers.Health(db)))

		r.Route("/users", func(r chi.Router) {
			r.Post("/login", handlers.Handle(userHandler.Login))
			r.Post("/register", handlers.Handle(userHandler.Register))

			r.With(auth.RequireUser).Get("/me", handlers.Handle(userHandler.GetMe))
			r.With(auth.RequireUser).Get("/me/events", handlers.Handle(eventHandler.GetMine))

			r.Get("/{username}/routines", handlers.Handle(userHandler.GetRoutines))
		})
	})

	return r
}
