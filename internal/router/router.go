package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/audit"
	"github.com/arenignacio/venus-bugtracker/internal/config"
	"github.com/arenignacio/venus-bugtracker/internal/handlers"
	"github.com/arenignacio/venus-bugtracker/internal/middleware"
	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/observability/metrics"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
	"github.com/arenignacio/venus-bugtracker/internal/service"
	"github.com/arenignacio/venus-bugtracker/internal/session"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

// Deps is everything the HTTP surface needs from the outside.
type Deps struct {
	Store    repository.Store
	Sessions session.Store
}

func New(log zerolog.Logger, deps Deps, cfg config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	}

	// Services
	al := audit.New(log)
	tickets := service.NewTicketService(deps.Store.Tickets, deps.Store.Projects, deps.Store.Users, al, log)
	users := service.NewUserService(deps.Store.Users, al, log)
	auth := service.NewAuthService(deps.Store.Users, deps.Sessions, cfg.SessionSecret, cfg.SessionTTL, al, log)

	th := handlers.NewTicketHTTP(tickets, log)
	uh := handlers.NewUserHTTP(users)
	ah := handlers.NewAuthHTTP(auth, users, cfg.Env != "dev")

	r.Get("/healthz", handlers.Health(deps.Store.Ping))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.WithAuth(log, auth))

		r.Route("/ticket", func(r chi.Router) {
			r.Post("/create-ticket", th.Create())
			// "/query*" also answers /queryAll, /query/x and the like
			r.Get("/query", th.Query())
			r.Get("/query*", th.Query())
			r.Get("/summary", th.Summary())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", th.Get())
				r.With(middleware.RequireAuth).Put("/", th.Update())
				r.With(middleware.RequireAuth).Delete("/", th.Delete())
				r.Post("/comments", th.AddComment())
			})
		})

		r.Route("/user", func(r chi.Router) {
			r.Post("/register", uh.Register())
			r.Post("/login", ah.Login())
			r.Get("/logout", ah.Logout())
			r.Get("/amIloggedIn", ah.AmILoggedIn())
			r.Get("/myinfo", ah.MyInfo())
			r.Get("/query", uh.Query())
			r.With(middleware.RequireAuth).Put("/update", uh.Update())
			r.With(middleware.RequireSelfOrRoles(models.RoleAdmin)).Delete("/{id}", uh.Delete())
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.Error(w, http.StatusNotFound, apperr.KindNotFound, "Oops. Page not found.")
	})

	return r
}
