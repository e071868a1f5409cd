package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"task-tracker/internal/config"
	"task-tracker/internal/handler"
	"task-tracker/internal/middleware"
	"task-tracker/internal/model"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Task   *handler.TaskHandler
	Health *handler.HealthHandler
	Docs   *handler.DocsHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)
	// The gate runs on every request; routes below decide what identity they
	// require.
	r.Use(authMiddleware.Authenticate)

	r.Get("/openapi.yaml", h.Docs.OpenAPI)
	r.Get("/swagger", h.Docs.SwaggerUI)

	r.Route("/api/task-management", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Get("/health", h.Health.Check)

		api.Route("/auth/v1", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/authenticate", h.Auth.Authenticate)
			auth.Post("/refresh-token", h.Auth.Refresh)
			auth.Post("/logout", h.Auth.Logout)
		})

		api.Group(func(tasks chi.Router) {
			tasks.Use(authMiddleware.RequireRole(model.RoleUser))

			tasks.Get("/v1/tasks", h.Task.List)
			tasks.Get("/v1/tasks/search", h.Task.Search)
			tasks.Post("/v1/new-task", h.Task.Create)
			tasks.Put("/v1/tasks/{id}", h.Task.Update)
			tasks.Delete("/v1/tasks/{id}", h.Task.Delete)
		})
	})

	// Default deny: unmatched paths still require some authenticated
	// principal before revealing that nothing lives there.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		middleware.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.NotFound(w, req)
		})).ServeHTTP(w, req)
	})

	return r
}
