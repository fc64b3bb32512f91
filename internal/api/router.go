package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/iac-studio/rolecfg/internal/api/handlers"
	mw "github.com/iac-studio/rolecfg/internal/api/middleware"
)

type Dependencies struct {
	Tokens mw.TokenParser
	DB     handlers.Pinger

	DeployGroupRolesHandler *handlers.DeployGroupRolesHandler
	SeedsHandler            *handlers.SeedsHandler
	ProjectsHandler         *handlers.ProjectsHandler

	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	if dep.RateLimitRPS > 0 {
		r.Use(mw.RateLimit(dep.RateLimitRPS, dep.RateLimitBurst))
	}
	r.Use(chimid.Compress(5))

	hh := handlers.NewHealthHandler(dep.DB)
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(mw.Auth(dep.Tokens))

		api.Route("/projects", func(pr chi.Router) {
			pr.Get("/", dep.ProjectsHandler.List)
			pr.Get("/{project_id}/deploy_group_roles", dep.DeployGroupRolesHandler.ListByProject)
			pr.Put("/{project_id}/deploy_group_roles", dep.DeployGroupRolesHandler.BulkUpdate)
		})

		api.Route("/deploy_group_roles", func(dr chi.Router) {
			dr.Get("/", dep.DeployGroupRolesHandler.List)
			dr.Post("/", dep.DeployGroupRolesHandler.Create)
			dr.Get("/{id}", dep.DeployGroupRolesHandler.Show)
			dr.Put("/{id}", dep.DeployGroupRolesHandler.Update)
			dr.Delete("/{id}", dep.DeployGroupRolesHandler.Delete)
		})

		api.Post("/stages/{stage_id}/seed", dep.SeedsHandler.Seed)
	})

	return r
}
