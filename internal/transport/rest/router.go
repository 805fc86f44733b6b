package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/construction-dashboard/api"
	"github.com/frahmantamala/construction-dashboard/internal/auth"
	"github.com/frahmantamala/construction-dashboard/internal/dashboard"
	"github.com/frahmantamala/construction-dashboard/internal/transport/middleware"
	"github.com/frahmantamala/construction-dashboard/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, healthHandler *HealthHandler, dashboardHandler *dashboard.Handler, rbac *auth.RBACAuthorization, logger *slog.Logger) {
	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware)

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get(swagger.DefaultSpecURL, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec)
	})
	router.Handle("/swagger/*", swagger.Handler(swagger.DefaultSpecURL))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)
	})

	if dashboardHandler == nil {
		return
	}

	// Public session routes
	router.Get(auth.LoginPath, dashboardHandler.LoginPage)
	router.Post(auth.LoginPath, dashboardHandler.Login)
	router.Post("/register", dashboardHandler.Register)
	router.Post("/logout", dashboardHandler.Logout)

	// Any signed-in user
	router.Group(func(pr chi.Router) {
		pr.Use(rbac.RequireRoles())

		pr.Get("/", dashboardHandler.Index)
		pr.Get(auth.LandingPath, dashboardHandler.Dashboard)
		pr.Get("/profile", dashboardHandler.Profile)
	})

	router.Group(func(cr chi.Router) {
		cr.Use(rbac.RequireRoles(auth.RouteRoles("company")...))
		cr.Get("/company", dashboardHandler.OwnCompany)
	})

	router.Route("/companies", func(cr chi.Router) {
		cr.Use(rbac.RequireRoles(auth.RouteRoles("companies")...))

		cr.Get("/", dashboardHandler.ListCompanies)
		cr.Get("/{id}", dashboardHandler.GetCompany)
		cr.With(rbac.RequireAction(auth.ActionCreateCompany)).Post("/", dashboardHandler.CreateCompany)
		cr.With(rbac.RequireAction(auth.ActionDeleteCompany)).Delete("/{id}", dashboardHandler.DeleteCompany)

		cr.Group(func(mr chi.Router) {
			mr.Use(rbac.RequireAction(auth.ActionManageMembers))
			mr.Post("/{id}/users", dashboardHandler.AddCompanyUser)
			mr.Delete("/{id}/users/{userID}", dashboardHandler.RemoveCompanyUser)
		})
	})

	router.Route("/projects", func(pr chi.Router) {
		pr.Use(rbac.RequireRoles(auth.RouteRoles("projects")...))

		pr.Get("/", dashboardHandler.ListProjects)
		pr.Get("/{id}", dashboardHandler.GetProject)
		pr.With(rbac.RequireAction(auth.ActionCreateProject)).Post("/", dashboardHandler.CreateProject)
		pr.With(rbac.RequireAction(auth.ActionDeleteProject)).Delete("/{id}", dashboardHandler.DeleteProject)

		pr.Group(func(er chi.Router) {
			er.Use(rbac.RequireAction(auth.ActionManageEngineers))
			er.Post("/{id}/engineers", dashboardHandler.AddProjectEngineers)
			er.Delete("/{id}/engineers", dashboardHandler.RemoveProjectEngineers)
		})

		pr.Group(func(mr chi.Router) {
			mr.Use(rbac.RequireAction(auth.ActionAssignManager))
			mr.Patch("/{id}/manager", dashboardHandler.AssignProjectManager)
			mr.Delete("/{id}/manager", dashboardHandler.RemoveProjectManager)
		})
	})

	router.Route("/defects", func(dr chi.Router) {
		dr.Use(rbac.RequireRoles(auth.RouteRoles("defects")...))

		dr.Get("/", dashboardHandler.ListDefects)
		dr.Get("/{id}", dashboardHandler.GetDefect)
		dr.With(rbac.RequireAction(auth.ActionCreateDefect)).Post("/", dashboardHandler.CreateDefect)
		dr.With(rbac.RequireAction(auth.ActionDeleteDefect)).Delete("/{id}", dashboardHandler.DeleteDefect)

		dr.Group(func(er chi.Router) {
			er.Use(rbac.RequireAction(auth.ActionAssignDefectOwner))
			er.Patch("/{id}/engineer", dashboardHandler.AssignDefectEngineer)
			er.Delete("/{id}/engineer", dashboardHandler.RemoveDefectEngineer)
		})
	})
}
