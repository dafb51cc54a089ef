package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/you-humble/gearguard/internal/transport/http/health"
	"github.com/you-humble/gearguard/internal/transport/http/middleware"
)

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
}

type UserHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	ByID(w http.ResponseWriter, r *http.Request)
	UpdateRole(w http.ResponseWriter, r *http.Request)
	SetActive(w http.ResponseWriter, r *http.Request)
}

type EquipmentHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	ByID(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	MarkScrap(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
}

type TeamHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	ByID(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	AddMember(w http.ResponseWriter, r *http.Request)
	RemoveMember(w http.ResponseWriter, r *http.Request)
}

type RequestHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Transition(w http.ResponseWriter, r *http.Request)
	Assign(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	ByID(w http.ResponseWriter, r *http.Request)
	Calendar(w http.ResponseWriter, r *http.Request)
	Overdue(w http.ResponseWriter, r *http.Request)
}

type ReportHandler interface {
	ByTeam(w http.ResponseWriter, r *http.Request)
	ByCategory(w http.ResponseWriter, r *http.Request)
	ByStatus(w http.ResponseWriter, r *http.Request)
	Duration(w http.ResponseWriter, r *http.Request)
	Dashboard(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	Auth      AuthHandler
	Users     UserHandler
	Equipment EquipmentHandler
	Teams     TeamHandler
	Requests  RequestHandler
	Reports   ReportHandler
}

// RegisterRoutes mounts the public API under /api/v1. Everything except
// registration, login, and the health probe requires a bearer token.
func RegisterRoutes(mux *chi.Mux, verifier middleware.TokenVerifier, h Handlers) {
	authenticate := middleware.Authenticate(verifier)
	authenticateOptional := middleware.AuthenticateOptional(verifier)

	mux.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(r chi.Router) {
			// An admin token lets registration set a role other than USER.
			r.With(authenticateOptional).Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(authenticate).Get("/me", h.Auth.Me)
		})

		api.Route("/users", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.Users.List)
			r.Get("/{id}", h.Users.ByID)
			r.Patch("/{id}/role", h.Users.UpdateRole)
			r.Patch("/{id}/active", h.Users.SetActive)
		})

		api.Route("/equipment", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Equipment.Create)
			r.Get("/", h.Equipment.List)
			r.Get("/{id}", h.Equipment.ByID)
			r.Patch("/{id}", h.Equipment.Update)
			r.Delete("/{id}", h.Equipment.Delete)
			r.Post("/{id}/scrap", h.Equipment.MarkScrap)
			r.Get("/{id}/stats", h.Equipment.Stats)
		})

		api.Route("/teams", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Teams.Create)
			r.Get("/", h.Teams.List)
			r.Get("/{id}", h.Teams.ByID)
			r.Patch("/{id}", h.Teams.Update)
			r.Delete("/{id}", h.Teams.Delete)
			r.Post("/{id}/members", h.Teams.AddMember)
			r.Delete("/{id}/members/{userID}", h.Teams.RemoveMember)
		})

		api.Route("/requests", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Requests.Create)
			r.Get("/", h.Requests.List)
			r.Get("/calendar", h.Requests.Calendar)
			r.Get("/overdue", h.Requests.Overdue)
			r.Get("/{id}", h.Requests.ByID)
			r.Patch("/{id}", h.Requests.Update)
			r.Post("/{id}/status", h.Requests.Transition)
			r.Post("/{id}/assign", h.Requests.Assign)
		})

		api.Route("/reports", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/teams", h.Reports.ByTeam)
			r.Get("/categories", h.Reports.ByCategory)
			r.Get("/status", h.Reports.ByStatus)
			r.Get("/duration", h.Reports.Duration)
			r.Get("/dashboard", h.Reports.Dashboard)
		})
	})

	mux.HandleFunc("/health", health.HealthCheck)
}
