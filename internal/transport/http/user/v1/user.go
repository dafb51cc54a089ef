package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/transport/http/dto"
	"github.com/you-humble/gearguard/internal/transport/http/middleware"
	"github.com/you-humble/gearguard/internal/transport/http/respond"
)

type UserService interface {
	List(ctx context.Context, actor model.Actor) ([]model.User, error)
	ByID(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role, actor model.Actor) (*model.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, actor model.Actor) (*model.User, error)
}

type handler struct {
	svc UserService
}

func NewUserHandler(service UserService) *handler {
	return &handler{svc: service}
}

func (h *handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	users, err := h.svc.List(r.Context(), actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.UsersFromModel(users))
}

func (h *handler) ByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, r, errors.Join(model.ErrValidation, errors.New("invalid user id")))
		return
	}

	user, err := h.svc.ByID(r.Context(), id, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.UserFromModel(*user))
}

type updateRoleRequest struct {
	Role model.Role `json:"role"`
}

func (h *handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, r, errors.Join(model.ErrValidation, errors.New("invalid user id")))
		return
	}

	var req updateRoleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Err(w, r, err)
		return
	}

	user, err := h.svc.UpdateRole(r.Context(), id, req.Role, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.UserFromModel(*user))
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *handler) SetActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, r, errors.Join(model.ErrValidation, errors.New("invalid user id")))
		return
	}

	var req setActiveRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Err(w, r, err)
		return
	}

	user, err := h.svc.SetActive(r.Context(), id, req.IsActive, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.UserFromModel(*user))
}
