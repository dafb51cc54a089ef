package http

import (
	"context"
	"net/http"

	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/transport/http/dto"
	"github.com/you-humble/gearguard/internal/transport/http/middleware"
	"github.com/you-humble/gearguard/internal/transport/http/respond"
)

type AuthService interface {
	Register(ctx context.Context, params model.RegisterParams, actor *model.Actor) (*model.User, error)
	Login(ctx context.Context, params model.LoginParams) (*model.LoginResult, error)
	Me(ctx context.Context, actor model.Actor) (*model.User, error)
}

type handler struct {
	svc AuthService
}

func NewAuthHandler(service AuthService) *handler {
	return &handler{svc: service}
}

type registerRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     *model.Role `json:"role"`
}

func (h *handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Err(w, r, err)
		return
	}

	var actor *model.Actor
	if a, ok := middleware.ActorFromContext(r.Context()); ok {
		actor = &a
	}

	user, err := h.svc.Register(r.Context(), model.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	}, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, dto.UserFromModel(*user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Err(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), model.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.LoginResultFromModel(*res))
}

func (h *handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	user, err := h.svc.Me(r.Context(), actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.UserFromModel(*user))
}
