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

type TeamService interface {
	Create(ctx context.Context, params model.CreateTeamParams, actor model.Actor) (*model.Team, error)
	Update(ctx context.Context, id uuid.UUID, patch model.UpdateTeamPatch, actor model.Actor) (*model.Team, error)
	Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error
	ByID(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Team, error)
	List(ctx context.Context, actor model.Actor) ([]model.Team, error)
	AddMember(ctx context.Context, teamID, userID uuid.UUID, actor model.Actor) error
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID, actor model.Actor) error
}

type handler struct {
	svc TeamService
}

func NewTeamHandler(service TeamService) *handler {
	return &handler{svc: service}
}

type createRequest struct {
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	MemberIDs   []uuid.UUID `json:"member_ids"`
}

type updateRequest struct {
	Name        model.Optional[string] `json:"name"`
	Description model.Optional[string] `json:"description"`
	IsActive    model.Optional[bool]   `json:"is_active"`
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

func (h *handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Err(w, r, err)
		return
	}

	team, err := h.svc.Create(r.Context(), model.CreateTeamParams{
		Name:        req.Name,
		Description: req.Description,
		MemberIDs:   req.MemberIDs,
	}, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, dto.TeamFromModel(*team))
}

func (h *handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseTeamID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	var req updateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Err(w, r, err)
		return
	}

	team, err := h.svc.Update(r.Context(), id, model.UpdateTeamPatch{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.TeamFromModel(*team))
}

func (h *handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseTeamID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id, actor); err != nil {
		respond.Err(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) ByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseTeamID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	team, err := h.svc.ByID(r.Context(), id, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.TeamFromModel(*team))
}

func (h *handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	teams, err := h.svc.List(r.Context(), actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.TeamsFromModel(teams))
}

func (h *handler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseTeamID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	var req addMemberRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Err(w, r, err)
		return
	}

	if err := h.svc.AddMember(r.Context(), id, req.UserID, actor); err != nil {
		respond.Err(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseTeamID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		respond.Err(w, r, errors.Join(model.ErrValidation, errors.New("invalid user id")))
		return
	}

	if err := h.svc.RemoveMember(r.Context(), id, userID, actor); err != nil {
		respond.Err(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseTeamID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.Join(model.ErrValidation, errors.New("invalid team id"))
	}
	return id, nil
}
