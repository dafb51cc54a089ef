package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/transport/http/dto"
	"github.com/you-humble/gearguard/internal/transport/http/middleware"
	"github.com/you-humble/gearguard/internal/transport/http/respond"
)

type EquipmentService interface {
	Create(ctx context.Context, params model.CreateEquipmentParams, actor model.Actor) (*model.Equipment, error)
	Update(ctx context.Context, id uuid.UUID, patch model.UpdateEquipmentPatch, actor model.Actor) (*model.Equipment, error)
	ByID(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Equipment, error)
	List(ctx context.Context, actor model.Actor) ([]model.Equipment, error)
	MarkScrap(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Equipment, error)
	Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error
	Stats(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.EquipmentStats, error)
}

type handler struct {
	svc EquipmentService
}

func NewEquipmentHandler(service EquipmentService) *handler {
	return &handler{svc: service}
}

type createRequest struct {
	Name           string     `json:"name"`
	SerialNumber   string     `json:"serial_number"`
	Category       string     `json:"category"`
	Department     string     `json:"department"`
	Location       string     `json:"location"`
	PurchaseDate   *time.Time `json:"purchase_date"`
	WarrantyExpiry *time.Time `json:"warranty_expiry"`
	AssignedToID   *uuid.UUID `json:"assigned_to_id"`
	DefaultTeamID  *uuid.UUID `json:"default_team_id"`
}

type updateRequest struct {
	Name           model.Optional[string]    `json:"name"`
	Category       model.Optional[string]    `json:"category"`
	Department     model.Optional[string]    `json:"department"`
	Location       model.Optional[string]    `json:"location"`
	PurchaseDate   model.Optional[time.Time] `json:"purchase_date"`
	WarrantyExpiry model.Optional[time.Time] `json:"warranty_expiry"`
	AssignedToID   model.Optional[uuid.UUID] `json:"assigned_to_id"`
	DefaultTeamID  model.Optional[uuid.UUID] `json:"default_team_id"`
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

	item, err := h.svc.Create(r.Context(), model.CreateEquipmentParams{
		Name:           req.Name,
		SerialNumber:   req.SerialNumber,
		Category:       req.Category,
		Department:     req.Department,
		Location:       req.Location,
		PurchaseDate:   req.PurchaseDate,
		WarrantyExpiry: req.WarrantyExpiry,
		AssignedToID:   req.AssignedToID,
		DefaultTeamID:  req.DefaultTeamID,
	}, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, dto.EquipmentFromModel(*item))
}

func (h *handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	var req updateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Err(w, r, err)
		return
	}

	item, err := h.svc.Update(r.Context(), id, model.UpdateEquipmentPatch{
		Name:           req.Name,
		Category:       req.Category,
		Department:     req.Department,
		Location:       req.Location,
		PurchaseDate:   req.PurchaseDate,
		WarrantyExpiry: req.WarrantyExpiry,
		AssignedToID:   req.AssignedToID,
		DefaultTeamID:  req.DefaultTeamID,
	}, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.EquipmentFromModel(*item))
}

func (h *handler) ByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	item, err := h.svc.ByID(r.Context(), id, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.EquipmentFromModel(*item))
}

func (h *handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	items, err := h.svc.List(r.Context(), actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.EquipmentListFromModel(items))
}

func (h *handler) MarkScrap(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	item, err := h.svc.MarkScrap(r.Context(), id, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.EquipmentFromModel(*item))
}

func (h *handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseID(r)
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

func (h *handler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	stats, err := h.svc.Stats(r.Context(), id, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.EquipmentStatsFromModel(*stats))
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.Join(model.ErrValidation, errors.New("invalid equipment id"))
	}
	return id, nil
}
