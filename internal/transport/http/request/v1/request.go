package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/transport/http/dto"
	"github.com/you-humble/gearguard/internal/transport/http/middleware"
	"github.com/you-humble/gearguard/internal/transport/http/respond"
)

type RequestService interface {
	Create(ctx context.Context, params model.CreateRequestParams, actor model.Actor) (*model.Request, error)
	Update(ctx context.Context, id uuid.UUID, patch model.UpdateRequestPatch, actor model.Actor) (*model.Request, error)
	Transition(ctx context.Context, id uuid.UUID, target model.RequestStatus, actor model.Actor, durationHours *float64) (*model.Request, error)
	Assign(ctx context.Context, id, technicianID uuid.UUID, actor model.Actor) (*model.Request, error)
	List(ctx context.Context, filter model.RequestFilter, actor model.Actor) (*model.RequestPage, error)
	ByID(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Request, error)
	Calendar(ctx context.Context, from, to time.Time, actor model.Actor) ([]model.Request, error)
	Overdue(ctx context.Context, actor model.Actor) ([]model.Request, error)
}

type handler struct {
	svc RequestService
}

func NewRequestHandler(service RequestService) *handler {
	return &handler{svc: service}
}

type createRequest struct {
	Subject       string            `json:"subject"`
	Description   *string           `json:"description"`
	Type          model.RequestType `json:"type"`
	EquipmentID   uuid.UUID         `json:"equipment_id"`
	TeamID        *uuid.UUID        `json:"team_id"`
	AssignedToID  *uuid.UUID        `json:"assigned_to_id"`
	ScheduledDate *time.Time        `json:"scheduled_date"`
}

type updateRequest struct {
	Subject       model.Optional[string]    `json:"subject"`
	Description   model.Optional[string]    `json:"description"`
	ScheduledDate model.Optional[time.Time] `json:"scheduled_date"`
	AssignedToID  model.Optional[uuid.UUID] `json:"assigned_to_id"`
	DurationHours model.Optional[float64]   `json:"duration_hours"`
}

type transitionRequest struct {
	Status        model.RequestStatus `json:"status"`
	DurationHours *float64            `json:"duration_hours"`
}

type assignRequest struct {
	TechnicianID uuid.UUID `json:"technician_id"`
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

	created, err := h.svc.Create(r.Context(), model.CreateRequestParams{
		Subject:       req.Subject,
		Description:   req.Description,
		Type:          req.Type,
		EquipmentID:   req.EquipmentID,
		TeamID:        req.TeamID,
		AssignedToID:  req.AssignedToID,
		ScheduledDate: req.ScheduledDate,
	}, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, dto.RequestFromModel(*created))
}

func (h *handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseRequestID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	var req updateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Err(w, r, err)
		return
	}

	updated, err := h.svc.Update(r.Context(), id, model.UpdateRequestPatch{
		Subject:       req.Subject,
		Description:   req.Description,
		ScheduledDate: req.ScheduledDate,
		AssignedToID:  req.AssignedToID,
		DurationHours: req.DurationHours,
	}, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.RequestFromModel(*updated))
}

func (h *handler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseRequestID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	var req transitionRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Err(w, r, err)
		return
	}

	updated, err := h.svc.Transition(r.Context(), id, req.Status, actor, req.DurationHours)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.RequestFromModel(*updated))
}

func (h *handler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseRequestID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	var req assignRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Err(w, r, err)
		return
	}

	updated, err := h.svc.Assign(r.Context(), id, req.TechnicianID, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.RequestFromModel(*updated))
}

func (h *handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	page, err := h.svc.List(r.Context(), filter, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.RequestPageFromModel(*page))
}

func (h *handler) ByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	id, err := parseRequestID(r)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	req, err := h.svc.ByID(r.Context(), id, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.RequestFromModel(*req))
}

func (h *handler) Calendar(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		respond.Err(w, r, errors.Join(model.ErrValidation, errors.New("invalid from date")))
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		respond.Err(w, r, errors.Join(model.ErrValidation, errors.New("invalid to date")))
		return
	}

	items, err := h.svc.Calendar(r.Context(), from, to, actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.RequestsFromModel(items))
}

func (h *handler) Overdue(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	items, err := h.svc.Overdue(r.Context(), actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.RequestsFromModel(items))
}

func parseRequestID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.Join(model.ErrValidation, errors.New("invalid request id"))
	}
	return id, nil
}

func parseFilter(r *http.Request) (model.RequestFilter, error) {
	q := r.URL.Query()
	var filter model.RequestFilter

	if v := q.Get("status"); v != "" {
		status := model.RequestStatus(v)
		if !status.Valid() {
			return filter, errors.Join(model.ErrValidation, errors.New("unknown status filter"))
		}
		filter.Status = &status
	}
	if v := q.Get("type"); v != "" {
		typ := model.RequestType(v)
		if !typ.Valid() {
			return filter, errors.Join(model.ErrValidation, errors.New("unknown type filter"))
		}
		filter.Type = &typ
	}

	for param, dst := range map[string]**uuid.UUID{
		"equipment_id":   &filter.EquipmentID,
		"team_id":        &filter.TeamID,
		"assigned_to_id": &filter.AssignedToID,
		"created_by_id":  &filter.CreatedByID,
	} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, errors.Join(model.ErrValidation, errors.New("invalid "+param+" filter"))
		}
		*dst = &id
	}

	filter.Search = q.Get("search")

	if v := q.Get("page"); v != "" {
		page, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, errors.Join(model.ErrValidation, errors.New("invalid page"))
		}
		filter.Page = page
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, errors.Join(model.ErrValidation, errors.New("invalid limit"))
		}
		filter.Limit = limit
	}

	return filter, nil
}

// parseDate accepts either a full RFC 3339 timestamp or a plain date.
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
