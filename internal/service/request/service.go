package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/you-humble/gearguard/internal/authz"
	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/platform/logger"
)

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) (uuid.UUID, error)
	ByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, filter model.RequestFilter, scope model.VisibilityScope) (*model.RequestPage, error)
	Update(ctx context.Context, req *model.Request) error
	UpdateStatus(ctx context.Context, upd model.RequestStatusUpdate) error
	Calendar(ctx context.Context, from, to time.Time, scope model.VisibilityScope) ([]model.Request, error)
	Overdue(ctx context.Context, now time.Time, scope model.VisibilityScope) ([]model.Request, error)
}

type EquipmentProvider interface {
	ByID(ctx context.Context, id uuid.UUID) (*model.Equipment, error)
	MarkScrap(ctx context.Context, id uuid.UUID) error
}

type TeamProvider interface {
	ByID(ctx context.Context, id uuid.UUID) (*model.Team, error)
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	TeamIDsForMember(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type IdentityProvider interface {
	ByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type EventSender interface {
	SendRequestCreated(ctx context.Context, event model.RequestCreatedEvent) error
	SendStatusChanged(ctx context.Context, event model.RequestStatusChangedEvent) error
	SendRequestAssigned(ctx context.Context, event model.RequestAssignedEvent) error
}

type service struct {
	repo      RequestRepository
	equipment EquipmentProvider
	teams     TeamProvider
	users     IdentityProvider
	events    EventSender
}

func NewRequestService(
	repo RequestRepository,
	equipment EquipmentProvider,
	teams TeamProvider,
	users IdentityProvider,
	events EventSender,
) *service {
	return &service{
		repo:      repo,
		equipment: equipment,
		teams:     teams,
		users:     users,
		events:    events,
	}
}

func (svc *service) Create(ctx context.Context, params model.CreateRequestParams, actor model.Actor) (*model.Request, error) {
	const op = "request.service.Create"
	log := logger.With(
		logger.String("equipment_id", params.EquipmentID.String()),
		logger.String("actor_id", actor.ID.String()),
	)

	if params.Subject == "" || !params.Type.Valid() || params.EquipmentID == uuid.Nil {
		log.Error(ctx, "wrong params")
		return nil, fmt.Errorf("%s: %w", op, model.ErrValidation)
	}

	equipment, err := svc.equipment.ByID(ctx, params.EquipmentID)
	if err != nil {
		log.Error(ctx, "equipment by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if equipment.IsScrap {
		log.Error(ctx, "equipment is scrapped")
		return nil, fmt.Errorf("%s: %w", op,
			errors.Join(model.ErrValidation, errors.New("equipment is scrapped")))
	}

	teamID, err := resolveTeamID(params.TeamID, equipment.DefaultTeamID)
	if err != nil {
		log.Error(ctx, "resolve team", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := svc.teams.ByID(ctx, teamID); err != nil {
		log.Error(ctx, "team by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if params.Type == model.RequestTypePreventive {
		if params.ScheduledDate == nil {
			log.Error(ctx, "preventive request without scheduled date")
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrValidation, errors.New("preventive request requires a scheduled date")))
		}
		if err := authz.Check(authz.CreatePreventiveRequest, actor, nil); err != nil {
			log.Error(ctx, "preventive request forbidden", logger.String("role", string(actor.Role)))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if params.AssignedToID != nil {
		if err := svc.validateAssignee(ctx, teamID, *params.AssignedToID); err != nil {
			log.Error(ctx, "validate assignee", logger.ErrorF(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	id, err := svc.repo.Create(ctx, &model.Request{
		Subject:       params.Subject,
		Description:   params.Description,
		Type:          params.Type,
		Status:        model.StatusNew,
		EquipmentID:   params.EquipmentID,
		TeamID:        teamID,
		AssignedToID:  params.AssignedToID,
		CreatedByID:   actor.ID,
		ScheduledDate: params.ScheduledDate,
	})
	if err != nil {
		log.Error(ctx, "repository create request", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository request by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	svc.notify(ctx, func() error {
		return svc.events.SendRequestCreated(ctx, model.RequestCreatedEvent{
			EventID:     uuid.New(),
			RequestID:   req.ID,
			Subject:     req.Subject,
			Type:        req.Type,
			EquipmentID: req.EquipmentID,
			TeamID:      req.TeamID,
			CreatedByID: req.CreatedByID,
			OccurredAt:  time.Now().UTC(),
		})
	})

	return req, nil
}

func (svc *service) Update(ctx context.Context, id uuid.UUID, patch model.UpdateRequestPatch, actor model.Actor) (*model.Request, error) {
	const op = "request.service.Update"
	log := logger.With(
		logger.String("request_id", id.String()),
		logger.String("actor_id", actor.ID.String()),
	)

	req, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository request by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := authz.Check(authz.UpdateRequest, actor, req); err != nil {
		log.Error(ctx, "update forbidden", logger.String("role", string(actor.Role)))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Subject.Set {
		if patch.Subject.Value == nil || *patch.Subject.Value == "" {
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrValidation, errors.New("subject cannot be empty")))
		}
		req.Subject = *patch.Subject.Value
	}
	if patch.Description.Set {
		req.Description = patch.Description.Value
	}
	if patch.ScheduledDate.Set {
		req.ScheduledDate = patch.ScheduledDate.Value
	}
	if patch.DurationHours.Set {
		if patch.DurationHours.Value != nil && *patch.DurationHours.Value <= 0 {
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrValidation, errors.New("duration must be a positive number of hours")))
		}
		req.DurationHours = patch.DurationHours.Value
	}
	if patch.AssignedToID.Set {
		if patch.AssignedToID.Value != nil {
			if err := svc.validateAssignee(ctx, req.TeamID, *patch.AssignedToID.Value); err != nil {
				log.Error(ctx, "validate assignee", logger.ErrorF(err))
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		req.AssignedToID = patch.AssignedToID.Value
	}

	if err := svc.repo.Update(ctx, req); err != nil {
		log.Error(ctx, "repository update request", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository request by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (svc *service) Transition(ctx context.Context, id uuid.UUID, target model.RequestStatus, actor model.Actor, durationHours *float64) (*model.Request, error) {
	const op = "request.service.Transition"
	log := logger.With(
		logger.String("request_id", id.String()),
		logger.String("target_status", string(target)),
		logger.String("actor_id", actor.ID.String()),
	)

	if !target.Valid() {
		log.Error(ctx, "unknown target status")
		return nil, fmt.Errorf("%s: %w", op,
			errors.Join(model.ErrValidation, fmt.Errorf("unknown status %q", target)))
	}

	req, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository request by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := authz.Check(authz.TransitionRequest, actor, req); err != nil {
		log.Error(ctx, "transition forbidden", logger.String("role", string(actor.Role)))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !req.Status.CanTransitionTo(target) {
		log.Error(ctx, "invalid transition", logger.String("from", string(req.Status)))
		return nil, fmt.Errorf("%s: %w: %s -> %s", op, model.ErrInvalidTransition, req.Status, target)
	}

	if durationHours != nil && *durationHours <= 0 {
		return nil, fmt.Errorf("%s: %w", op,
			errors.Join(model.ErrValidation, errors.New("duration must be a positive number of hours")))
	}

	if target == model.StatusRepaired {
		if durationHours == nil {
			log.Error(ctx, "repaired without duration")
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrValidation, errors.New("marking repaired requires the duration in hours")))
		}
		if req.AssignedToID == nil {
			log.Error(ctx, "repaired without assignee")
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrValidation, errors.New("marking repaired requires an assigned technician")))
		}
	}

	upd := model.RequestStatusUpdate{
		ID:   id,
		From: req.Status,
		To:   target,
	}
	// Duration is a closure fact; it is never recorded before the work ends.
	if target.IsTerminal() {
		now := time.Now().UTC()
		upd.CompletedAt = &now
		upd.DurationHours = durationHours
	}
	// Advancing an unassigned request claims it for the actor. A technician
	// can only claim work routed to one of their teams.
	if target == model.StatusInProgress && req.AssignedToID == nil {
		if actor.Role == model.RoleTechnician {
			member, err := svc.teams.IsMember(ctx, req.TeamID, actor.ID)
			if err != nil {
				log.Error(ctx, "team membership lookup", logger.ErrorF(err))
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if !member {
				log.Error(ctx, "claim outside own teams")
				return nil, fmt.Errorf("%s: %w", op, model.ErrForbidden)
			}
		}
		actorID := actor.ID
		upd.AssignedToID = &actorID
	}

	if err := svc.repo.UpdateStatus(ctx, upd); err != nil {
		log.Error(ctx, "repository update status", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// A scrapped request always retires its equipment.
	if target == model.StatusScrap {
		if err := svc.equipment.MarkScrap(ctx, req.EquipmentID); err != nil {
			log.Error(ctx, "mark equipment scrap", logger.ErrorF(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	updated, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository request by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	svc.notify(ctx, func() error {
		return svc.events.SendStatusChanged(ctx, model.RequestStatusChangedEvent{
			EventID:    uuid.New(),
			RequestID:  id,
			FromStatus: req.Status,
			ToStatus:   target,
			ActorID:    actor.ID,
			OccurredAt: time.Now().UTC(),
		})
	})

	return updated, nil
}

func (svc *service) Assign(ctx context.Context, id, technicianID uuid.UUID, actor model.Actor) (*model.Request, error) {
	const op = "request.service.Assign"
	log := logger.With(
		logger.String("request_id", id.String()),
		logger.String("technician_id", technicianID.String()),
		logger.String("actor_id", actor.ID.String()),
	)

	req, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository request by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := authz.Check(authz.AssignTechnician, actor, req); err != nil {
		log.Error(ctx, "assign forbidden", logger.String("role", string(actor.Role)))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.validateAssignee(ctx, req.TeamID, technicianID); err != nil {
		log.Error(ctx, "validate assignee", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Assignment of a fresh request implies work has started.
	if req.Status == model.StatusNew {
		err = svc.repo.UpdateStatus(ctx, model.RequestStatusUpdate{
			ID:           id,
			From:         model.StatusNew,
			To:           model.StatusInProgress,
			AssignedToID: &technicianID,
		})
	} else {
		req.AssignedToID = &technicianID
		err = svc.repo.Update(ctx, req)
	}
	if err != nil {
		log.Error(ctx, "repository assign", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository request by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	svc.notify(ctx, func() error {
		return svc.events.SendRequestAssigned(ctx, model.RequestAssignedEvent{
			EventID:    uuid.New(),
			RequestID:  id,
			AssigneeID: technicianID,
			ActorID:    actor.ID,
			OccurredAt: time.Now().UTC(),
		})
	})

	return updated, nil
}

func (svc *service) List(ctx context.Context, filter model.RequestFilter, actor model.Actor) (*model.RequestPage, error) {
	const op = "request.service.List"

	scope, err := svc.scopeFor(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page, err := svc.repo.List(ctx, filter, scope)
	if err != nil {
		logger.Error(ctx, "repository list requests", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

func (svc *service) ByID(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Request, error) {
	const op = "request.service.ByID"

	req, err := svc.repo.ByID(ctx, id)
	if err != nil {
		logger.Error(ctx, "repository request by id",
			logger.String("request_id", id.String()), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	visible, err := svc.visible(ctx, req, actor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !visible {
		return nil, fmt.Errorf("%s: %w", op, model.ErrForbidden)
	}

	return req, nil
}

// Calendar returns preventive requests scheduled within [from, to].
func (svc *service) Calendar(ctx context.Context, from, to time.Time, actor model.Actor) ([]model.Request, error) {
	const op = "request.service.Calendar"

	if to.Before(from) {
		return nil, fmt.Errorf("%s: %w", op,
			errors.Join(model.ErrValidation, errors.New("calendar range end precedes start")))
	}

	scope, err := svc.scopeFor(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := svc.repo.Calendar(ctx, from, to, scope)
	if err != nil {
		logger.Error(ctx, "repository calendar requests", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// Overdue returns open requests whose scheduled date has passed.
func (svc *service) Overdue(ctx context.Context, actor model.Actor) ([]model.Request, error) {
	const op = "request.service.Overdue"

	scope, err := svc.scopeFor(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := svc.repo.Overdue(ctx, time.Now().UTC(), scope)
	if err != nil {
		logger.Error(ctx, "repository overdue requests", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// scopeFor derives the row filter the actor's role imposes on reads:
// requesters see what they created, technicians what they are assigned to or
// what is routed to their teams, managers and admins everything.
func (svc *service) scopeFor(ctx context.Context, actor model.Actor) (model.VisibilityScope, error) {
	switch actor.Role {
	case model.RoleUser:
		createdBy := actor.ID
		return model.VisibilityScope{CreatedByID: &createdBy}, nil
	case model.RoleTechnician:
		teamIDs, err := svc.teams.TeamIDsForMember(ctx, actor.ID)
		if err != nil {
			logger.Error(ctx, "teams for member",
				logger.String("actor_id", actor.ID.String()), logger.ErrorF(err))
			return model.VisibilityScope{}, err
		}
		assignee := actor.ID
		return model.VisibilityScope{AssignedToID: &assignee, TeamIDs: teamIDs}, nil
	default:
		return model.VisibilityScope{}, nil
	}
}

func (svc *service) visible(ctx context.Context, req *model.Request, actor model.Actor) (bool, error) {
	scope, err := svc.scopeFor(ctx, actor)
	if err != nil {
		return false, err
	}
	if scope.Unrestricted() {
		return true, nil
	}
	if scope.CreatedByID != nil {
		return req.CreatedByID == *scope.CreatedByID, nil
	}
	if req.AssignedToID != nil && *req.AssignedToID == *scope.AssignedToID {
		return true, nil
	}
	for _, teamID := range scope.TeamIDs {
		if req.TeamID == teamID {
			return true, nil
		}
	}
	return false, nil
}

// validateAssignee checks that the identity exists, belongs to the team, and
// holds a role allowed to carry out maintenance work.
func (svc *service) validateAssignee(ctx context.Context, teamID, assigneeID uuid.UUID) error {
	assignee, err := svc.users.ByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.ErrTechnicianNotFound
		}
		return err
	}

	if assignee.Role == model.RoleUser {
		return errors.Join(model.ErrValidation,
			errors.New("assignee must hold a technician, manager, or admin role"))
	}

	member, err := svc.teams.IsMember(ctx, teamID, assigneeID)
	if err != nil {
		return err
	}
	if !member {
		return errors.Join(model.ErrValidation,
			errors.New("assignee is not a member of the request team"))
	}

	return nil
}

// notify sends a lifecycle event. Delivery failures are logged, not returned:
// the state change has already been persisted.
func (svc *service) notify(ctx context.Context, send func() error) {
	if svc.events == nil {
		return
	}
	if err := send(); err != nil {
		logger.Error(ctx, "send lifecycle event", logger.ErrorF(err))
	}
}

func resolveTeamID(explicit, equipmentDefault *uuid.UUID) (uuid.UUID, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if equipmentDefault != nil {
		return *equipmentDefault, nil
	}
	return uuid.Nil, errors.Join(model.ErrValidation,
		errors.New("no team supplied and the equipment has no default team"))
}
