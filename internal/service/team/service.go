package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/you-humble/gearguard/internal/authz"
	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/platform/logger"
)

type TeamRepository interface {
	Create(ctx context.Context, t *model.Team) (uuid.UUID, error)
	ByID(ctx context.Context, id uuid.UUID) (*model.Team, error)
	List(ctx context.Context) ([]model.Team, error)
	Update(ctx context.Context, t *model.Team) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, teamID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	Members(ctx context.Context, teamID uuid.UUID) ([]model.UserSummary, error)
	CountActiveRequests(ctx context.Context, teamID uuid.UUID) (int64, error)
}

type IdentityProvider interface {
	ByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// RequestUnassigner releases a departing member's open assignments.
type RequestUnassigner interface {
	UnassignActiveByTeamMember(ctx context.Context, teamID, userID uuid.UUID) error
}

type service struct {
	repo     TeamRepository
	users    IdentityProvider
	requests RequestUnassigner
}

func NewTeamService(repo TeamRepository, users IdentityProvider, requests RequestUnassigner) *service {
	return &service{
		repo:     repo,
		users:    users,
		requests: requests,
	}
}

func (svc *service) Create(ctx context.Context, params model.CreateTeamParams, actor model.Actor) (*model.Team, error) {
	const op = "team.service.Create"
	log := logger.With(
		logger.String("team_name", params.Name),
		logger.String("actor_id", actor.ID.String()),
	)

	if err := authz.Check(authz.ManageTeams, actor, nil); err != nil {
		log.Error(ctx, "create forbidden", logger.String("role", string(actor.Role)))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if params.Name == "" {
		return nil, fmt.Errorf("%s: %w", op,
			errors.Join(model.ErrValidation, errors.New("team name is required")))
	}

	for _, memberID := range params.MemberIDs {
		if err := svc.validateMember(ctx, memberID); err != nil {
			log.Error(ctx, "validate member", logger.ErrorF(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	id, err := svc.repo.Create(ctx, &model.Team{
		Name:        params.Name,
		Description: params.Description,
		IsActive:    true,
	})
	if err != nil {
		log.Error(ctx, "repository create team", logger.ErrorF(err))
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrConflict, errors.New("team name is already taken")))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, memberID := range params.MemberIDs {
		if err := svc.repo.AddMember(ctx, id, memberID); err != nil {
			log.Error(ctx, "repository add member", logger.ErrorF(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return svc.ByID(ctx, id, actor)
}

func (svc *service) Update(ctx context.Context, id uuid.UUID, patch model.UpdateTeamPatch, actor model.Actor) (*model.Team, error) {
	const op = "team.service.Update"
	log := logger.With(
		logger.String("team_id", id.String()),
		logger.String("actor_id", actor.ID.String()),
	)

	if err := authz.Check(authz.ManageTeams, actor, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	team, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository team by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Name.Set {
		if patch.Name.Value == nil || *patch.Name.Value == "" {
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrValidation, errors.New("team name cannot be empty")))
		}
		team.Name = *patch.Name.Value
	}
	if patch.Description.Set {
		team.Description = patch.Description.Value
	}
	if patch.IsActive.Set && patch.IsActive.Value != nil {
		team.IsActive = *patch.IsActive.Value
	}

	if err := svc.repo.Update(ctx, team); err != nil {
		log.Error(ctx, "repository update team", logger.ErrorF(err))
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrConflict, errors.New("team name is already taken")))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return svc.ByID(ctx, id, actor)
}

// Delete removes a team. Admin only, and blocked while the team still has
// open maintenance requests.
func (svc *service) Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	const op = "team.service.Delete"
	log := logger.With(
		logger.String("team_id", id.String()),
		logger.String("actor_id", actor.ID.String()),
	)

	if err := authz.Check(authz.DeleteTeam, actor, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	active, err := svc.repo.CountActiveRequests(ctx, id)
	if err != nil {
		log.Error(ctx, "count active requests", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if active > 0 {
		log.Error(ctx, "team has open requests", logger.Int64("open_requests", active))
		return fmt.Errorf("%s: %w", op,
			errors.Join(model.ErrConflict, errors.New("team has open maintenance requests")))
	}

	if err := svc.repo.Delete(ctx, id); err != nil {
		log.Error(ctx, "repository delete team", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (svc *service) ByID(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Team, error) {
	const op = "team.service.ByID"

	team, err := svc.repo.ByID(ctx, id)
	if err != nil {
		logger.Error(ctx, "repository team by id",
			logger.String("team_id", id.String()), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	members, err := svc.repo.Members(ctx, id)
	if err != nil {
		logger.Error(ctx, "repository team members",
			logger.String("team_id", id.String()), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	team.Members = members

	return team, nil
}

func (svc *service) List(ctx context.Context, actor model.Actor) ([]model.Team, error) {
	const op = "team.service.List"

	teams, err := svc.repo.List(ctx)
	if err != nil {
		logger.Error(ctx, "repository list teams", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return teams, nil
}

func (svc *service) AddMember(ctx context.Context, teamID, userID uuid.UUID, actor model.Actor) error {
	const op = "team.service.AddMember"
	log := logger.With(
		logger.String("team_id", teamID.String()),
		logger.String("user_id", userID.String()),
	)

	if err := authz.Check(authz.ManageTeams, actor, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := svc.repo.ByID(ctx, teamID); err != nil {
		log.Error(ctx, "repository team by id", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.validateMember(ctx, userID); err != nil {
		log.Error(ctx, "validate member", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.repo.AddMember(ctx, teamID, userID); err != nil {
		log.Error(ctx, "repository add member", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RemoveMember drops a user from the team and releases their open
// assignments within it. The requests themselves are kept.
func (svc *service) RemoveMember(ctx context.Context, teamID, userID uuid.UUID, actor model.Actor) error {
	const op = "team.service.RemoveMember"
	log := logger.With(
		logger.String("team_id", teamID.String()),
		logger.String("user_id", userID.String()),
	)

	if err := authz.Check(authz.ManageTeams, actor, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := svc.repo.ByID(ctx, teamID); err != nil {
		log.Error(ctx, "repository team by id", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.requests.UnassignActiveByTeamMember(ctx, teamID, userID); err != nil {
		log.Error(ctx, "unassign active requests", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.repo.RemoveMember(ctx, teamID, userID); err != nil {
		log.Error(ctx, "repository remove member", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// validateMember checks the user exists and holds a role allowed on a
// maintenance team.
func (svc *service) validateMember(ctx context.Context, userID uuid.UUID) error {
	user, err := svc.users.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == model.RoleUser {
		return errors.Join(model.ErrValidation,
			errors.New("team members must hold a technician, manager, or admin role"))
	}
	return nil
}
