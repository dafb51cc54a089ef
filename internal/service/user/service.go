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

type UserRepository interface {
	ByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	CountActiveAdminsExcept(ctx context.Context, id uuid.UUID) (int64, error)
}

type service struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *service {
	return &service{repo: repo}
}

func (svc *service) List(ctx context.Context, actor model.Actor) ([]model.User, error) {
	const op = "user.service.List"

	if err := authz.Check(authz.ManageUsers, actor, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	users, err := svc.repo.List(ctx)
	if err != nil {
		logger.Error(ctx, "repository list users", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

func (svc *service) ByID(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.User, error) {
	const op = "user.service.ByID"

	if err := authz.Check(authz.ManageUsers, actor, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := svc.repo.ByID(ctx, id)
	if err != nil {
		logger.Error(ctx, "repository user by id",
			logger.String("user_id", id.String()), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateRole changes a user's role. Demoting the last active administrator
// is rejected so the system never loses its admin.
func (svc *service) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role, actor model.Actor) (*model.User, error) {
	const op = "user.service.UpdateRole"
	log := logger.With(
		logger.String("user_id", id.String()),
		logger.String("role", string(role)),
	)

	if err := authz.Check(authz.ManageUsers, actor, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !role.Valid() {
		return nil, fmt.Errorf("%s: %w", op,
			errors.Join(model.ErrValidation, fmt.Errorf("unknown role %q", role)))
	}

	user, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository user by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.Role == model.RoleAdmin && user.IsActive && role != model.RoleAdmin {
		others, err := svc.repo.CountActiveAdminsExcept(ctx, id)
		if err != nil {
			log.Error(ctx, "count active admins", logger.ErrorF(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if others == 0 {
			log.Error(ctx, "demoting the last active admin")
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrValidation, errors.New("cannot demote the last active administrator")))
		}
	}

	if err := svc.repo.UpdateRole(ctx, id, role); err != nil {
		log.Error(ctx, "repository update role", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository user by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// SetActive toggles an account. Deactivating the last active administrator
// is rejected. Accounts are never hard-deleted.
func (svc *service) SetActive(ctx context.Context, id uuid.UUID, active bool, actor model.Actor) (*model.User, error) {
	const op = "user.service.SetActive"
	log := logger.With(
		logger.String("user_id", id.String()),
		logger.Bool("active", active),
	)

	if err := authz.Check(authz.ManageUsers, actor, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository user by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !active && user.Role == model.RoleAdmin && user.IsActive {
		others, err := svc.repo.CountActiveAdminsExcept(ctx, id)
		if err != nil {
			log.Error(ctx, "count active admins", logger.ErrorF(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if others == 0 {
			log.Error(ctx, "deactivating the last active admin")
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrValidation, errors.New("cannot deactivate the last active administrator")))
		}
	}

	if err := svc.repo.SetActive(ctx, id, active); err != nil {
		log.Error(ctx, "repository set active", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository user by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}
