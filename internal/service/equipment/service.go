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

type EquipmentRepository interface {
	Create(ctx context.Context, e *model.Equipment) (uuid.UUID, error)
	ByID(ctx context.Context, id uuid.UUID) (*model.Equipment, error)
	List(ctx context.Context) ([]model.Equipment, error)
	Update(ctx context.Context, e *model.Equipment) error
	MarkScrap(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountActiveRequests(ctx context.Context, id uuid.UUID) (int64, error)
	Stats(ctx context.Context, id uuid.UUID) (*model.EquipmentStats, error)
}

type TeamProvider interface {
	ByID(ctx context.Context, id uuid.UUID) (*model.Team, error)
}

type IdentityProvider interface {
	ByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type service struct {
	repo  EquipmentRepository
	teams TeamProvider
	users IdentityProvider
}

func NewEquipmentService(repo EquipmentRepository, teams TeamProvider, users IdentityProvider) *service {
	return &service{
		repo:  repo,
		teams: teams,
		users: users,
	}
}

func (svc *service) Create(ctx context.Context, params model.CreateEquipmentParams, actor model.Actor) (*model.Equipment, error) {
	const op = "equipment.service.Create"
	log := logger.With(
		logger.String("serial_number", params.SerialNumber),
		logger.String("actor_id", actor.ID.String()),
	)

	if err := authz.Check(authz.ManageEquipment, actor, nil); err != nil {
		log.Error(ctx, "create forbidden", logger.String("role", string(actor.Role)))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if params.Name == "" || params.SerialNumber == "" {
		log.Error(ctx, "wrong params")
		return nil, fmt.Errorf("%s: %w", op,
			errors.Join(model.ErrValidation, errors.New("name and serial number are required")))
	}

	if err := validateWarranty(params.PurchaseDate, params.WarrantyExpiry); err != nil {
		log.Error(ctx, "warranty precedes purchase")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.validateRefs(ctx, params.DefaultTeamID, params.AssignedToID); err != nil {
		log.Error(ctx, "validate references", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := svc.repo.Create(ctx, &model.Equipment{
		Name:           params.Name,
		SerialNumber:   params.SerialNumber,
		Category:       params.Category,
		Department:     params.Department,
		Location:       params.Location,
		PurchaseDate:   params.PurchaseDate,
		WarrantyExpiry: params.WarrantyExpiry,
		AssignedToID:   params.AssignedToID,
		DefaultTeamID:  params.DefaultTeamID,
	})
	if err != nil {
		log.Error(ctx, "repository create equipment", logger.ErrorF(err))
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrConflict, errors.New("serial number is already registered")))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return svc.repo.ByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id uuid.UUID, patch model.UpdateEquipmentPatch, actor model.Actor) (*model.Equipment, error) {
	const op = "equipment.service.Update"
	log := logger.With(
		logger.String("equipment_id", id.String()),
		logger.String("actor_id", actor.ID.String()),
	)

	if err := authz.Check(authz.ManageEquipment, actor, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository equipment by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Name.Set {
		if patch.Name.Value == nil || *patch.Name.Value == "" {
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrValidation, errors.New("name cannot be empty")))
		}
		e.Name = *patch.Name.Value
	}
	if patch.Category.Set && patch.Category.Value != nil {
		e.Category = *patch.Category.Value
	}
	if patch.Department.Set && patch.Department.Value != nil {
		e.Department = *patch.Department.Value
	}
	if patch.Location.Set && patch.Location.Value != nil {
		e.Location = *patch.Location.Value
	}
	if patch.PurchaseDate.Set {
		e.PurchaseDate = patch.PurchaseDate.Value
	}
	if patch.WarrantyExpiry.Set {
		e.WarrantyExpiry = patch.WarrantyExpiry.Value
	}
	if patch.AssignedToID.Set {
		e.AssignedToID = patch.AssignedToID.Value
	}
	if patch.DefaultTeamID.Set {
		e.DefaultTeamID = patch.DefaultTeamID.Value
	}

	if err := validateWarranty(e.PurchaseDate, e.WarrantyExpiry); err != nil {
		log.Error(ctx, "warranty precedes purchase")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.validateRefs(ctx, e.DefaultTeamID, e.AssignedToID); err != nil {
		log.Error(ctx, "validate references", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.repo.Update(ctx, e); err != nil {
		log.Error(ctx, "repository update equipment", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return svc.repo.ByID(ctx, id)
}

func (svc *service) ByID(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Equipment, error) {
	const op = "equipment.service.ByID"

	e, err := svc.repo.ByID(ctx, id)
	if err != nil {
		logger.Error(ctx, "repository equipment by id",
			logger.String("equipment_id", id.String()), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

func (svc *service) List(ctx context.Context, actor model.Actor) ([]model.Equipment, error) {
	const op = "equipment.service.List"

	items, err := svc.repo.List(ctx)
	if err != nil {
		logger.Error(ctx, "repository list equipment", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// MarkScrap retires the equipment. Idempotent.
func (svc *service) MarkScrap(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Equipment, error) {
	const op = "equipment.service.MarkScrap"

	if err := authz.Check(authz.ManageEquipment, actor, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := svc.repo.MarkScrap(ctx, id); err != nil {
		logger.Error(ctx, "repository mark scrap",
			logger.String("equipment_id", id.String()), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return svc.repo.ByID(ctx, id)
}

// Delete removes an equipment record. Blocked while open maintenance
// requests still reference it.
func (svc *service) Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	const op = "equipment.service.Delete"
	log := logger.With(
		logger.String("equipment_id", id.String()),
		logger.String("actor_id", actor.ID.String()),
	)

	if err := authz.Check(authz.DeleteEquipment, actor, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	active, err := svc.repo.CountActiveRequests(ctx, id)
	if err != nil {
		log.Error(ctx, "count active requests", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if active > 0 {
		log.Error(ctx, "equipment has open requests", logger.Int64("open_requests", active))
		return fmt.Errorf("%s: %w", op,
			errors.Join(model.ErrConflict, errors.New("equipment has open maintenance requests")))
	}

	if err := svc.repo.Delete(ctx, id); err != nil {
		log.Error(ctx, "repository delete equipment", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (svc *service) Stats(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.EquipmentStats, error) {
	const op = "equipment.service.Stats"

	if _, err := svc.repo.ByID(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats, err := svc.repo.Stats(ctx, id)
	if err != nil {
		logger.Error(ctx, "repository equipment stats",
			logger.String("equipment_id", id.String()), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

func (svc *service) validateRefs(ctx context.Context, teamID, employeeID *uuid.UUID) error {
	if teamID != nil {
		if _, err := svc.teams.ByID(ctx, *teamID); err != nil {
			return err
		}
	}
	if employeeID != nil {
		if _, err := svc.users.ByID(ctx, *employeeID); err != nil {
			return err
		}
	}
	return nil
}

func validateWarranty(purchase, warranty *time.Time) error {
	if purchase != nil && warranty != nil && warranty.Before(*purchase) {
		return errors.Join(model.ErrValidation,
			errors.New("warranty expiry cannot precede the purchase date"))
	}
	return nil
}
