// Package mocks provides testify mocks for the equipment service collaborators.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/you-humble/gearguard/internal/model"
)

type MockEquipmentRepository struct {
	mock.Mock
}

func (m *MockEquipmentRepository) Create(ctx context.Context, e *model.Equipment) (uuid.UUID, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockEquipmentRepository) ByID(ctx context.Context, id uuid.UUID) (*model.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Equipment), args.Error(1)
}

func (m *MockEquipmentRepository) List(ctx context.Context) ([]model.Equipment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Equipment), args.Error(1)
}

func (m *MockEquipmentRepository) Update(ctx context.Context, e *model.Equipment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEquipmentRepository) MarkScrap(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEquipmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEquipmentRepository) CountActiveRequests(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEquipmentRepository) Stats(ctx context.Context, id uuid.UUID) (*model.EquipmentStats, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EquipmentStats), args.Error(1)
}

type MockTeamProvider struct {
	mock.Mock
}

func (m *MockTeamProvider) ByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Team), args.Error(1)
}

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) ByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
