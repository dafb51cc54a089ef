// Package mocks provides testify mocks for the team service collaborators.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/you-humble/gearguard/internal/model"
)

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, t *model.Team) (uuid.UUID, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTeamRepository) ByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Team), args.Error(1)
}

func (m *MockTeamRepository) List(ctx context.Context) ([]model.Team, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Team), args.Error(1)
}

func (m *MockTeamRepository) Update(ctx context.Context, t *model.Team) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTeamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTeamRepository) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}

func (m *MockTeamRepository) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}

func (m *MockTeamRepository) Members(ctx context.Context, teamID uuid.UUID) ([]model.UserSummary, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserSummary), args.Error(1)
}

func (m *MockTeamRepository) CountActiveRequests(ctx context.Context, teamID uuid.UUID) (int64, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(int64), args.Error(1)
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

type MockRequestUnassigner struct {
	mock.Mock
}

func (m *MockRequestUnassigner) UnassignActiveByTeamMember(ctx context.Context, teamID, userID uuid.UUID) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}
