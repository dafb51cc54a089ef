// Package mocks provides testify mocks for the request service collaborators.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/you-humble/gearguard/internal/model"
)

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, req *model.Request) (uuid.UUID, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRequestRepository) ByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request), args.Error(1)
}

func (m *MockRequestRepository) List(ctx context.Context, filter model.RequestFilter, scope model.VisibilityScope) (*model.RequestPage, error) {
	args := m.Called(ctx, filter, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestPage), args.Error(1)
}

func (m *MockRequestRepository) Update(ctx context.Context, req *model.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, upd model.RequestStatusUpdate) error {
	args := m.Called(ctx, upd)
	return args.Error(0)
}

func (m *MockRequestRepository) Calendar(ctx context.Context, from, to time.Time, scope model.VisibilityScope) ([]model.Request, error) {
	args := m.Called(ctx, from, to, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Request), args.Error(1)
}

func (m *MockRequestRepository) Overdue(ctx context.Context, now time.Time, scope model.VisibilityScope) ([]model.Request, error) {
	args := m.Called(ctx, now, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Request), args.Error(1)
}

type MockEquipmentProvider struct {
	mock.Mock
}

func (m *MockEquipmentProvider) ByID(ctx context.Context, id uuid.UUID) (*model.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Equipment), args.Error(1)
}

func (m *MockEquipmentProvider) MarkScrap(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
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

func (m *MockTeamProvider) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamProvider) TeamIDsForMember(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
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

type MockEventSender struct {
	mock.Mock
}

func (m *MockEventSender) SendRequestCreated(ctx context.Context, event model.RequestCreatedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventSender) SendStatusChanged(ctx context.Context, event model.RequestStatusChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventSender) SendRequestAssigned(ctx context.Context, event model.RequestAssignedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
