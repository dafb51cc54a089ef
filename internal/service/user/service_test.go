package service

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/service/user/mocks"
)

func activeAdmin(id uuid.UUID) *model.User {
	return &model.User{
		ID:       id,
		Email:    gofakeit.Email(),
		Name:     gofakeit.Name(),
		Role:     model.RoleAdmin,
		IsActive: true,
	}
}

func TestServiceUpdateRole(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	manager := model.Actor{ID: uuid.New(), Role: model.RoleManager}

	type testCase struct {
		name   string
		role   model.Role
		actor  model.Actor
		setup  func(repo *mocks.MockUserRepository)
		assert func(t *testing.T, res *model.User, err error, repo *mocks.MockUserRepository)
	}

	tests := []testCase{
		{
			name:  "manager cannot manage roles",
			role:  model.RoleTechnician,
			actor: manager,
			setup: func(repo *mocks.MockUserRepository) {},
			assert: func(t *testing.T, res *model.User, err error, repo *mocks.MockUserRepository) {
				assert.ErrorIs(t, err, model.ErrForbidden)
				assert.Nil(t, res)
			},
		},
		{
			name:  "unknown role is rejected",
			role:  model.Role("SUPERVISOR"),
			actor: admin,
			setup: func(repo *mocks.MockUserRepository) {},
			assert: func(t *testing.T, res *model.User, err error, repo *mocks.MockUserRepository) {
				assert.ErrorIs(t, err, model.ErrValidation)
				assert.Nil(t, res)
			},
		},
		{
			name:  "demoting the last active admin is rejected",
			role:  model.RoleManager,
			actor: admin,
			setup: func(repo *mocks.MockUserRepository) {
				repo.On("ByID", mock.Anything, userID).
					Return(activeAdmin(userID), nil).Once()
				repo.On("CountActiveAdminsExcept", mock.Anything, userID).
					Return(int64(0), nil).Once()
			},
			assert: func(t *testing.T, res *model.User, err error, repo *mocks.MockUserRepository) {
				assert.ErrorIs(t, err, model.ErrValidation)
				assert.Nil(t, res)
				repo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:  "demoting an admin with peers succeeds",
			role:  model.RoleManager,
			actor: admin,
			setup: func(repo *mocks.MockUserRepository) {
				repo.On("ByID", mock.Anything, userID).
					Return(activeAdmin(userID), nil).Once()
				repo.On("CountActiveAdminsExcept", mock.Anything, userID).
					Return(int64(1), nil).Once()
				repo.On("UpdateRole", mock.Anything, userID, model.RoleManager).
					Return(nil).Once()
				demoted := activeAdmin(userID)
				demoted.Role = model.RoleManager
				repo.On("ByID", mock.Anything, userID).
					Return(demoted, nil).Once()
			},
			assert: func(t *testing.T, res *model.User, err error, repo *mocks.MockUserRepository) {
				require.NoError(t, err)
				require.NotNil(t, res)
				assert.Equal(t, model.RoleManager, res.Role)
			},
		},
		{
			name:  "promoting a technician skips the admin count",
			role:  model.RoleManager,
			actor: admin,
			setup: func(repo *mocks.MockUserRepository) {
				tech := activeAdmin(userID)
				tech.Role = model.RoleTechnician
				repo.On("ByID", mock.Anything, userID).
					Return(tech, nil).Once()
				repo.On("UpdateRole", mock.Anything, userID, model.RoleManager).
					Return(nil).Once()
				promoted := activeAdmin(userID)
				promoted.Role = model.RoleManager
				repo.On("ByID", mock.Anything, userID).
					Return(promoted, nil).Once()
			},
			assert: func(t *testing.T, res *model.User, err error, repo *mocks.MockUserRepository) {
				require.NoError(t, err)
				repo.AssertNotCalled(t, "CountActiveAdminsExcept", mock.Anything, mock.Anything)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &mocks.MockUserRepository{}
			tc.setup(repo)

			res, err := NewUserService(repo).UpdateRole(context.Background(), userID, tc.role, tc.actor)

			tc.assert(t, res, err, repo)
			repo.AssertExpectations(t)
		})
	}
}

func TestServiceSetActive(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	t.Run("deactivating the last active admin is rejected", func(t *testing.T) {
		t.Parallel()

		repo := &mocks.MockUserRepository{}
		repo.On("ByID", mock.Anything, userID).
			Return(activeAdmin(userID), nil).Once()
		repo.On("CountActiveAdminsExcept", mock.Anything, userID).
			Return(int64(0), nil).Once()

		res, err := NewUserService(repo).SetActive(context.Background(), userID, false, admin)

		assert.ErrorIs(t, err, model.ErrValidation)
		assert.Nil(t, res)
		repo.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("reactivating is never gated on the admin count", func(t *testing.T) {
		t.Parallel()

		repo := &mocks.MockUserRepository{}
		dormant := activeAdmin(userID)
		dormant.IsActive = false
		repo.On("ByID", mock.Anything, userID).
			Return(dormant, nil).Once()
		repo.On("SetActive", mock.Anything, userID, true).
			Return(nil).Once()
		repo.On("ByID", mock.Anything, userID).
			Return(activeAdmin(userID), nil).Once()

		res, err := NewUserService(repo).SetActive(context.Background(), userID, true, admin)

		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.IsActive)
		repo.AssertNotCalled(t, "CountActiveAdminsExcept", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("deactivating a technician", func(t *testing.T) {
		t.Parallel()

		repo := &mocks.MockUserRepository{}
		tech := activeAdmin(userID)
		tech.Role = model.RoleTechnician
		repo.On("ByID", mock.Anything, userID).
			Return(tech, nil).Once()
		repo.On("SetActive", mock.Anything, userID, false).
			Return(nil).Once()
		off := activeAdmin(userID)
		off.Role = model.RoleTechnician
		off.IsActive = false
		repo.On("ByID", mock.Anything, userID).
			Return(off, nil).Once()

		res, err := NewUserService(repo).SetActive(context.Background(), userID, false, admin)

		require.NoError(t, err)
		assert.False(t, res.IsActive)
		repo.AssertExpectations(t)
	})
}
