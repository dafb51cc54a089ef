package service

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/service/request/mocks"
)

type deps struct {
	repo      *mocks.MockRequestRepository
	equipment *mocks.MockEquipmentProvider
	teams     *mocks.MockTeamProvider
	users     *mocks.MockIdentityProvider
	events    *mocks.MockEventSender
}

func newDeps() deps {
	return deps{
		repo:      &mocks.MockRequestRepository{},
		equipment: &mocks.MockEquipmentProvider{},
		teams:     &mocks.MockTeamProvider{},
		users:     &mocks.MockIdentityProvider{},
		events:    &mocks.MockEventSender{},
	}
}

func newSvc(d deps) *service {
	return NewRequestService(d.repo, d.equipment, d.teams, d.users, d.events)
}

func (d deps) assertExpectations(t *testing.T) {
	t.Helper()
	d.repo.AssertExpectations(t)
	d.equipment.AssertExpectations(t)
	d.teams.AssertExpectations(t)
	d.users.AssertExpectations(t)
	d.events.AssertExpectations(t)
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	equipmentID := uuid.New()
	defaultTeamID := uuid.New()
	explicitTeamID := uuid.New()
	technicianID := uuid.New()
	requestID := uuid.New()

	manager := model.Actor{ID: uuid.New(), Role: model.RoleManager}
	requester := model.Actor{ID: uuid.New(), Role: model.RoleUser}

	workingEquipment := func() *model.Equipment {
		return &model.Equipment{
			ID:            equipmentID,
			Name:          gofakeit.ProductName(),
			DefaultTeamID: lo.ToPtr(defaultTeamID),
		}
	}
	technician := func() *model.User {
		return &model.User{
			ID:       technicianID,
			Name:     gofakeit.Name(),
			Role:     model.RoleTechnician,
			IsActive: true,
		}
	}
	storedRequest := func(teamID uuid.UUID) *model.Request {
		return &model.Request{
			ID:          requestID,
			Subject:     "pump is leaking",
			Type:        model.RequestTypeCorrective,
			Status:      model.StatusNew,
			EquipmentID: equipmentID,
			TeamID:      teamID,
			CreatedByID: requester.ID,
		}
	}

	type testCase struct {
		name   string
		params model.CreateRequestParams
		actor  model.Actor
		setup  func(d deps)
		assert func(t *testing.T, res *model.Request, err error, d deps)
	}

	tests := []testCase{
		{
			name: "validation error: empty subject",
			params: model.CreateRequestParams{
				Type:        model.RequestTypeCorrective,
				EquipmentID: equipmentID,
			},
			actor: requester,
			setup: func(d deps) {
				// No calls expected.
			},
			assert: func(t *testing.T, res *model.Request, err error, d deps) {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrValidation)
				assert.Nil(t, res)
			},
		},
		{
			name: "equipment not found",
			params: model.CreateRequestParams{
				Subject:     "pump is leaking",
				Type:        model.RequestTypeCorrective,
				EquipmentID: equipmentID,
			},
			actor: requester,
			setup: func(d deps) {
				d.equipment.On("ByID", mock.Anything, equipmentID).
					Return(nil, model.ErrEquipmentNotFound).Once()
			},
			assert: func(t *testing.T, res *model.Request, err error, d deps) {
				assert.ErrorIs(t, err, model.ErrEquipmentNotFound)
				assert.Nil(t, res)
			},
		},
		{
			name: "scrapped equipment is rejected",
			params: model.CreateRequestParams{
				Subject:     "pump is leaking",
				Type:        model.RequestTypeCorrective,
				EquipmentID: equipmentID,
			},
			actor: requester,
			setup: func(d deps) {
				scrapped := workingEquipment()
				scrapped.IsScrap = true
				d.equipment.On("ByID", mock.Anything, equipmentID).
					Return(scrapped, nil).Once()
			},
			assert: func(t *testing.T, res *model.Request, err error, d deps) {
				assert.ErrorIs(t, err, model.ErrValidation)
				assert.Nil(t, res)
				d.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			},
		},
		{
			name: "no team and no equipment default",
			params: model.CreateRequestParams{
				Subject:     "pump is leaking",
				Type:        model.RequestTypeCorrective,
				EquipmentID: equipmentID,
			},
			actor: requester,
			setup: func(d deps) {
				orphan := workingEquipment()
				orphan.DefaultTeamID = nil
				d.equipment.On("ByID", mock.Anything, equipmentID).
					Return(orphan, nil).Once()
			},
			assert: func(t *testing.T, res *model.Request, err error, d deps) {
				assert.ErrorIs(t, err, model.ErrValidation)
				assert.Nil(t, res)
			},
		},
		{
			name: "team not found",
			params: model.CreateRequestParams{
				Subject:     "pump is leaking",
				Type:        model.RequestTypeCorrective,
				EquipmentID: equipmentID,
				TeamID:      lo.ToPtr(explicitTeamID),
			},
			actor: requester,
			setup: func(d deps) {
				d.equipment.On("ByID", mock.Anything, equipmentID).
					Return(workingEquipment(), nil).Once()
				d.teams.On("ByID", mock.Anything, explicitTeamID).
					Return(nil, model.ErrTeamNotFound).Once()
			},
			assert: func(t *testing.T, res *model.Request, err error, d deps) {
				assert.ErrorIs(t, err, model.ErrTeamNotFound)
				assert.Nil(t, res)
			},
		},
		{
			name: "preventive without scheduled date",
			params: model.CreateRequestParams{
				Subject:     "quarterly inspection",
				Type:        model.RequestTypePreventive,
				EquipmentID: equipmentID,
			},
			actor: manager,
			setup: func(d deps) {
				d.equipment.On("ByID", mock.Anything, equipmentID).
					Return(workingEquipment(), nil).Once()
				d.teams.On("ByID", mock.Anything, defaultTeamID).
					Return(&model.Team{ID: defaultTeamID}, nil).Once()
			},
			assert: func(t *testing.T, res *model.Request, err error, d deps) {
				assert.ErrorIs(t, err, model.ErrValidation)
				assert.Nil(t, res)
			},
		},
		{
			name: "preventive by requester is forbidden",
			params: model.CreateRequestParams{
				Subject:       "quarterly inspection",
				Type:          model.RequestTypePreventive,
				EquipmentID:   equipmentID,
				ScheduledDate: lo.ToPtr(time.Now().Add(24 * time.Hour)),
			},
			actor: requester,
			setup: func(d deps) {
				d.equipment.On("ByID", mock.Anything, equipmentID).
					Return(workingEquipment(), nil).Once()
				d.teams.On("ByID", mock.Anything, defaultTeamID).
					Return(&model.Team{ID: defaultTeamID}, nil).Once()
			},
			assert: func(t *testing.T, res *model.Request, err error, d deps) {
				assert.ErrorIs(t, err, model.ErrForbidden)
				assert.Nil(t, res)
				d.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			},
		},
		{
			name: "assignee outside the team",
			params: model.CreateRequestParams{
				Subject:      "pump is leaking",
				Type:         model.RequestTypeCorrective,
				EquipmentID:  equipmentID,
				AssignedToID: lo.ToPtr(technicianID),
			},
			actor: requester,
			setup: func(d deps) {
				d.equipment.On("ByID", mock.Anything, equipmentID).
					Return(workingEquipment(), nil).Once()
				d.teams.On("ByID", mock.Anything, defaultTeamID).
					Return(&model.Team{ID: defaultTeamID}, nil).Once()
				d.users.On("ByID", mock.Anything, technicianID).
					Return(technician(), nil).Once()
				d.teams.On("IsMember", mock.Anything, defaultTeamID, technicianID).
					Return(false, nil).Once()
			},
			assert: func(t *testing.T, res *model.Request, err error, d deps) {
				assert.ErrorIs(t, err, model.ErrValidation)
				assert.Nil(t, res)
			},
		},
		{
			name: "assignee with requester role",
			params: model.CreateRequestParams{
				Subject:      "pump is leaking",
				Type:         model.RequestTypeCorrective,
				EquipmentID:  equipmentID,
				AssignedToID: lo.ToPtr(technicianID),
			},
			actor: requester,
			setup: func(d deps) {
				plainUser := technician()
				plainUser.Role = model.RoleUser
				d.equipment.On("ByID", mock.Anything, equipmentID).
					Return(workingEquipment(), nil).Once()
				d.teams.On("ByID", mock.Anything, defaultTeamID).
					Return(&model.Team{ID: defaultTeamID}, nil).Once()
				d.users.On("ByID", mock.Anything, technicianID).
					Return(plainUser, nil).Once()
			},
			assert: func(t *testing.T, res *model.Request, err error, d deps) {
				assert.ErrorIs(t, err, model.ErrValidation)
				assert.Nil(t, res)
			},
		},
		{
			name: "corrective request auto-fills the equipment default team",
			params: model.CreateRequestParams{
				Subject:     "pump is leaking",
				Type:        model.RequestTypeCorrective,
				EquipmentID: equipmentID,
			},
			actor: requester,
			setup: func(d deps) {
				d.equipment.On("ByID", mock.Anything, equipmentID).
					Return(workingEquipment(), nil).Once()
				d.teams.On("ByID", mock.Anything, defaultTeamID).
					Return(&model.Team{ID: defaultTeamID}, nil).Once()
				d.repo.On("Create", mock.Anything, mock.MatchedBy(func(req *model.Request) bool {
					return req.TeamID == defaultTeamID &&
						req.Status == model.StatusNew &&
						req.CreatedByID == requester.ID
				})).Return(requestID, nil).Once()
				d.repo.On("ByID", mock.Anything, requestID).
					Return(storedRequest(defaultTeamID), nil).Once()
				d.events.On("SendRequestCreated", mock.Anything, mock.Anything).
					Return(nil).Once()
			},
			assert: func(t *testing.T, res *model.Request, err error, d deps) {
				require.NoError(t, err)
				require.NotNil(t, res)
				assert.Equal(t, defaultTeamID, res.TeamID)
				assert.Equal(t, model.StatusNew, res.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newDeps()
			tt.setup(d)

			res, err := newSvc(d).Create(context.Background(), tt.params, tt.actor)

			tt.assert(t, res, err, d)
			d.assertExpectations(t)
		})
	}
}

func TestServiceTransitionClosure(t *testing.T) {
	t.Parallel()

	statuses := []model.RequestStatus{
		model.StatusNew, model.StatusInProgress, model.StatusRepaired, model.StatusScrap,
	}
	allowed := map[model.RequestStatus][]model.RequestStatus{
		model.StatusNew:        {model.StatusInProgress, model.StatusScrap},
		model.StatusInProgress: {model.StatusRepaired, model.StatusScrap},
	}

	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	technicianID := uuid.New()

	for _, from := range statuses {
		for _, to := range statuses {
			from, to := from, to
			shouldPass := lo.Contains(allowed[from], to)

			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				t.Parallel()

				d := newDeps()
				requestID := uuid.New()
				req := &model.Request{
					ID:           requestID,
					Status:       from,
					EquipmentID:  uuid.New(),
					TeamID:       uuid.New(),
					AssignedToID: lo.ToPtr(technicianID),
					CreatedByID:  uuid.New(),
				}
				d.repo.On("ByID", mock.Anything, requestID).Return(req, nil).Once()

				var duration *float64
				if to == model.StatusRepaired {
					duration = lo.ToPtr(2.5)
				}

				if shouldPass {
					d.repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(upd model.RequestStatusUpdate) bool {
						return upd.From == from && upd.To == to
					})).Return(nil).Once()
					if to == model.StatusScrap {
						d.equipment.On("MarkScrap", mock.Anything, req.EquipmentID).
							Return(nil).Once()
					}
					d.repo.On("ByID", mock.Anything, requestID).Return(req, nil).Once()
					d.events.On("SendStatusChanged", mock.Anything, mock.Anything).
						Return(nil).Once()
				}

				res, err := newSvc(d).Transition(context.Background(), requestID, to, admin, duration)

				if shouldPass {
					require.NoError(t, err)
					require.NotNil(t, res)
				} else {
					require.Error(t, err)
					assert.ErrorIs(t, err, model.ErrInvalidTransition)
					d.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
				}
				d.assertExpectations(t)
			})
		}
	}
}

func TestServiceTransitionRepairedRules(t *testing.T) {
	t.Parallel()

	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	t.Run("missing duration", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:           requestID,
			Status:       model.StatusInProgress,
			AssignedToID: lo.ToPtr(uuid.New()),
		}, nil).Once()

		_, err := newSvc(d).Transition(context.Background(), requestID, model.StatusRepaired, admin, nil)

		assert.ErrorIs(t, err, model.ErrValidation)
		d.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:           requestID,
			Status:       model.StatusInProgress,
			AssignedToID: lo.ToPtr(uuid.New()),
		}, nil).Once()

		_, err := newSvc(d).Transition(context.Background(), requestID, model.StatusRepaired, admin, lo.ToPtr(-1.0))

		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("missing assignee", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:     requestID,
			Status: model.StatusInProgress,
		}, nil).Once()

		_, err := newSvc(d).Transition(context.Background(), requestID, model.StatusRepaired, admin, lo.ToPtr(2.0))

		assert.ErrorIs(t, err, model.ErrValidation)
		d.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})
}

func TestServiceTransitionAutoClaim(t *testing.T) {
	t.Parallel()

	technician := model.Actor{ID: uuid.New(), Role: model.RoleTechnician}

	t.Run("unassigned request is claimed by the actor", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		teamID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:     requestID,
			Status: model.StatusNew,
			TeamID: teamID,
		}, nil).Once()
		d.teams.On("IsMember", mock.Anything, teamID, technician.ID).
			Return(true, nil).Once()
		d.repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(upd model.RequestStatusUpdate) bool {
			return upd.AssignedToID != nil && *upd.AssignedToID == technician.ID
		})).Return(nil).Once()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:           requestID,
			Status:       model.StatusInProgress,
			AssignedToID: lo.ToPtr(technician.ID),
		}, nil).Once()
		d.events.On("SendStatusChanged", mock.Anything, mock.Anything).Return(nil).Once()

		res, err := newSvc(d).Transition(context.Background(), requestID, model.StatusInProgress, technician, nil)

		require.NoError(t, err)
		require.NotNil(t, res.AssignedToID)
		assert.Equal(t, technician.ID, *res.AssignedToID)
		d.assertExpectations(t)
	})

	t.Run("existing assignee is never silently replaced", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		manager := model.Actor{ID: uuid.New(), Role: model.RoleManager}
		requestID := uuid.New()
		owner := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:           requestID,
			Status:       model.StatusNew,
			AssignedToID: lo.ToPtr(owner),
		}, nil).Once()
		d.repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(upd model.RequestStatusUpdate) bool {
			return upd.AssignedToID == nil
		})).Return(nil).Once()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:           requestID,
			Status:       model.StatusInProgress,
			AssignedToID: lo.ToPtr(owner),
		}, nil).Once()
		d.events.On("SendStatusChanged", mock.Anything, mock.Anything).Return(nil).Once()

		res, err := newSvc(d).Transition(context.Background(), requestID, model.StatusInProgress, manager, nil)

		require.NoError(t, err)
		require.NotNil(t, res.AssignedToID)
		assert.Equal(t, owner, *res.AssignedToID)
		d.assertExpectations(t)
	})

	t.Run("technician from another team cannot claim", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		teamID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:     requestID,
			Status: model.StatusNew,
			TeamID: teamID,
		}, nil).Once()
		d.teams.On("IsMember", mock.Anything, teamID, technician.ID).
			Return(false, nil).Once()

		_, err := newSvc(d).Transition(context.Background(), requestID, model.StatusInProgress, technician, nil)

		assert.ErrorIs(t, err, model.ErrForbidden)
		d.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})

	t.Run("starting work never records a duration", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		manager := model.Actor{ID: uuid.New(), Role: model.RoleManager}
		requestID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:     requestID,
			Status: model.StatusNew,
		}, nil).Once()
		d.repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(upd model.RequestStatusUpdate) bool {
			return upd.To == model.StatusInProgress && upd.DurationHours == nil && upd.CompletedAt == nil
		})).Return(nil).Once()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:           requestID,
			Status:       model.StatusInProgress,
			AssignedToID: lo.ToPtr(manager.ID),
		}, nil).Once()
		d.events.On("SendStatusChanged", mock.Anything, mock.Anything).Return(nil).Once()

		res, err := newSvc(d).Transition(context.Background(), requestID, model.StatusInProgress, manager, lo.ToPtr(5.0))

		require.NoError(t, err)
		assert.Nil(t, res.DurationHours)
		d.assertExpectations(t)
	})
}

func TestServiceTransitionScrapCascade(t *testing.T) {
	t.Parallel()

	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	d := newDeps()
	requestID := uuid.New()
	equipmentID := uuid.New()
	d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
		ID:          requestID,
		Status:      model.StatusNew,
		EquipmentID: equipmentID,
	}, nil).Once()
	d.repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(upd model.RequestStatusUpdate) bool {
		return upd.To == model.StatusScrap && upd.CompletedAt != nil
	})).Return(nil).Once()
	d.equipment.On("MarkScrap", mock.Anything, equipmentID).Return(nil).Once()
	d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
		ID:          requestID,
		Status:      model.StatusScrap,
		EquipmentID: equipmentID,
	}, nil).Once()
	d.events.On("SendStatusChanged", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := newSvc(d).Transition(context.Background(), requestID, model.StatusScrap, admin, nil)

	require.NoError(t, err)
	assert.Equal(t, model.StatusScrap, res.Status)
	d.assertExpectations(t)
}

func TestServiceTransitionAuthorization(t *testing.T) {
	t.Parallel()

	d := newDeps()
	requestID := uuid.New()
	stranger := model.Actor{ID: uuid.New(), Role: model.RoleTechnician}
	d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
		ID:           requestID,
		Status:       model.StatusInProgress,
		AssignedToID: lo.ToPtr(uuid.New()),
	}, nil).Once()

	_, err := newSvc(d).Transition(context.Background(), requestID, model.StatusRepaired, stranger, lo.ToPtr(1.0))

	assert.ErrorIs(t, err, model.ErrForbidden)
	d.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
}

func TestServiceTransitionConflict(t *testing.T) {
	t.Parallel()

	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	d := newDeps()
	requestID := uuid.New()
	d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
		ID:     requestID,
		Status: model.StatusNew,
	}, nil).Once()
	d.repo.On("UpdateStatus", mock.Anything, mock.Anything).
		Return(model.ErrConflict).Once()

	_, err := newSvc(d).Transition(context.Background(), requestID, model.StatusInProgress, admin, nil)

	assert.ErrorIs(t, err, model.ErrConflict)
	d.equipment.AssertNotCalled(t, "MarkScrap", mock.Anything, mock.Anything)
}

func TestServiceAssign(t *testing.T) {
	t.Parallel()

	manager := model.Actor{ID: uuid.New(), Role: model.RoleManager}
	teamID := uuid.New()
	technicianID := uuid.New()

	technician := &model.User{ID: technicianID, Role: model.RoleTechnician, IsActive: true}

	t.Run("technician role cannot dispatch", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:     requestID,
			Status: model.StatusNew,
			TeamID: teamID,
		}, nil).Once()

		_, err := newSvc(d).Assign(context.Background(), requestID, technicianID,
			model.Actor{ID: uuid.New(), Role: model.RoleTechnician})

		assert.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("assigning a new request starts the work", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:     requestID,
			Status: model.StatusNew,
			TeamID: teamID,
		}, nil).Once()
		d.users.On("ByID", mock.Anything, technicianID).Return(technician, nil).Once()
		d.teams.On("IsMember", mock.Anything, teamID, technicianID).Return(true, nil).Once()
		d.repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(upd model.RequestStatusUpdate) bool {
			return upd.From == model.StatusNew &&
				upd.To == model.StatusInProgress &&
				upd.AssignedToID != nil && *upd.AssignedToID == technicianID
		})).Return(nil).Once()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:           requestID,
			Status:       model.StatusInProgress,
			TeamID:       teamID,
			AssignedToID: lo.ToPtr(technicianID),
		}, nil).Once()
		d.events.On("SendRequestAssigned", mock.Anything, mock.Anything).Return(nil).Once()

		res, err := newSvc(d).Assign(context.Background(), requestID, technicianID, manager)

		require.NoError(t, err)
		assert.Equal(t, model.StatusInProgress, res.Status)
		d.assertExpectations(t)
	})

	t.Run("reassigning an in-progress request keeps its status", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:           requestID,
			Status:       model.StatusInProgress,
			TeamID:       teamID,
			AssignedToID: lo.ToPtr(uuid.New()),
		}, nil).Once()
		d.users.On("ByID", mock.Anything, technicianID).Return(technician, nil).Once()
		d.teams.On("IsMember", mock.Anything, teamID, technicianID).Return(true, nil).Once()
		d.repo.On("Update", mock.Anything, mock.MatchedBy(func(req *model.Request) bool {
			return req.AssignedToID != nil && *req.AssignedToID == technicianID
		})).Return(nil).Once()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:           requestID,
			Status:       model.StatusInProgress,
			TeamID:       teamID,
			AssignedToID: lo.ToPtr(technicianID),
		}, nil).Once()
		d.events.On("SendRequestAssigned", mock.Anything, mock.Anything).Return(nil).Once()

		res, err := newSvc(d).Assign(context.Background(), requestID, technicianID, manager)

		require.NoError(t, err)
		assert.Equal(t, model.StatusInProgress, res.Status)
		d.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})

	t.Run("unknown technician", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:     requestID,
			Status: model.StatusNew,
			TeamID: teamID,
		}, nil).Once()
		d.users.On("ByID", mock.Anything, technicianID).
			Return(nil, model.ErrUserNotFound).Once()

		_, err := newSvc(d).Assign(context.Background(), requestID, technicianID, manager)

		assert.ErrorIs(t, err, model.ErrTechnicianNotFound)
	})
}

func TestServiceUpdate(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()

	t.Run("stranger is rejected", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:          requestID,
			TeamID:      teamID,
			CreatedByID: uuid.New(),
		}, nil).Once()

		_, err := newSvc(d).Update(context.Background(), requestID, model.UpdateRequestPatch{},
			model.Actor{ID: uuid.New(), Role: model.RoleUser})

		assert.ErrorIs(t, err, model.ErrForbidden)
		d.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("explicit null clears the description", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		assignee := uuid.New()
		stored := &model.Request{
			ID:           requestID,
			Subject:      "pump is leaking",
			Description:  lo.ToPtr("leaking at the base"),
			TeamID:       teamID,
			AssignedToID: lo.ToPtr(assignee),
		}
		d.repo.On("ByID", mock.Anything, requestID).Return(stored, nil).Once()
		d.repo.On("Update", mock.Anything, mock.MatchedBy(func(req *model.Request) bool {
			return req.Description == nil && req.Subject == "pump is leaking"
		})).Return(nil).Once()
		d.repo.On("ByID", mock.Anything, requestID).Return(stored, nil).Once()

		_, err := newSvc(d).Update(context.Background(), requestID,
			model.UpdateRequestPatch{Description: model.Null[string]()},
			model.Actor{ID: assignee, Role: model.RoleTechnician})

		require.NoError(t, err)
		d.assertExpectations(t)
	})

	t.Run("null subject is rejected", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:     requestID,
			TeamID: teamID,
		}, nil).Once()

		_, err := newSvc(d).Update(context.Background(), requestID,
			model.UpdateRequestPatch{Subject: model.Null[string]()},
			model.Actor{ID: uuid.New(), Role: model.RoleAdmin})

		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("patched assignee is re-validated", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		requestID := uuid.New()
		newAssignee := uuid.New()
		d.repo.On("ByID", mock.Anything, requestID).Return(&model.Request{
			ID:     requestID,
			TeamID: teamID,
		}, nil).Once()
		d.users.On("ByID", mock.Anything, newAssignee).Return(&model.User{
			ID:   newAssignee,
			Role: model.RoleTechnician,
		}, nil).Once()
		d.teams.On("IsMember", mock.Anything, teamID, newAssignee).Return(false, nil).Once()

		_, err := newSvc(d).Update(context.Background(), requestID,
			model.UpdateRequestPatch{AssignedToID: model.Some(newAssignee)},
			model.Actor{ID: uuid.New(), Role: model.RoleAdmin})

		assert.ErrorIs(t, err, model.ErrValidation)
		d.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestServiceListScoping(t *testing.T) {
	t.Parallel()

	t.Run("requester sees only own requests", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		actor := model.Actor{ID: uuid.New(), Role: model.RoleUser}
		d.repo.On("List", mock.Anything, mock.Anything, mock.MatchedBy(func(scope model.VisibilityScope) bool {
			return scope.CreatedByID != nil && *scope.CreatedByID == actor.ID
		})).Return(&model.RequestPage{}, nil).Once()

		_, err := newSvc(d).List(context.Background(), model.RequestFilter{}, actor)

		require.NoError(t, err)
		d.assertExpectations(t)
	})

	t.Run("technician sees own and team requests", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		actor := model.Actor{ID: uuid.New(), Role: model.RoleTechnician}
		teamIDs := []uuid.UUID{uuid.New(), uuid.New()}
		d.teams.On("TeamIDsForMember", mock.Anything, actor.ID).Return(teamIDs, nil).Once()
		d.repo.On("List", mock.Anything, mock.Anything, mock.MatchedBy(func(scope model.VisibilityScope) bool {
			return scope.AssignedToID != nil && *scope.AssignedToID == actor.ID &&
				len(scope.TeamIDs) == 2
		})).Return(&model.RequestPage{}, nil).Once()

		_, err := newSvc(d).List(context.Background(), model.RequestFilter{}, actor)

		require.NoError(t, err)
		d.assertExpectations(t)
	})

	t.Run("manager is unrestricted", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		actor := model.Actor{ID: uuid.New(), Role: model.RoleManager}
		d.repo.On("List", mock.Anything, mock.Anything, mock.MatchedBy(func(scope model.VisibilityScope) bool {
			return scope.Unrestricted()
		})).Return(&model.RequestPage{}, nil).Once()

		_, err := newSvc(d).List(context.Background(), model.RequestFilter{}, actor)

		require.NoError(t, err)
		d.teams.AssertNotCalled(t, "TeamIDsForMember", mock.Anything, mock.Anything)
	})
}

func TestServiceByIDVisibility(t *testing.T) {
	t.Parallel()

	requestID := uuid.New()
	creator := uuid.New()

	stored := func() *model.Request {
		return &model.Request{
			ID:          requestID,
			TeamID:      uuid.New(),
			CreatedByID: creator,
		}
	}

	t.Run("requester reads own request", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		d.repo.On("ByID", mock.Anything, requestID).Return(stored(), nil).Once()

		res, err := newSvc(d).ByID(context.Background(), requestID,
			model.Actor{ID: creator, Role: model.RoleUser})

		require.NoError(t, err)
		assert.Equal(t, requestID, res.ID)
	})

	t.Run("requester is denied another user's request", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		d.repo.On("ByID", mock.Anything, requestID).Return(stored(), nil).Once()

		_, err := newSvc(d).ByID(context.Background(), requestID,
			model.Actor{ID: uuid.New(), Role: model.RoleUser})

		assert.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("technician reads through team membership", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		req := stored()
		actor := model.Actor{ID: uuid.New(), Role: model.RoleTechnician}
		d.repo.On("ByID", mock.Anything, requestID).Return(req, nil).Once()
		d.teams.On("TeamIDsForMember", mock.Anything, actor.ID).
			Return([]uuid.UUID{req.TeamID}, nil).Once()

		res, err := newSvc(d).ByID(context.Background(), requestID, actor)

		require.NoError(t, err)
		assert.Equal(t, requestID, res.ID)
	})
}
