package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/you-humble/gearguard/internal/authz"
	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/platform/logger"
)

type ReportRepository interface {
	CountsByTeam(ctx context.Context) ([]model.TeamReport, error)
	CountsByCategory(ctx context.Context) ([]model.CategoryReport, error)
	CountsByStatus(ctx context.Context) ([]model.StatusReport, error)
	DurationOverall(ctx context.Context) (avg float64, repaired int64, err error)
	DurationByType(ctx context.Context) ([]model.DurationBucket, error)
	DurationByCategory(ctx context.Context) ([]model.DurationBucket, error)
	DurationByTeam(ctx context.Context) ([]model.DurationBucket, error)
	Dashboard(ctx context.Context, now time.Time, scope model.VisibilityScope) (*model.DashboardStats, error)
}

type TeamProvider interface {
	TeamIDsForMember(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type service struct {
	repo  ReportRepository
	teams TeamProvider
}

func NewReportService(repo ReportRepository, teams TeamProvider) *service {
	return &service{
		repo:  repo,
		teams: teams,
	}
}

func (svc *service) ByTeam(ctx context.Context, actor model.Actor) ([]model.TeamReport, error) {
	const op = "report.service.ByTeam"

	if err := authz.Check(authz.ViewReports, actor, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reports, err := svc.repo.CountsByTeam(ctx)
	if err != nil {
		logger.Error(ctx, "repository counts by team", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reports, nil
}

func (svc *service) ByCategory(ctx context.Context, actor model.Actor) ([]model.CategoryReport, error) {
	const op = "report.service.ByCategory"

	if err := authz.Check(authz.ViewReports, actor, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reports, err := svc.repo.CountsByCategory(ctx)
	if err != nil {
		logger.Error(ctx, "repository counts by category", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reports, nil
}

// ByStatus returns per-status counts with each status's share of the total.
func (svc *service) ByStatus(ctx context.Context, actor model.Actor) ([]model.StatusReport, error) {
	const op = "report.service.ByStatus"

	if err := authz.Check(authz.ViewReports, actor, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reports, err := svc.repo.CountsByStatus(ctx)
	if err != nil {
		logger.Error(ctx, "repository counts by status", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var total int64
	for _, rep := range reports {
		total += rep.Count
	}
	if total > 0 {
		for i := range reports {
			reports[i].Percentage = float64(reports[i].Count) / float64(total) * 100
		}
	}

	return reports, nil
}

func (svc *service) DurationAnalysis(ctx context.Context, actor model.Actor) (*model.DurationAnalysis, error) {
	const op = "report.service.DurationAnalysis"

	if err := authz.Check(authz.ViewReports, actor, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	avg, repaired, err := svc.repo.DurationOverall(ctx)
	if err != nil {
		logger.Error(ctx, "repository overall duration", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	byType, err := svc.repo.DurationByType(ctx)
	if err != nil {
		logger.Error(ctx, "repository duration by type", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	byCategory, err := svc.repo.DurationByCategory(ctx)
	if err != nil {
		logger.Error(ctx, "repository duration by category", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	byTeam, err := svc.repo.DurationByTeam(ctx)
	if err != nil {
		logger.Error(ctx, "repository duration by team", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &model.DurationAnalysis{
		OverallAverageHours: avg,
		RepairedRequests:    repaired,
		ByType:              byType,
		ByCategory:          byCategory,
		ByTeam:              byTeam,
	}, nil
}

// Dashboard is available to every authenticated role; the counts honor the
// actor's visibility scope.
func (svc *service) Dashboard(ctx context.Context, actor model.Actor) (*model.DashboardStats, error) {
	const op = "report.service.Dashboard"

	scope, err := svc.scopeFor(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats, err := svc.repo.Dashboard(ctx, time.Now().UTC(), scope)
	if err != nil {
		logger.Error(ctx, "repository dashboard", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

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
