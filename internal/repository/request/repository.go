package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/you-humble/gearguard/internal/model"
)

var requestColumns = []string{
	"r.id", "r.subject", "r.description", "r.request_type", "r.status",
	"r.equipment_id", "r.team_id", "r.assigned_to_id", "r.created_by_id",
	"r.scheduled_date", "r.completed_at", "r.duration_hours",
	"r.created_at", "r.updated_at",
	"e.name", "e.serial_number", "e.category", "e.is_scrap",
	"t.name",
	"a.name", "a.email", "a.role",
	"c.name", "c.email", "c.role",
}

type repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

func NewRequestRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) Create(ctx context.Context, req *model.Request) (uuid.UUID, error) {
	q := r.sb.
		Insert("maintenance_requests").
		Columns("subject", "description", "request_type", "status", "equipment_id",
			"team_id", "assigned_to_id", "created_by_id", "scheduled_date").
		Values(req.Subject, req.Description, req.Type, req.Status, req.EquipmentID,
			req.TeamID, req.AssignedToID, req.CreatedByID, req.ScheduledDate).
		Suffix("RETURNING id")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

func (r *repository) ByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	q := r.joined().Where(sq.Eq{"r.id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	req, err := scanRequest(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRequestNotFound
		}
		return nil, err
	}

	return req, nil
}

func (r *repository) List(ctx context.Context, filter model.RequestFilter, scope model.VisibilityScope) (*model.RequestPage, error) {
	page := filter.Page
	if page == 0 {
		page = 1
	}
	limit := filter.Limit
	if limit == 0 {
		limit = model.DefaultPageLimit
	}
	if limit > model.MaxPageLimit {
		limit = model.MaxPageLimit
	}

	where := filterConditions(filter, scope)

	countQ := r.sb.Select("count(*)").From("maintenance_requests r")
	for _, cond := range where {
		countQ = countQ.Where(cond)
	}

	sqlStr, args, err := countQ.ToSql()
	if err != nil {
		return nil, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return nil, err
	}

	q := r.joined().
		OrderBy("r.created_at DESC").
		Limit(limit).
		Offset(pageOffset(page, limit))
	for _, cond := range where {
		q = q.Where(cond)
	}

	items, err := r.many(ctx, q)
	if err != nil {
		return nil, err
	}

	return &model.RequestPage{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// pageOffset keeps the OFFSET within bigint range; an absurd page value from
// the query string must not wrap around to an early page.
func pageOffset(page, limit uint64) uint64 {
	if page <= 1 {
		return 0
	}
	if page-1 > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return (page - 1) * limit
}

// Update persists the patchable fields. Status and its timestamps go through
// UpdateStatus instead.
func (r *repository) Update(ctx context.Context, req *model.Request) error {
	q := r.sb.
		Update("maintenance_requests").
		SetMap(sq.Eq{
			"subject":        req.Subject,
			"description":    req.Description,
			"scheduled_date": req.ScheduledDate,
			"assigned_to_id": req.AssignedToID,
			"duration_hours": req.DurationHours,
			"updated_at":     sq.Expr("now()"),
		}).
		Where(sq.Eq{"id": req.ID})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	ct, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrRequestNotFound
	}

	return nil
}

// UpdateStatus applies the transition only when the row is still in upd.From,
// so two concurrent transitions on one request cannot both win. A lost race
// surfaces as ErrConflict.
func (r *repository) UpdateStatus(ctx context.Context, upd model.RequestStatusUpdate) error {
	set := sq.Eq{
		"status":     upd.To,
		"updated_at": sq.Expr("now()"),
	}
	if upd.AssignedToID != nil {
		set["assigned_to_id"] = upd.AssignedToID
	}
	if upd.CompletedAt != nil {
		set["completed_at"] = upd.CompletedAt
	}
	if upd.DurationHours != nil {
		set["duration_hours"] = upd.DurationHours
	}

	q := r.sb.
		Update("maintenance_requests").
		SetMap(set).
		Where(sq.Eq{"id": upd.ID, "status": upd.From})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	ct, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		exists, err := r.exists(ctx, upd.ID)
		if err != nil {
			return err
		}
		if !exists {
			return model.ErrRequestNotFound
		}
		return fmt.Errorf("%w: request %s left status %s concurrently", model.ErrConflict, upd.ID, upd.From)
	}

	return nil
}

// Calendar returns preventive requests scheduled inside [from, to].
func (r *repository) Calendar(ctx context.Context, from, to time.Time, scope model.VisibilityScope) ([]model.Request, error) {
	q := r.joined().
		Where(sq.Eq{"r.request_type": model.RequestTypePreventive}).
		Where(sq.GtOrEq{"r.scheduled_date": from}).
		Where(sq.LtOrEq{"r.scheduled_date": to}).
		OrderBy("r.scheduled_date ASC")
	if cond := scopeCondition(scope); cond != nil {
		q = q.Where(cond)
	}

	return r.many(ctx, q)
}

// Overdue returns non-terminal requests whose scheduled date has passed.
func (r *repository) Overdue(ctx context.Context, now time.Time, scope model.VisibilityScope) ([]model.Request, error) {
	q := r.joined().
		Where(sq.Lt{"r.scheduled_date": now}).
		Where(sq.Eq{"r.status": []model.RequestStatus{model.StatusNew, model.StatusInProgress}}).
		OrderBy("r.scheduled_date ASC")
	if cond := scopeCondition(scope); cond != nil {
		q = q.Where(cond)
	}

	return r.many(ctx, q)
}

// UnassignActiveByTeamMember clears the assignee on the member's non-terminal
// requests within the team. Idempotent.
func (r *repository) UnassignActiveByTeamMember(ctx context.Context, teamID, userID uuid.UUID) error {
	q := r.sb.
		Update("maintenance_requests").
		SetMap(sq.Eq{
			"assigned_to_id": nil,
			"updated_at":     sq.Expr("now()"),
		}).
		Where(sq.Eq{
			"team_id":        teamID,
			"assigned_to_id": userID,
			"status":         []model.RequestStatus{model.StatusNew, model.StatusInProgress},
		})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, sqlStr, args...)
	return err
}

func (r *repository) joined() sq.SelectBuilder {
	return r.sb.
		Select(requestColumns...).
		From("maintenance_requests r").
		Join("equipment e ON e.id = r.equipment_id").
		Join("maintenance_teams t ON t.id = r.team_id").
		LeftJoin("users a ON a.id = r.assigned_to_id").
		Join("users c ON c.id = r.created_by_id")
}

func (r *repository) many(ctx context.Context, q sq.SelectBuilder) ([]model.Request, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *req)
	}

	return items, rows.Err()
}

func (r *repository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	q := r.sb.
		Select("1").
		From("maintenance_requests").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.pool.QueryRow(ctx, sqlStr, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func filterConditions(filter model.RequestFilter, scope model.VisibilityScope) []sq.Sqlizer {
	var conds []sq.Sqlizer

	if cond := scopeCondition(scope); cond != nil {
		conds = append(conds, cond)
	}
	if filter.Status != nil {
		conds = append(conds, sq.Eq{"r.status": *filter.Status})
	}
	if filter.Type != nil {
		conds = append(conds, sq.Eq{"r.request_type": *filter.Type})
	}
	if filter.EquipmentID != nil {
		conds = append(conds, sq.Eq{"r.equipment_id": *filter.EquipmentID})
	}
	if filter.TeamID != nil {
		conds = append(conds, sq.Eq{"r.team_id": *filter.TeamID})
	}
	if filter.AssignedToID != nil {
		conds = append(conds, sq.Eq{"r.assigned_to_id": *filter.AssignedToID})
	}
	if filter.CreatedByID != nil {
		conds = append(conds, sq.Eq{"r.created_by_id": *filter.CreatedByID})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conds = append(conds, sq.Or{
			sq.ILike{"r.subject": pattern},
			sq.ILike{"r.description": pattern},
		})
	}

	return conds
}

// scopeCondition renders the role-derived row filter. Nil means unrestricted.
func scopeCondition(scope model.VisibilityScope) sq.Sqlizer {
	switch {
	case scope.CreatedByID != nil:
		return sq.Eq{"r.created_by_id": *scope.CreatedByID}
	case scope.AssignedToID != nil:
		cond := sq.Or{sq.Eq{"r.assigned_to_id": *scope.AssignedToID}}
		if len(scope.TeamIDs) > 0 {
			cond = append(cond, sq.Eq{"r.team_id": scope.TeamIDs})
		}
		return cond
	default:
		return nil
	}
}

func scanRequest(row pgx.Row) (*model.Request, error) {
	var (
		req       model.Request
		equipment model.EquipmentSummary
		team      model.TeamSummary
		creator   model.UserSummary

		assigneeName  *string
		assigneeEmail *string
		assigneeRole  *model.Role
	)

	err := row.Scan(
		&req.ID,
		&req.Subject,
		&req.Description,
		&req.Type,
		&req.Status,
		&req.EquipmentID,
		&req.TeamID,
		&req.AssignedToID,
		&req.CreatedByID,
		&req.ScheduledDate,
		&req.CompletedAt,
		&req.DurationHours,
		&req.CreatedAt,
		&req.UpdatedAt,
		&equipment.Name,
		&equipment.SerialNumber,
		&equipment.Category,
		&equipment.IsScrap,
		&team.Name,
		&assigneeName,
		&assigneeEmail,
		&assigneeRole,
		&creator.Name,
		&creator.Email,
		&creator.Role,
	)
	if err != nil {
		return nil, err
	}

	equipment.ID = req.EquipmentID
	team.ID = req.TeamID
	creator.ID = req.CreatedByID
	req.Equipment = &equipment
	req.Team = &team
	req.CreatedBy = &creator

	if req.AssignedToID != nil && assigneeName != nil {
		req.AssignedTo = &model.UserSummary{
			ID:    *req.AssignedToID,
			Name:  *assigneeName,
			Email: *assigneeEmail,
			Role:  *assigneeRole,
		}
	}

	return &req, nil
}
