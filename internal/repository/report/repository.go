package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/you-humble/gearguard/internal/model"
)

type repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

func NewReportRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) CountsByTeam(ctx context.Context) ([]model.TeamReport, error) {
	const query = `
SELECT
	t.id,
	t.name,
	count(*) FILTER (WHERE r.status = 'NEW'),
	count(*) FILTER (WHERE r.status = 'IN_PROGRESS'),
	count(*) FILTER (WHERE r.status = 'REPAIRED'),
	count(*) FILTER (WHERE r.status = 'SCRAP')
FROM maintenance_teams t
LEFT JOIN maintenance_requests r ON r.team_id = t.id
GROUP BY t.id, t.name
ORDER BY t.name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []model.TeamReport
	for rows.Next() {
		var rep model.TeamReport
		if err := rows.Scan(
			&rep.TeamID,
			&rep.TeamName,
			&rep.Counts.New,
			&rep.Counts.InProgress,
			&rep.Counts.Repaired,
			&rep.Counts.Scrap,
		); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

func (r *repository) CountsByCategory(ctx context.Context) ([]model.CategoryReport, error) {
	const query = `
SELECT e.category, count(*)
FROM maintenance_requests r
JOIN equipment e ON e.id = r.equipment_id
GROUP BY e.category
ORDER BY count(*) DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []model.CategoryReport
	for rows.Next() {
		var rep model.CategoryReport
		if err := rows.Scan(&rep.Category, &rep.Total); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

func (r *repository) CountsByStatus(ctx context.Context) ([]model.StatusReport, error) {
	const query = `
SELECT status, count(*)
FROM maintenance_requests
GROUP BY status`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []model.StatusReport
	for rows.Next() {
		var rep model.StatusReport
		if err := rows.Scan(&rep.Status, &rep.Count); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

func (r *repository) DurationOverall(ctx context.Context) (avg float64, repaired int64, err error) {
	const query = `
SELECT coalesce(avg(duration_hours), 0), count(*)
FROM maintenance_requests
WHERE status = 'REPAIRED' AND duration_hours IS NOT NULL`

	err = r.pool.QueryRow(ctx, query).Scan(&avg, &repaired)
	return avg, repaired, err
}

func (r *repository) DurationByType(ctx context.Context) ([]model.DurationBucket, error) {
	const query = `
SELECT request_type, count(*), coalesce(avg(duration_hours), 0)
FROM maintenance_requests
WHERE status = 'REPAIRED' AND duration_hours IS NOT NULL
GROUP BY request_type`

	return r.buckets(ctx, query)
}

func (r *repository) DurationByCategory(ctx context.Context) ([]model.DurationBucket, error) {
	const query = `
SELECT e.category, count(*), coalesce(avg(r.duration_hours), 0)
FROM maintenance_requests r
JOIN equipment e ON e.id = r.equipment_id
WHERE r.status = 'REPAIRED' AND r.duration_hours IS NOT NULL
GROUP BY e.category`

	return r.buckets(ctx, query)
}

func (r *repository) DurationByTeam(ctx context.Context) ([]model.DurationBucket, error) {
	const query = `
SELECT t.name, count(*), coalesce(avg(r.duration_hours), 0)
FROM maintenance_requests r
JOIN maintenance_teams t ON t.id = r.team_id
WHERE r.status = 'REPAIRED' AND r.duration_hours IS NOT NULL
GROUP BY t.name`

	return r.buckets(ctx, query)
}

func (r *repository) buckets(ctx context.Context, query string) ([]model.DurationBucket, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []model.DurationBucket
	for rows.Next() {
		var b model.DurationBucket
		if err := rows.Scan(&b.Key, &b.Requests, &b.AverageHours); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}

	return buckets, rows.Err()
}

// Dashboard rolls up request counts within the actor's visibility scope.
func (r *repository) Dashboard(ctx context.Context, now time.Time, scope model.VisibilityScope) (*model.DashboardStats, error) {
	countsQ := r.sb.
		Select(
			"count(*) FILTER (WHERE r.status = 'NEW')",
			"count(*) FILTER (WHERE r.status = 'IN_PROGRESS')",
			"count(*) FILTER (WHERE r.status = 'REPAIRED')",
			"count(*) FILTER (WHERE r.status = 'SCRAP')",
		).
		Column(sq.Expr("count(*) FILTER (WHERE r.scheduled_date < ? AND r.status IN ('NEW', 'IN_PROGRESS'))", now)).
		From("maintenance_requests r")
	if cond := scopeCondition(scope); cond != nil {
		countsQ = countsQ.Where(cond)
	}

	sqlStr, args, err := countsQ.ToSql()
	if err != nil {
		return nil, err
	}

	var stats model.DashboardStats
	err = r.pool.QueryRow(ctx, sqlStr, args...).Scan(
		&stats.Counts.New,
		&stats.Counts.InProgress,
		&stats.Counts.Repaired,
		&stats.Counts.Scrap,
		&stats.OverdueCount,
	)
	if err != nil {
		return nil, err
	}

	const equipmentQuery = `
SELECT count(*), count(*) FILTER (WHERE is_scrap)
FROM equipment`

	err = r.pool.QueryRow(ctx, equipmentQuery).Scan(&stats.EquipmentTotal, &stats.ScrappedCount)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

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
