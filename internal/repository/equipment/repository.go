package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/you-humble/gearguard/internal/model"
)

const uniqueViolation = "23505"

var equipmentColumns = []string{
	"id", "name", "serial_number", "category", "department", "location",
	"purchase_date", "warranty_expiry", "assigned_to_id", "default_team_id",
	"is_scrap", "created_at", "updated_at",
}

type repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

func NewEquipmentRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) Create(ctx context.Context, e *model.Equipment) (uuid.UUID, error) {
	q := r.sb.
		Insert("equipment").
		Columns("name", "serial_number", "category", "department", "location",
			"purchase_date", "warranty_expiry", "assigned_to_id", "default_team_id", "is_scrap").
		Values(e.Name, e.SerialNumber, e.Category, e.Department, e.Location,
			e.PurchaseDate, e.WarrantyExpiry, e.AssignedToID, e.DefaultTeamID, e.IsScrap).
		Suffix("RETURNING id")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return uuid.Nil, model.ErrConflict
		}
		return uuid.Nil, err
	}

	return id, nil
}

func (r *repository) ByID(ctx context.Context, id uuid.UUID) (*model.Equipment, error) {
	q := r.sb.
		Select(equipmentColumns...).
		From("equipment").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	e, err := scanEquipment(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrEquipmentNotFound
		}
		return nil, err
	}

	return e, nil
}

func (r *repository) List(ctx context.Context) ([]model.Equipment, error) {
	q := r.sb.
		Select(equipmentColumns...).
		From("equipment").
		OrderBy("name ASC")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}

	return items, rows.Err()
}

func (r *repository) Update(ctx context.Context, e *model.Equipment) error {
	q := r.sb.
		Update("equipment").
		SetMap(sq.Eq{
			"name":            e.Name,
			"category":        e.Category,
			"department":      e.Department,
			"location":        e.Location,
			"purchase_date":   e.PurchaseDate,
			"warranty_expiry": e.WarrantyExpiry,
			"assigned_to_id":  e.AssignedToID,
			"default_team_id": e.DefaultTeamID,
			"updated_at":      sq.Expr("now()"),
		}).
		Where(sq.Eq{"id": e.ID})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	ct, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrEquipmentNotFound
	}

	return nil
}

// MarkScrap retires the equipment. Safe to call on already-scrapped items.
func (r *repository) MarkScrap(ctx context.Context, id uuid.UUID) error {
	q := r.sb.
		Update("equipment").
		SetMap(sq.Eq{
			"is_scrap":   true,
			"updated_at": sq.Expr("now()"),
		}).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	ct, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrEquipmentNotFound
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	q := r.sb.
		Delete("equipment").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	ct, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrEquipmentNotFound
	}

	return nil
}

// CountActiveRequests counts non-terminal requests referencing the equipment.
func (r *repository) CountActiveRequests(ctx context.Context, id uuid.UUID) (int64, error) {
	q := r.sb.
		Select("count(*)").
		From("maintenance_requests").
		Where(sq.Eq{"equipment_id": id}).
		Where(sq.Eq{"status": []model.RequestStatus{model.StatusNew, model.StatusInProgress}})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

// Stats aggregates the maintenance history of one equipment item.
func (r *repository) Stats(ctx context.Context, id uuid.UUID) (*model.EquipmentStats, error) {
	const query = `
SELECT
	count(*),
	count(*) FILTER (WHERE status IN ('NEW', 'IN_PROGRESS')),
	avg(duration_hours) FILTER (WHERE status = 'REPAIRED')
FROM maintenance_requests
WHERE equipment_id = $1`

	var stats model.EquipmentStats
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&stats.TotalRequests,
		&stats.OpenRequests,
		&stats.AverageDurationHrs,
	)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func scanEquipment(row pgx.Row) (*model.Equipment, error) {
	var e model.Equipment
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.SerialNumber,
		&e.Category,
		&e.Department,
		&e.Location,
		&e.PurchaseDate,
		&e.WarrantyExpiry,
		&e.AssignedToID,
		&e.DefaultTeamID,
		&e.IsScrap,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &e, nil
}
