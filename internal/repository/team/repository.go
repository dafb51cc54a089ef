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

type repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

func NewTeamRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) Create(ctx context.Context, t *model.Team) (uuid.UUID, error) {
	q := r.sb.
		Insert("maintenance_teams").
		Columns("name", "description", "is_active").
		Values(t.Name, t.Description, t.IsActive).
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

func (r *repository) ByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	q := r.sb.
		Select("id", "name", "description", "is_active", "created_at", "updated_at").
		From("maintenance_teams").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var t model.Team
	err = r.pool.QueryRow(ctx, sqlStr, args...).Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTeamNotFound
		}
		return nil, err
	}

	return &t, nil
}

func (r *repository) List(ctx context.Context) ([]model.Team, error) {
	q := r.sb.
		Select("id", "name", "description", "is_active", "created_at", "updated_at").
		From("maintenance_teams").
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

	var teams []model.Team
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Description,
			&t.IsActive,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}

func (r *repository) Update(ctx context.Context, t *model.Team) error {
	q := r.sb.
		Update("maintenance_teams").
		SetMap(sq.Eq{
			"name":        t.Name,
			"description": t.Description,
			"is_active":   t.IsActive,
			"updated_at":  sq.Expr("now()"),
		}).
		Where(sq.Eq{"id": t.ID})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	ct, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrConflict
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrTeamNotFound
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	q := r.sb.
		Delete("maintenance_teams").
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
		return model.ErrTeamNotFound
	}

	return nil
}

// AddMember is idempotent: adding an existing member is a no-op.
func (r *repository) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	q := r.sb.
		Insert("team_members").
		Columns("team_id", "user_id").
		Values(teamID, userID).
		Suffix("ON CONFLICT DO NOTHING")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, sqlStr, args...)
	return err
}

func (r *repository) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	q := r.sb.
		Delete("team_members").
		Where(sq.Eq{"team_id": teamID, "user_id": userID})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, sqlStr, args...)
	return err
}

func (r *repository) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	q := r.sb.
		Select("1").
		From("team_members").
		Where(sq.Eq{"team_id": teamID, "user_id": userID})

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

func (r *repository) TeamIDsForMember(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	q := r.sb.
		Select("team_id").
		From("team_members").
		Where(sq.Eq{"user_id": userID})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *repository) Members(ctx context.Context, teamID uuid.UUID) ([]model.UserSummary, error) {
	q := r.sb.
		Select("u.id", "u.name", "u.email", "u.role").
		From("team_members tm").
		Join("users u ON u.id = tm.user_id").
		Where(sq.Eq{"tm.team_id": teamID}).
		OrderBy("u.name ASC")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []model.UserSummary
	for rows.Next() {
		var m model.UserSummary
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// CountActiveRequests counts non-terminal requests routed to the team.
func (r *repository) CountActiveRequests(ctx context.Context, teamID uuid.UUID) (int64, error) {
	q := r.sb.
		Select("count(*)").
		From("maintenance_requests").
		Where(sq.Eq{"team_id": teamID}).
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
