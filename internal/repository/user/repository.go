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

func NewUserRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) Create(ctx context.Context, u *model.User) (uuid.UUID, error) {
	q := r.sb.
		Insert("users").
		Columns("email", "password_hash", "name", "role", "is_active").
		Values(u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive).
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

func (r *repository) ByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.one(ctx, sq.Eq{"id": id})
}

func (r *repository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.one(ctx, sq.Eq{"email": email})
}

func (r *repository) one(ctx context.Context, where sq.Eq) (*model.User, error) {
	q := r.sb.
		Select("id", "email", "password_hash", "name", "role", "is_active", "created_at", "updated_at").
		From("users").
		Where(where)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var u model.User
	err = r.pool.QueryRow(ctx, sqlStr, args...).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

func (r *repository) List(ctx context.Context) ([]model.User, error) {
	q := r.sb.
		Select("id", "email", "password_hash", "name", "role", "is_active", "created_at", "updated_at").
		From("users").
		OrderBy("created_at DESC")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.Name,
			&u.Role,
			&u.IsActive,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *repository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	return r.update(ctx, id, sq.Eq{"role": role})
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.update(ctx, id, sq.Eq{"is_active": active})
}

func (r *repository) update(ctx context.Context, id uuid.UUID, set sq.Eq) error {
	set["updated_at"] = sq.Expr("now()")

	q := r.sb.
		Update("users").
		SetMap(set).
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
		return model.ErrUserNotFound
	}

	return nil
}

// CountActiveAdminsExcept counts active administrators other than the given
// user. Used to keep at least one active administrator in the system.
func (r *repository) CountActiveAdminsExcept(ctx context.Context, id uuid.UUID) (int64, error) {
	q := r.sb.
		Select("count(*)").
		From("users").
		Where(sq.Eq{"role": model.RoleAdmin, "is_active": true}).
		Where(sq.NotEq{"id": id})

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
