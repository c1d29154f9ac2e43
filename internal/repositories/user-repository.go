package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	apperrors "delivery-system/pkg/errors"
)

const userTable = "users"

const userSelectFields = `id, email, full_name, phone, role, avatar_url, is_active, password_hash, created_at, updated_at`

var userUpdatableColumns = map[string]bool{
	"full_name": true, "phone": true, "role": true, "avatar_url": true, "password_hash": true,
}

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, role string, onlyActive bool, search string) ([]entities.User, error)
	FindUser(ctx context.Context, id string) (*entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
	CreateUser(ctx context.Context, user *entities.User) (*entities.User, error)
	UpdateUserFields(ctx context.Context, id string, updates map[string]interface{}) error
	SetActive(ctx context.Context, id string, active bool) error
	GetActiveUserIDs(ctx context.Context) ([]string, error)
	GetAdminIDs(ctx context.Context) ([]string, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Role,
		&u.AvatarURL, &u.IsActive, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetUsers(ctx context.Context, role string, onlyActive bool, search string) ([]entities.User, error) {
	qb := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(userSelectFields).From(userTable).OrderBy("full_name ASC")
	if role != "" {
		qb = qb.Where(sq.Eq{"role": role})
	}
	if onlyActive {
		qb = qb.Where(sq.Eq{"is_active": true})
	}
	if search != "" {
		pattern := "%" + search + "%"
		qb = qb.Where(sq.Or{sq.ILike{"full_name": pattern}, sq.ILike{"email": pattern}})
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) FindUser(ctx context.Context, id string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", userSelectFields, userTable)
	return scanUser(r.storage.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE lower(email) = lower($1)", userSelectFields, userTable)
	return scanUser(r.storage.QueryRow(ctx, query, email))
}

func (r *UserRepository) CreateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, full_name, phone, role, avatar_url, is_active, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, userTable, userSelectFields)

	created, err := scanUser(r.storage.QueryRow(ctx, query,
		user.ID, user.Email, user.FullName, user.Phone, user.Role,
		user.AvatarURL, user.IsActive, user.PasswordHash,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) UpdateUserFields(ctx context.Context, id string, updates map[string]interface{}) error {
	setMap := make(map[string]interface{}, len(updates))
	for column, value := range updates {
		if !userUpdatableColumns[column] {
			return apperrors.NewValidationError("field %q cannot be updated", column)
		}
		setMap[column] = value
	}
	setMap["updated_at"] = sq.Expr("now()")

	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update(userTable).SetMap(setMap).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := fmt.Sprintf("UPDATE %s SET is_active = $2, updated_at = now() WHERE id = $1", userTable)
	tag, err := r.storage.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) GetActiveUserIDs(ctx context.Context) ([]string, error) {
	return r.selectIDs(ctx, fmt.Sprintf("SELECT id FROM %s WHERE is_active = true", userTable))
}

func (r *UserRepository) GetAdminIDs(ctx context.Context) ([]string, error) {
	return r.selectIDs(ctx, fmt.Sprintf("SELECT id FROM %s WHERE is_active = true AND role = 'admin'", userTable))
}

func (r *UserRepository) selectIDs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select user ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
