package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medipro/backend/domain"
	"github.com/medipro/backend/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates the Postgres-backed user directory.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, principal_id, email, display_name, role, active, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByPrincipal(ctx context.Context, principalID string) (*domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE principal_id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, principalID))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY email
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		var displayName *string
		if err := rows.Scan(&user.ID, &user.PrincipalID, &user.Email, &displayName,
			&user.Role, &user.Active, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		if displayName != nil {
			user.DisplayName = *displayName
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO users (id, principal_id, email, display_name, role, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), NOW())
	ON CONFLICT (id) DO UPDATE
	SET principal_id = EXCLUDED.principal_id,
		email = EXCLUDED.email,
		display_name = EXCLUDED.display_name,
		role = EXCLUDED.role,
		active = EXCLUDED.active,
		updated_at = NOW()
	RETURNING created_at, updated_at;
	`

	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.PrincipalID,
		user.Email,
		nullString(user.DisplayName),
		user.Role,
		user.Active,
		nullTime(user.CreatedAt),
	).Scan(&createdAt, &updatedAt); err != nil {
		return err
	}

	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return nil
}

func (r *userRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidPayload
	}
	return r.exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, string(role))
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, `UPDATE users SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
}

func (r *userRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var displayName *string

	if err := row.Scan(&user.ID, &user.PrincipalID, &user.Email, &displayName,
		&user.Role, &user.Active, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if displayName != nil {
		user.DisplayName = *displayName
	}
	return &user, nil
}
