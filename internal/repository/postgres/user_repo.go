package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moneta-app/moneta-backend/internal/domain"
)

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, subject_id, email, name, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.SubjectID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetBySubject retrieves a user by JWT subject
func (r *UserRepository) GetBySubject(subjectID string) (*domain.User, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE subject_id = $1`, subjectID)
	return scanUser(row)
}

// CreateOrGetBySubject inserts the user on first sign-in and returns the
// existing row on every subsequent call.
func (r *UserRepository) CreateOrGetBySubject(subjectID, email string, name *string) (*domain.User, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (subject_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject_id) DO UPDATE SET email = EXCLUDED.email, updated_at = now()
		RETURNING `+userColumns,
		subjectID, email, name)
	return scanUser(row)
}

// UpdateName updates only the user's display name
func (r *UserRepository) UpdateName(subjectID string, name string) (*domain.User, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, updated_at = now()
		WHERE subject_id = $1
		RETURNING `+userColumns,
		subjectID, name)
	return scanUser(row)
}
