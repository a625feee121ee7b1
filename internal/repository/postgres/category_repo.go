package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moneta-app/moneta-backend/internal/domain"
)

// foreignKeyViolation is the PostgreSQL error code raised by ON DELETE RESTRICT
const foreignKeyViolation = "23503"

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = `id, user_id, name, icon, color, type, created_at, updated_at`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	var rawType string
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color, &rawType, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	parsed, ok := domain.ParseTransactionType(rawType)
	if !ok {
		return nil, domain.ErrInvalidType
	}
	c.Type = parsed
	return &c, nil
}

// Create inserts a new category scoped to its user
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, icon, color, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		category.UserID, category.Name, category.Icon, category.Color, string(category.Type))
	return scanCategory(row)
}

// GetByID retrieves a category by id within a user's data
func (r *CategoryRepository) GetByID(userID, id uuid.UUID) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 AND id = $2`,
		userID, id)
	return scanCategory(row)
}

// GetAllByUser retrieves all categories for a user ordered by name
func (r *CategoryRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Category, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY name`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Update replaces a category's mutable fields, filtered by id and user id
func (r *CategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $3, icon = $4, color = $5, type = $6, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING `+categoryColumns,
		category.UserID, category.ID, category.Name, category.Icon, category.Color, string(category.Type))
	return scanCategory(row)
}

// Delete removes a category. The schema's ON DELETE RESTRICT backs up the
// application-level referential guard, so a row still referenced by a
// transaction or budget surfaces as ErrCategoryInUse.
func (r *CategoryRepository) Delete(userID, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM categories WHERE user_id = $1 AND id = $2`,
		userID, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return domain.ErrCategoryInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}
