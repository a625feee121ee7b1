package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moneta-app/moneta-backend/internal/domain"
)

// BudgetRepository implements domain.BudgetRepository using PostgreSQL
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

const budgetColumns = `id, user_id, category_id, amount, period, start_date, end_date, created_at, updated_at`

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var b domain.Budget
	var amount pgtype.Numeric
	var startDate, endDate pgtype.Date
	var rawPeriod string

	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &amount, &rawPeriod,
		&startDate, &endDate, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}

	b.Amount = pgNumericToDecimal(amount)
	b.Period = domain.BudgetPeriod(rawPeriod)
	b.StartDate = startDate.Time
	if endDate.Valid {
		end := endDate.Time
		b.EndDate = &end
	}
	return &b, nil
}

// Create inserts a budget scoped to its user
func (r *BudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(budget.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var endDate pgtype.Date
	if budget.EndDate != nil {
		endDate = pgtype.Date{Time: *budget.EndDate, Valid: true}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO budgets (user_id, category_id, amount, period, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+budgetColumns,
		budget.UserID, budget.CategoryID, amount, string(budget.Period),
		pgtype.Date{Time: budget.StartDate, Valid: true}, endDate)
	return scanBudget(row)
}

// GetByID retrieves a budget by id within a user's data
func (r *BudgetRepository) GetByID(userID, id uuid.UUID) (*domain.Budget, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND id = $2`,
		userID, id)
	return scanBudget(row)
}

// GetAllByUser retrieves all budgets for a user, newest first
func (r *BudgetRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Budget, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := make([]*domain.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// Update replaces a budget's fields, filtered by id and user id
func (r *BudgetRepository) Update(budget *domain.Budget) (*domain.Budget, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(budget.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var endDate pgtype.Date
	if budget.EndDate != nil {
		endDate = pgtype.Date{Time: *budget.EndDate, Valid: true}
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE budgets
		SET category_id = $3, amount = $4, period = $5, start_date = $6, end_date = $7, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING `+budgetColumns,
		budget.UserID, budget.ID, budget.CategoryID, amount, string(budget.Period),
		pgtype.Date{Time: budget.StartDate, Valid: true}, endDate)
	return scanBudget(row)
}

// Delete removes a budget scoped by user id
func (r *BudgetRepository) Delete(userID, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM budgets WHERE user_id = $1 AND id = $2`,
		userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}
