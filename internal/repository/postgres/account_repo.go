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

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, user_id, name, balance, currency, color, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var balance pgtype.Numeric
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &balance, &a.Currency, &a.Color, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	a.Balance = pgNumericToDecimal(balance)
	return &a, nil
}

// Create inserts an account scoped to its user
func (r *AccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	ctx := context.Background()

	balance, err := decimalToPgNumeric(account.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (user_id, name, balance, currency, color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+accountColumns,
		account.UserID, account.Name, balance, account.Currency, account.Color)
	return scanAccount(row)
}

// GetByID retrieves an account by id within a user's data
func (r *AccountRepository) GetByID(userID, id uuid.UUID) (*domain.Account, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND id = $2`,
		userID, id)
	return scanAccount(row)
}

// GetAllByUser retrieves all accounts for a user in creation order
func (r *AccountRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Account, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Update replaces an account's fields, filtered by id and user id
func (r *AccountRepository) Update(account *domain.Account) (*domain.Account, error) {
	ctx := context.Background()

	balance, err := decimalToPgNumeric(account.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET name = $3, balance = $4, currency = $5, color = $6, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING `+accountColumns,
		account.UserID, account.ID, account.Name, balance, account.Currency, account.Color)
	return scanAccount(row)
}

// Delete removes an account scoped by user id
func (r *AccountRepository) Delete(userID, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM accounts WHERE user_id = $1 AND id = $2`,
		userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
