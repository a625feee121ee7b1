package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moneta-app/moneta-backend/internal/domain"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Every read joins the category row so the domain transaction always carries
// its embedded category snapshot.
const transactionSelect = `
	SELECT t.id, t.user_id, t.amount, t.description, t.date, t.payment_method,
	       t.recurring, t.recurring_interval, t.notes, t.receipt_image_url,
	       t.created_at, t.updated_at,
	       c.id, c.user_id, c.name, c.icon, c.color, c.type, c.created_at, c.updated_at
	FROM transactions t
	JOIN categories c ON c.id = t.category_id`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var amount pgtype.Numeric
	var date pgtype.Date
	var rawMethod string
	var rawInterval, notes, receiptURL *string
	var rawCategoryType string

	err := row.Scan(
		&t.ID, &t.UserID, &amount, &t.Description, &date, &rawMethod,
		&t.Recurring, &rawInterval, &notes, &receiptURL,
		&t.CreatedAt, &t.UpdatedAt,
		&t.Category.ID, &t.Category.UserID, &t.Category.Name, &t.Category.Icon,
		&t.Category.Color, &rawCategoryType, &t.Category.CreatedAt, &t.Category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	t.Amount = pgNumericToDecimal(amount)
	t.Date = date.Time
	t.PaymentMethod = domain.PaymentMethod(rawMethod)
	if rawInterval != nil {
		interval := domain.RecurringInterval(*rawInterval)
		t.RecurringInterval = &interval
	}
	t.Notes = notes
	t.ReceiptURL = receiptURL

	categoryType, ok := domain.ParseTransactionType(rawCategoryType)
	if !ok {
		return nil, domain.ErrInvalidType
	}
	t.Category.Type = categoryType
	return &t, nil
}

// Create inserts a transaction and returns it with the embedded category
// snapshot re-read from the store.
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var interval *string
	if transaction.RecurringInterval != nil {
		s := string(*transaction.RecurringInterval)
		interval = &s
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx, `
		INSERT INTO transactions
			(user_id, category_id, amount, description, date, payment_method,
			 recurring, recurring_interval, notes, receipt_image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		transaction.UserID, transaction.Category.ID, amount, transaction.Description,
		pgtype.Date{Time: transaction.Date, Valid: true}, string(transaction.PaymentMethod),
		transaction.Recurring, interval, transaction.Notes, transaction.ReceiptURL,
	).Scan(&id)
	if err != nil {
		return nil, err
	}

	return r.GetByID(transaction.UserID, id)
}

// GetByID retrieves a transaction by id within a user's data
func (r *TransactionRepository) GetByID(userID, id uuid.UUID) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		transactionSelect+` WHERE t.user_id = $1 AND t.id = $2`,
		userID, id)
	return scanTransaction(row)
}

// GetAllByUser retrieves all of a user's transactions, newest first
func (r *TransactionRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Transaction, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		transactionSelect+` WHERE t.user_id = $1 ORDER BY t.date DESC, t.created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// Update replaces a transaction's fields, filtered by id and user id
func (r *TransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var interval *string
	if transaction.RecurringInterval != nil {
		s := string(*transaction.RecurringInterval)
		interval = &s
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET category_id = $3, amount = $4, description = $5, date = $6,
		    payment_method = $7, recurring = $8, recurring_interval = $9,
		    notes = $10, receipt_image_url = $11, updated_at = now()
		WHERE user_id = $1 AND id = $2`,
		transaction.UserID, transaction.ID, transaction.Category.ID, amount,
		transaction.Description, pgtype.Date{Time: transaction.Date, Valid: true},
		string(transaction.PaymentMethod), transaction.Recurring, interval,
		transaction.Notes, transaction.ReceiptURL)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrTransactionNotFound
	}

	return r.GetByID(transaction.UserID, transaction.ID)
}

// Delete removes a transaction scoped by user id
func (r *TransactionRepository) Delete(userID, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM transactions WHERE user_id = $1 AND id = $2`,
		userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// SetReceiptURL attaches or clears the receipt image reference
func (r *TransactionRepository) SetReceiptURL(userID, id uuid.UUID, url *string) (*domain.Transaction, error) {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions SET receipt_image_url = $3, updated_at = now()
		WHERE user_id = $1 AND id = $2`,
		userID, id, url)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrTransactionNotFound
	}
	return r.GetByID(userID, id)
}

// ListRecurring returns every recurring transaction across all users. Used by
// the materialization worker.
func (r *TransactionRepository) ListRecurring() ([]*domain.Transaction, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		transactionSelect+` WHERE t.recurring ORDER BY t.user_id, t.date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// HasOccurrence reports whether a transaction with the same category,
// description and date already exists. Guards against double materialization.
func (r *TransactionRepository) HasOccurrence(userID, categoryID uuid.UUID, description string, date time.Time) (bool, error) {
	ctx := context.Background()
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE user_id = $1 AND category_id = $2 AND description = $3 AND date = $4
		)`,
		userID, categoryID, description, pgtype.Date{Time: date, Valid: true}).Scan(&exists)
	return exists, err
}
