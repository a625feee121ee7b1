package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// ParseTransactionType normalizes a stored type value. Older rows carry the
// type in upper case, so case normalization happens in exactly one place.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(strings.ToLower(s)) {
	case TransactionTypeIncome:
		return TransactionTypeIncome, true
	case TransactionTypeExpense:
		return TransactionTypeExpense, true
	}
	return "", false
}

// Category classifies a transaction as income or expense and carries the
// display glyph and color chosen by the user.
type Category struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Name      string          `json:"name"`
	Icon      string          `json:"icon"`
	Color     string          `json:"color"`
	Type      TransactionType `json:"type"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(userID, id uuid.UUID) (*Category, error)
	GetAllByUser(userID uuid.UUID) ([]*Category, error)
	Update(category *Category) (*Category, error)
	Delete(userID, id uuid.UUID) error
}
