package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a financial account with an independently tracked balance. The
// balance is an adjustable ledger value, not a sum of transactions.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Color     string          `json:"color"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type AccountRepository interface {
	Create(account *Account) (*Account, error)
	GetByID(userID, id uuid.UUID) (*Account, error)
	GetAllByUser(userID uuid.UUID) ([]*Account, error)
	Update(account *Account) (*Account, error)
	Delete(userID, id uuid.UUID) error
}
