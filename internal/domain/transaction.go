package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCreditCard    PaymentMethod = "creditCard"
	PaymentMethodDebitCard     PaymentMethod = "debitCard"
	PaymentMethodBankTransfer  PaymentMethod = "bankTransfer"
	PaymentMethodMobilePayment PaymentMethod = "mobilePayment"
	PaymentMethodOther         PaymentMethod = "other"
)

// ValidPaymentMethod reports whether m is one of the supported payment methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard,
		PaymentMethodBankTransfer, PaymentMethodMobilePayment, PaymentMethodOther:
		return true
	}
	return false
}

type RecurringInterval string

const (
	IntervalDaily   RecurringInterval = "daily"
	IntervalWeekly  RecurringInterval = "weekly"
	IntervalMonthly RecurringInterval = "monthly"
	IntervalYearly  RecurringInterval = "yearly"
)

// ValidRecurringInterval reports whether i is a supported interval.
func ValidRecurringInterval(i RecurringInterval) bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

// Transaction is a single income or expense entry. The category is an embedded
// snapshot joined from the categories table; its Type determines whether the
// amount counts as income or expense.
type Transaction struct {
	ID                uuid.UUID          `json:"id"`
	UserID            uuid.UUID          `json:"userId"`
	Amount            decimal.Decimal    `json:"amount"`
	Description       string             `json:"description"`
	Category          Category           `json:"category"`
	Date              time.Time          `json:"date"`
	PaymentMethod     PaymentMethod      `json:"paymentMethod"`
	Recurring         bool               `json:"recurring"`
	RecurringInterval *RecurringInterval `json:"recurringInterval,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
	ReceiptURL        *string            `json:"receiptUrl,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// TransactionFilters narrows an in-memory transaction list. Zero values mean
// "no constraint" for every field.
type TransactionFilters struct {
	StartDate      *time.Time
	EndDate        *time.Time
	CategoryIDs    []uuid.UUID
	PaymentMethods []PaymentMethod
	Type           *TransactionType
	SearchText     string
	MinAmount      *decimal.Decimal
	MaxAmount      *decimal.Decimal
}

// FilterTransactions applies filters to a transaction list. It never mutates
// its input and always returns a fresh slice.
func FilterTransactions(transactions []*Transaction, filters TransactionFilters) []*Transaction {
	result := make([]*Transaction, 0, len(transactions))
	for _, t := range transactions {
		if filters.StartDate != nil && t.Date.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && t.Date.After(*filters.EndDate) {
			continue
		}
		if len(filters.CategoryIDs) > 0 && !containsID(filters.CategoryIDs, t.Category.ID) {
			continue
		}
		if len(filters.PaymentMethods) > 0 && !containsMethod(filters.PaymentMethods, t.PaymentMethod) {
			continue
		}
		if filters.Type != nil && t.Category.Type != *filters.Type {
			continue
		}
		if filters.SearchText != "" && !matchesSearch(t, filters.SearchText) {
			continue
		}
		if filters.MinAmount != nil && t.Amount.LessThan(*filters.MinAmount) {
			continue
		}
		if filters.MaxAmount != nil && t.Amount.GreaterThan(*filters.MaxAmount) {
			continue
		}
		result = append(result, t)
	}
	return result
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func containsMethod(methods []PaymentMethod, m PaymentMethod) bool {
	for _, candidate := range methods {
		if candidate == m {
			return true
		}
	}
	return false
}

func matchesSearch(t *Transaction, search string) bool {
	search = strings.ToLower(search)
	if strings.Contains(strings.ToLower(t.Description), search) {
		return true
	}
	return t.Notes != nil && strings.Contains(strings.ToLower(*t.Notes), search)
}

type TransactionRepository interface {
	Create(transaction *Transaction) (*Transaction, error)
	GetByID(userID, id uuid.UUID) (*Transaction, error)
	GetAllByUser(userID uuid.UUID) ([]*Transaction, error)
	Update(transaction *Transaction) (*Transaction, error)
	Delete(userID, id uuid.UUID) error
	SetReceiptURL(userID, id uuid.UUID, url *string) (*Transaction, error)
	ListRecurring() ([]*Transaction, error)
	HasOccurrence(userID, categoryID uuid.UUID, description string, date time.Time) (bool, error)
}
