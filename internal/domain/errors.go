package domain

import "errors"

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInternalError       = errors.New("internal error")
	ErrUserNotFound        = errors.New("user not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrAccountNotFound     = errors.New("account not found")

	ErrNameRequired        = errors.New("name is required")
	ErrNameTooLong         = errors.New("name exceeds maximum length")
	ErrDescriptionRequired = errors.New("description is required")
	ErrDescriptionTooLong  = errors.New("description exceeds maximum length")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidType         = errors.New("type must be income or expense")
	ErrInvalidPeriod       = errors.New("invalid budget period")
	ErrInvalidInterval     = errors.New("invalid recurring interval")
	ErrIntervalRequired    = errors.New("recurring interval is required for recurring transactions")
	ErrIntervalNotAllowed  = errors.New("recurring interval set on a non-recurring transaction")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrCategoryRequired    = errors.New("category is required")
	ErrCurrencyRequired    = errors.New("currency is required")
	ErrInvalidDateRange    = errors.New("start date must not be after end date")

	ErrCategoryInUse = errors.New("category is referenced by transactions or budgets")
	ErrLastAccount   = errors.New("cannot delete the only account")

	ErrSessionNotReady = errors.New("finance session is not ready")
)

// Validation constants
const (
	MaxCategoryNameLength = 100
	MaxAccountNameLength  = 255
	MaxDescriptionLength  = 255
)
