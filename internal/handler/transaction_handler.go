package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/service"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	sessions *service.SessionManager
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(sessions *service.SessionManager) *TransactionHandler {
	return &TransactionHandler{sessions: sessions}
}

// TransactionRequest represents the create/update transaction request body
type TransactionRequest struct {
	Amount            string  `json:"amount"`
	Description       string  `json:"description"`
	CategoryID        string  `json:"categoryId"`
	Date              string  `json:"date"`
	PaymentMethod     string  `json:"paymentMethod"`
	Recurring         bool    `json:"recurring"`
	RecurringInterval *string `json:"recurringInterval,omitempty"`
	Notes             *string `json:"notes,omitempty"`
}

func (r *TransactionRequest) toInput() (service.TransactionInput, *ValidationError) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return service.TransactionInput{}, &ValidationError{Field: "amount", Message: "Must be a valid decimal number"}
	}

	categoryID, err := uuid.Parse(r.CategoryID)
	if err != nil {
		return service.TransactionInput{}, &ValidationError{Field: "categoryId", Message: "Must be a valid category ID"}
	}

	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return service.TransactionInput{}, &ValidationError{Field: "date", Message: "Must be in YYYY-MM-DD format"}
	}

	var interval *domain.RecurringInterval
	if r.RecurringInterval != nil && *r.RecurringInterval != "" {
		iv := domain.RecurringInterval(strings.ToLower(*r.RecurringInterval))
		interval = &iv
	}

	return service.TransactionInput{
		Amount:            amount,
		Description:       r.Description,
		CategoryID:        categoryID,
		Date:              date,
		PaymentMethod:     domain.PaymentMethod(r.PaymentMethod),
		Recurring:         r.Recurring,
		RecurringInterval: interval,
		Notes:             r.Notes,
	}, nil
}

// GetTransactions godoc
// @Summary List transactions
// @Description Get transactions with optional filters
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Param categoryId query string false "Filter by category ID"
// @Param type query string false "Transaction type (income or expense)"
// @Param paymentMethod query string false "Filter by payment method"
// @Param search query string false "Free text search over description and notes"
// @Param minAmount query string false "Minimum amount"
// @Param maxAmount query string false "Maximum amount"
// @Success 200 {array} domain.Transaction
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /transactions [get]
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	filters, verr := parseTransactionFilters(c)
	if verr != nil {
		return NewValidationError(c, "Invalid filters", []ValidationError{*verr})
	}

	transactions, err := sess.Transactions(filters)
	if err != nil {
		return NewInternalError(c, "Failed to load transactions")
	}
	return c.JSON(http.StatusOK, transactions)
}

func parseTransactionFilters(c echo.Context) (domain.TransactionFilters, *ValidationError) {
	var filters domain.TransactionFilters

	if v := c.QueryParam("startDate"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filters, &ValidationError{Field: "startDate", Message: "Must be in YYYY-MM-DD format"}
		}
		filters.StartDate = &parsed
	}
	if v := c.QueryParam("endDate"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filters, &ValidationError{Field: "endDate", Message: "Must be in YYYY-MM-DD format"}
		}
		filters.EndDate = &parsed
	}
	if v := c.QueryParam("categoryId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filters, &ValidationError{Field: "categoryId", Message: "Must be a valid category ID"}
		}
		filters.CategoryIDs = []uuid.UUID{id}
	}
	if v := c.QueryParam("type"); v != "" {
		txType, ok := domain.ParseTransactionType(v)
		if !ok {
			return filters, &ValidationError{Field: "type", Message: "Type must be one of: income, expense"}
		}
		filters.Type = &txType
	}
	if v := c.QueryParam("paymentMethod"); v != "" {
		method := domain.PaymentMethod(v)
		if !domain.ValidPaymentMethod(method) {
			return filters, &ValidationError{Field: "paymentMethod", Message: "Unknown payment method"}
		}
		filters.PaymentMethods = []domain.PaymentMethod{method}
	}
	filters.SearchText = c.QueryParam("search")
	if v := c.QueryParam("minAmount"); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return filters, &ValidationError{Field: "minAmount", Message: "Must be a valid decimal number"}
		}
		filters.MinAmount = &amount
	}
	if v := c.QueryParam("maxAmount"); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return filters, &ValidationError{Field: "maxAmount", Message: "Must be a valid decimal number"}
		}
		filters.MaxAmount = &amount
	}

	return filters, nil
}

// CreateTransaction godoc
// @Summary Create a transaction
// @Description Create a new transaction. Recurring transactions require an interval.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "Transaction creation request"
// @Success 201 {object} domain.Transaction
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	transaction, err := sess.AddTransaction(input)
	if err != nil {
		return transactionErrorResponse(c, err, "Failed to create transaction")
	}

	log.Info().Str("transaction_id", transaction.ID.String()).Str("description", transaction.Description).Msg("Transaction created")
	return c.JSON(http.StatusCreated, transaction)
}

// UpdateTransaction godoc
// @Summary Update a transaction
// @Description Update an existing transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param request body TransactionRequest true "Transaction update request"
// @Success 200 {object} domain.Transaction
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	transaction, err := sess.UpdateTransaction(id, input)
	if err != nil {
		return transactionErrorResponse(c, err, "Failed to update transaction")
	}

	return c.JSON(http.StatusOK, transaction)
}

// DeleteTransaction godoc
// @Summary Delete a transaction
// @Description Delete an existing transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 204 "No Content"
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := sess.DeleteTransaction(id); err != nil {
		return transactionErrorResponse(c, err, "Failed to delete transaction")
	}

	return c.NoContent(http.StatusNoContent)
}

func transactionErrorResponse(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrDescriptionRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description is required"},
		})
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be greater than zero"},
		})
	case errors.Is(err, domain.ErrInvalidPaymentMethod):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "paymentMethod", Message: "Unknown payment method"},
		})
	case errors.Is(err, domain.ErrIntervalRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "recurringInterval", Message: "Recurring transactions require an interval"},
		})
	case errors.Is(err, domain.ErrIntervalNotAllowed):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "recurringInterval", Message: "Interval is only allowed on recurring transactions"},
		})
	case errors.Is(err, domain.ErrInvalidInterval):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "recurringInterval", Message: "Interval must be one of: daily, weekly, monthly, yearly"},
		})
	case errors.Is(err, domain.ErrCategoryRequired), errors.Is(err, domain.ErrCategoryNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category not found"},
		})
	case errors.Is(err, domain.ErrTransactionNotFound):
		return NewNotFoundError(c, "Transaction not found")
	case errors.Is(err, domain.ErrSessionNotReady):
		return NewInternalError(c, "Session is not ready")
	default:
		log.Error().Err(err).Msg(fallback)
		return NewInternalError(c, fallback)
	}
}
