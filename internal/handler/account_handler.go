package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/service"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	sessions *service.SessionManager
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(sessions *service.SessionManager) *AccountHandler {
	return &AccountHandler{sessions: sessions}
}

// AccountRequest represents the create/update account request body
type AccountRequest struct {
	Name     string `json:"name"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
	Color    string `json:"color"`
}

// SelectAccountRequest represents the current account selection body
type SelectAccountRequest struct {
	AccountID string `json:"accountId"`
}

func (r *AccountRequest) toInput() (service.AccountInput, *ValidationError) {
	balance := decimal.Zero
	if r.Balance != "" {
		parsed, err := decimal.NewFromString(r.Balance)
		if err != nil {
			return service.AccountInput{}, &ValidationError{Field: "balance", Message: "Must be a valid decimal number"}
		}
		balance = parsed
	}
	return service.AccountInput{
		Name:     r.Name,
		Balance:  balance,
		Currency: r.Currency,
		Color:    r.Color,
	}, nil
}

// GetAccounts godoc
// @Summary List accounts
// @Description Get all accounts for the authenticated user
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Account
// @Failure 401 {object} ProblemDetails
// @Router /accounts [get]
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	accounts, err := sess.Accounts()
	if err != nil {
		return NewInternalError(c, "Failed to load accounts")
	}
	return c.JSON(http.StatusOK, accounts)
}

// CreateAccount godoc
// @Summary Create an account
// @Description Create a new account with an initial balance
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AccountRequest true "Account creation request"
// @Success 201 {object} domain.Account
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req AccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	account, err := sess.AddAccount(input)
	if err != nil {
		return accountErrorResponse(c, err, "Failed to create account")
	}

	log.Info().Str("account_id", account.ID.String()).Str("name", account.Name).Msg("Account created")
	return c.JSON(http.StatusCreated, account)
}

// UpdateAccount godoc
// @Summary Update an account
// @Description Update an account, including direct balance adjustments
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param request body AccountRequest true "Account update request"
// @Success 200 {object} domain.Account
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	var req AccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	account, err := sess.UpdateAccount(id, input)
	if err != nil {
		return accountErrorResponse(c, err, "Failed to update account")
	}

	return c.JSON(http.StatusOK, account)
}

// DeleteAccount godoc
// @Summary Delete an account
// @Description Delete an account. The last remaining account cannot be deleted.
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 204 "No Content"
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	if err := sess.DeleteAccount(id); err != nil {
		if errors.Is(err, domain.ErrLastAccount) {
			return NewConflictError(c, "Cannot delete the only account")
		}
		return accountErrorResponse(c, err, "Failed to delete account")
	}

	return c.NoContent(http.StatusNoContent)
}

// GetCurrentAccount godoc
// @Summary Get the current account
// @Description Get the account currently selected for this session
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Account
// @Failure 404 {object} ProblemDetails
// @Router /accounts/current [get]
func (h *AccountHandler) GetCurrentAccount(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	account, err := sess.CurrentAccount()
	if err != nil {
		return accountErrorResponse(c, err, "Failed to load current account")
	}
	if account == nil {
		return NewNotFoundError(c, "No account selected")
	}
	return c.JSON(http.StatusOK, account)
}

// SelectCurrentAccount godoc
// @Summary Select the current account
// @Description Select which account the session treats as current. The selection is not persisted.
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SelectAccountRequest true "Account selection request"
// @Success 200 {object} domain.Account
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /accounts/current [put]
func (h *AccountHandler) SelectCurrentAccount(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req SelectAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	id, err := uuid.Parse(req.AccountID)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "accountId", Message: "Must be a valid account ID"},
		})
	}

	if err := sess.SetCurrentAccount(id); err != nil {
		return accountErrorResponse(c, err, "Failed to select account")
	}

	account, err := sess.CurrentAccount()
	if err != nil {
		return accountErrorResponse(c, err, "Failed to load current account")
	}
	return c.JSON(http.StatusOK, account)
}

func accountErrorResponse(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrCurrencyRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "currency", Message: "Currency is required"},
		})
	case errors.Is(err, domain.ErrAccountNotFound):
		return NewNotFoundError(c, "Account not found")
	case errors.Is(err, domain.ErrSessionNotReady):
		return NewInternalError(c, "Session is not ready")
	default:
		log.Error().Err(err).Msg(fallback)
		return NewInternalError(c, fallback)
	}
}
