package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/service"
)

// BudgetHandler handles budget-related HTTP requests
type BudgetHandler struct {
	sessions *service.SessionManager
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(sessions *service.SessionManager) *BudgetHandler {
	return &BudgetHandler{sessions: sessions}
}

// BudgetRequest represents the create/update budget request body
type BudgetRequest struct {
	CategoryID string  `json:"categoryId"`
	Amount     string  `json:"amount"`
	Period     string  `json:"period"`
	StartDate  string  `json:"startDate"`
	EndDate    *string `json:"endDate,omitempty"`
}

func (r *BudgetRequest) toInput() (service.BudgetInput, *ValidationError) {
	categoryID, err := uuid.Parse(r.CategoryID)
	if err != nil {
		return service.BudgetInput{}, &ValidationError{Field: "categoryId", Message: "Must be a valid category ID"}
	}

	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return service.BudgetInput{}, &ValidationError{Field: "amount", Message: "Must be a valid decimal number"}
	}

	startDate, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return service.BudgetInput{}, &ValidationError{Field: "startDate", Message: "Must be in YYYY-MM-DD format"}
	}

	var endDate *time.Time
	if r.EndDate != nil && *r.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", *r.EndDate)
		if err != nil {
			return service.BudgetInput{}, &ValidationError{Field: "endDate", Message: "Must be in YYYY-MM-DD format"}
		}
		endDate = &parsed
	}

	return service.BudgetInput{
		CategoryID: categoryID,
		Amount:     amount,
		Period:     domain.BudgetPeriod(r.Period),
		StartDate:  startDate,
		EndDate:    endDate,
	}, nil
}

// GetBudgets godoc
// @Summary List budgets
// @Description Get all budgets for the authenticated user
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Budget
// @Failure 401 {object} ProblemDetails
// @Router /budgets [get]
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	budgets, err := sess.Budgets()
	if err != nil {
		return NewInternalError(c, "Failed to load budgets")
	}
	return c.JSON(http.StatusOK, budgets)
}

// CreateBudget godoc
// @Summary Create a budget
// @Description Create a budget for a category
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetRequest true "Budget creation request"
// @Success 201 {object} domain.Budget
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /budgets [post]
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req BudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	budget, err := sess.AddBudget(input)
	if err != nil {
		return budgetErrorResponse(c, err, "Failed to create budget")
	}

	log.Info().Str("budget_id", budget.ID.String()).Str("category_id", budget.CategoryID.String()).Msg("Budget created")
	return c.JSON(http.StatusCreated, budget)
}

// UpdateBudget godoc
// @Summary Update a budget
// @Description Update an existing budget
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Budget ID"
// @Param request body BudgetRequest true "Budget update request"
// @Success 200 {object} domain.Budget
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	var req BudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	budget, err := sess.UpdateBudget(id, input)
	if err != nil {
		return budgetErrorResponse(c, err, "Failed to update budget")
	}

	return c.JSON(http.StatusOK, budget)
}

// DeleteBudget godoc
// @Summary Delete a budget
// @Description Delete an existing budget
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Budget ID"
// @Success 204 "No Content"
// @Failure 404 {object} ProblemDetails
// @Router /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	if err := sess.DeleteBudget(id); err != nil {
		return budgetErrorResponse(c, err, "Failed to delete budget")
	}

	return c.NoContent(http.StatusNoContent)
}

func budgetErrorResponse(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be greater than zero"},
		})
	case errors.Is(err, domain.ErrInvalidPeriod):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "period", Message: "Period must be one of: daily, weekly, monthly, yearly"},
		})
	case errors.Is(err, domain.ErrInvalidDateRange):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "endDate", Message: "End date must not be before start date"},
		})
	case errors.Is(err, domain.ErrCategoryRequired), errors.Is(err, domain.ErrCategoryNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category not found"},
		})
	case errors.Is(err, domain.ErrBudgetNotFound):
		return NewNotFoundError(c, "Budget not found")
	case errors.Is(err, domain.ErrSessionNotReady):
		return NewInternalError(c, "Session is not ready")
	default:
		log.Error().Err(err).Msg(fallback)
		return NewInternalError(c, fallback)
	}
}
