package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/middleware"
	"github.com/moneta-app/moneta-backend/internal/service"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	sessions *service.SessionManager
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(sessions *service.SessionManager) *CategoryHandler {
	return &CategoryHandler{sessions: sessions}
}

// CategoryRequest represents the create/update category request body
type CategoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Type  string `json:"type"`
}

// sessionFor resolves the caller's finance session. The second return is
// false when the request carries no authenticated user; callers respond
// with unauthorized themselves.
func sessionFor(c echo.Context, sessions *service.SessionManager) (*service.FinanceSession, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return nil, false
	}
	return sessions.Session(userID), true
}

// parseIDParam parses the :id path parameter as a UUID
func parseIDParam(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// GetCategories godoc
// @Summary List categories
// @Description Get all categories for the authenticated user
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Category
// @Failure 401 {object} ProblemDetails
// @Router /categories [get]
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	categories, err := sess.Categories()
	if err != nil {
		return NewInternalError(c, "Failed to load categories")
	}
	return c.JSON(http.StatusOK, categories)
}

// CreateCategory godoc
// @Summary Create a category
// @Description Create a new income or expense category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category creation request"
// @Success 201 {object} domain.Category
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	txType, ok := domain.ParseTransactionType(req.Type)
	if !ok {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: income, expense"},
		})
	}

	category, err := sess.AddCategory(req.Name, req.Icon, req.Color, txType)
	if err != nil {
		return categoryErrorResponse(c, err, "Failed to create category")
	}

	log.Info().Str("category_id", category.ID.String()).Str("name", category.Name).Msg("Category created")
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory godoc
// @Summary Update a category
// @Description Update an existing category. Past transactions keep their snapshot of the old values.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param request body CategoryRequest true "Category update request"
// @Success 200 {object} domain.Category
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	txType, ok := domain.ParseTransactionType(req.Type)
	if !ok {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: income, expense"},
		})
	}

	category, err := sess.UpdateCategory(id, req.Name, req.Icon, req.Color, txType)
	if err != nil {
		return categoryErrorResponse(c, err, "Failed to update category")
	}

	return c.JSON(http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary Delete a category
// @Description Delete a category that no transaction or budget references
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 204 "No Content"
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	if err := sess.DeleteCategory(id); err != nil {
		if errors.Is(err, domain.ErrCategoryInUse) {
			return NewConflictError(c, "Category is referenced by transactions or budgets")
		}
		return categoryErrorResponse(c, err, "Failed to delete category")
	}

	return c.NoContent(http.StatusNoContent)
}

func categoryErrorResponse(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 100 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidType):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: income, expense"},
		})
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "Category not found")
	case errors.Is(err, domain.ErrSessionNotReady):
		return NewInternalError(c, "Session is not ready")
	default:
		log.Error().Err(err).Msg(fallback)
		return NewInternalError(c, fallback)
	}
}
