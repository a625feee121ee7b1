package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/service"
)

// SummaryHandler handles summary-related HTTP requests
type SummaryHandler struct {
	sessions *service.SessionManager
}

// NewSummaryHandler creates a new SummaryHandler
func NewSummaryHandler(sessions *service.SessionManager) *SummaryHandler {
	return &SummaryHandler{sessions: sessions}
}

// DateRangeRequest represents the reporting range selection body
type DateRangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// SummaryResponse wraps the derived summary with its reporting range
type SummaryResponse struct {
	StartDate string                 `json:"startDate"`
	EndDate   string                 `json:"endDate"`
	Summary   *domain.FinanceSummary `json:"summary"`
}

// GetSummary godoc
// @Summary Get the finance summary
// @Description Get the derived summary for the session's active reporting range
// @Tags summary
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SummaryResponse
// @Failure 401 {object} ProblemDetails
// @Router /summary [get]
func (h *SummaryHandler) GetSummary(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	summary, err := sess.Summary()
	if err != nil {
		return NewInternalError(c, "Failed to load summary")
	}

	r := sess.DateRange()
	return c.JSON(http.StatusOK, SummaryResponse{
		StartDate: r.Start.Format("2006-01-02"),
		EndDate:   r.End.Format("2006-01-02"),
		Summary:   &summary,
	})
}

// SetDateRange godoc
// @Summary Set the reporting range
// @Description Change the session's reporting range and recompute the summary
// @Tags summary
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DateRangeRequest true "Reporting range"
// @Success 200 {object} SummaryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /summary/range [put]
func (h *SummaryHandler) SetDateRange(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req DateRangeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	if err := sess.SetDateRange(domain.DateRange{Start: start, End: end}); err != nil {
		if errors.Is(err, domain.ErrInvalidDateRange) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "startDate", Message: "Start date must not be after end date"},
			})
		}
		return NewInternalError(c, "Failed to set reporting range")
	}

	return h.GetSummary(c)
}
