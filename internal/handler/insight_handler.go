package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/service"
)

// InsightHandler handles insight HTTP requests
type InsightHandler struct {
	sessions *service.SessionManager
	insights *service.InsightService
}

// NewInsightHandler creates a new InsightHandler
func NewInsightHandler(sessions *service.SessionManager, insights *service.InsightService) *InsightHandler {
	return &InsightHandler{sessions: sessions, insights: insights}
}

// GetInsights godoc
// @Summary Get finance insights
// @Description Get rule-derived insights for the session's active reporting range
// @Tags insights
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.Insight
// @Failure 401 {object} ProblemDetails
// @Router /insights [get]
func (h *InsightHandler) GetInsights(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	summary, err := sess.Summary()
	if err != nil {
		return NewInternalError(c, "Failed to load summary")
	}
	transactions, err := sess.Transactions(domain.TransactionFilters{})
	if err != nil {
		return NewInternalError(c, "Failed to load transactions")
	}
	categories, err := sess.Categories()
	if err != nil {
		return NewInternalError(c, "Failed to load categories")
	}

	insights := h.insights.Generate(&summary, transactions, categories, sess.DateRange())
	return c.JSON(http.StatusOK, insights)
}
