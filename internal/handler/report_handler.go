package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/service"
)

// defaultTrendMonths is how many months of history the trends endpoint
// returns when the caller does not ask for a specific window
const defaultTrendMonths = 6

// ReportHandler handles reporting and export HTTP requests
type ReportHandler struct {
	sessions *service.SessionManager
	reports  *service.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(sessions *service.SessionManager, reports *service.ReportService) *ReportHandler {
	return &ReportHandler{sessions: sessions, reports: reports}
}

// GetTrends godoc
// @Summary Monthly trends
// @Description Get per-month income and expense totals for recent months
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param months query int false "Number of months" default(6)
// @Success 200 {array} service.MonthlyTrend
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /reports/trends [get]
func (h *ReportHandler) GetTrends(c echo.Context) error {
	sess, ok := sessionFor(c, h.sessions)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	months := defaultTrendMonths
	if v := c.QueryParam("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 36 {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "months", Message: "Must be an integer between 1 and 36"},
			})
		}
		months = parsed
	}

	transactions, err := sess.Transactions(domain.TransactionFilters{})
	if err != nil {
		return NewInternalError(c, "Failed to load transactions")
	}

	trends := h.reports.MonthlyTrends(transactions, time.Now().UTC(), months)
	return c.JSON(http.StatusOK, trends)
}

// ExportTransactions godoc
// @Summary Export transactions as CSV
// @Description Download the user's transactions as a CSV file, honoring the same filters as the list endpoint
// @Tags reports
// @Produce text/csv
// @Security BearerAuth
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Param categoryId query string false "Filter by category ID"
// @Param type query string false "Transaction type (income or expense)"
// @Success 200 {string} string "CSV payload"
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /reports/export [get]
func (h *ReportHandler) ExportTransactions(c echo.Context) error {
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

	filename := "transactions-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)

	if err := h.reports.ExportCSV(c.Response(), transactions); err != nil {
		log.Error().Err(err).Msg("Failed to write CSV export")
		return err
	}
	return nil
}
