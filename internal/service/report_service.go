package service

import (
	"encoding/csv"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/util"
)

// MonthlyTrend aggregates income and expense totals for one calendar month
type MonthlyTrend struct {
	Year    int             `json:"year"`
	Month   time.Month      `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// ReportService builds trend aggregates and exports over a transaction list
type ReportService struct{}

// NewReportService creates a new ReportService
func NewReportService() *ReportService {
	return &ReportService{}
}

// MonthlyTrends returns per-month income and expense totals for the last
// `months` calendar months ending at the month of `until`. Months with no
// transactions appear with zero totals so charts render a continuous axis.
func (s *ReportService) MonthlyTrends(transactions []*domain.Transaction, until time.Time, months int) []MonthlyTrend {
	if months < 1 {
		months = 1
	}

	type key struct {
		year  int
		month time.Month
	}
	totals := make(map[key]*MonthlyTrend)

	trends := make([]MonthlyTrend, 0, months)
	cursor := time.Date(until.Year(), until.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	for i := 0; i < months; i++ {
		k := key{cursor.Year(), cursor.Month()}
		trends = append(trends, MonthlyTrend{
			Year:    k.year,
			Month:   k.month,
			Income:  decimal.Zero,
			Expense: decimal.Zero,
			Net:     decimal.Zero,
		})
		totals[k] = &trends[len(trends)-1]
		cursor = cursor.AddDate(0, 1, 0)
	}

	for _, t := range transactions {
		k := key{t.Date.Year(), t.Date.Month()}
		trend, ok := totals[k]
		if !ok {
			continue
		}
		switch t.Category.Type {
		case domain.TransactionTypeIncome:
			trend.Income = trend.Income.Add(t.Amount)
		case domain.TransactionTypeExpense:
			trend.Expense = trend.Expense.Add(t.Amount)
		}
	}

	for i := range trends {
		trends[i].Net = trends[i].Income.Sub(trends[i].Expense)
	}
	return trends
}

// csvHeader is the column layout of an export, stable so downstream
// spreadsheets can rely on it
var csvHeader = []string{"date", "description", "category", "type", "amount", "payment_method", "recurring", "notes"}

// ExportCSV writes the given transactions as CSV, oldest first
func (s *ReportService) ExportCSV(w io.Writer, transactions []*domain.Transaction) error {
	sorted := make([]*domain.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range sorted {
		notes := ""
		if t.Notes != nil {
			notes = *t.Notes
		}
		recurring := "no"
		if t.Recurring {
			recurring = "yes"
		}
		record := []string{
			util.Truncate(t.Date).Format("2006-01-02"),
			t.Description,
			t.Category.Name,
			string(t.Category.Type),
			t.Amount.StringFixed(2),
			string(t.PaymentMethod),
			recurring,
			notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
