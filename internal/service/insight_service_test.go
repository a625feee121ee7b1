package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

func insightRange() domain.DateRange {
	return domain.DateRange{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func expenseTx(category domain.Category, amount float64, recurring bool) *domain.Transaction {
	tx := &domain.Transaction{
		ID:            uuid.New(),
		Amount:        decimal.NewFromFloat(amount),
		Description:   "expense",
		Category:      category,
		Date:          time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		PaymentMethod: domain.PaymentMethodCash,
		Recurring:     recurring,
	}
	if recurring {
		interval := domain.IntervalMonthly
		tx.RecurringInterval = &interval
	}
	return tx
}

func TestGenerate_EmptyData(t *testing.T) {
	svc := NewInsightService()
	insights := svc.Generate(&domain.FinanceSummary{}, nil, nil, insightRange())
	if len(insights) != 0 {
		t.Errorf("Expected no insights for empty data, got %d", len(insights))
	}
}

func TestGenerate_TopSpendingCategory(t *testing.T) {
	svc := NewInsightService()
	summary := &domain.FinanceSummary{
		CategoryBreakdown: []domain.CategoryBreakdownEntry{
			{CategoryID: uuid.New(), CategoryName: "Rent", Amount: decimal.NewFromInt(900), Percentage: decimal.NewFromInt(75)},
			{CategoryID: uuid.New(), CategoryName: "Food", Amount: decimal.NewFromInt(300), Percentage: decimal.NewFromInt(25)},
		},
	}

	insights := svc.Generate(summary, nil, nil, insightRange())
	if len(insights) != 1 {
		t.Fatalf("Expected one insight, got %d", len(insights))
	}
	if insights[0].Type != InsightSpending {
		t.Errorf("Expected spending insight, got %s", insights[0].Type)
	}
	if !strings.Contains(insights[0].Message, "Rent") {
		t.Errorf("Expected message to name the top category, got %q", insights[0].Message)
	}
}

func TestGenerate_RecurringExpenses(t *testing.T) {
	svc := NewInsightService()
	category := domain.Category{ID: uuid.New(), Name: "Subscriptions", Type: domain.TransactionTypeExpense}
	txs := []*domain.Transaction{
		expenseTx(category, 15, true),
		expenseTx(category, 10, true),
		expenseTx(category, 40, false),
	}

	insights := svc.Generate(&domain.FinanceSummary{}, txs, nil, insightRange())
	if len(insights) != 1 {
		t.Fatalf("Expected one insight, got %d", len(insights))
	}
	if insights[0].Type != InsightRecurring {
		t.Errorf("Expected recurring insight, got %s", insights[0].Type)
	}
	if !strings.Contains(insights[0].Message, "2 recurring expenses") {
		t.Errorf("Expected recurring count in message, got %q", insights[0].Message)
	}
	if !strings.Contains(insights[0].Message, "25") {
		t.Errorf("Expected recurring total in message, got %q", insights[0].Message)
	}
}

func TestGenerate_BudgetOverrunNamesCategory(t *testing.T) {
	svc := NewInsightService()
	categoryID := uuid.New()
	categories := []*domain.Category{
		{ID: categoryID, Name: "Groceries", Type: domain.TransactionTypeExpense},
	}
	summary := &domain.FinanceSummary{
		Budgets: []domain.BudgetStatus{
			{
				CategoryID: categoryID,
				Allocated:  decimal.NewFromInt(50),
				Spent:      decimal.NewFromInt(60),
				Remaining:  decimal.NewFromInt(-10),
				Percentage: decimal.NewFromInt(120),
			},
		},
	}

	insights := svc.Generate(summary, nil, categories, insightRange())
	if len(insights) != 1 {
		t.Fatalf("Expected one insight, got %d", len(insights))
	}
	if insights[0].Type != InsightBudget {
		t.Errorf("Expected budget insight, got %s", insights[0].Type)
	}
	if !strings.Contains(insights[0].Message, "Groceries") {
		t.Errorf("Expected message to name the category, got %q", insights[0].Message)
	}
	if !strings.Contains(insights[0].Message, "10") {
		t.Errorf("Expected overrun amount in message, got %q", insights[0].Message)
	}
}

func TestGenerate_BudgetWithinAllocation(t *testing.T) {
	svc := NewInsightService()
	summary := &domain.FinanceSummary{
		Budgets: []domain.BudgetStatus{
			{CategoryID: uuid.New(), Allocated: decimal.NewFromInt(50), Spent: decimal.NewFromInt(20), Remaining: decimal.NewFromInt(30), Percentage: decimal.NewFromInt(40)},
		},
	}

	insights := svc.Generate(summary, nil, nil, insightRange())
	if len(insights) != 0 {
		t.Errorf("Expected no insights for a healthy budget, got %d", len(insights))
	}
}

func TestGenerate_SavingsTipAboveThreshold(t *testing.T) {
	svc := NewInsightService()
	category := domain.Category{ID: uuid.New(), Name: "Misc", Type: domain.TransactionTypeExpense}
	var txs []*domain.Transaction
	for i := 0; i < savingsTipThreshold+1; i++ {
		txs = append(txs, expenseTx(category, 5, false))
	}

	insights := svc.Generate(&domain.FinanceSummary{}, txs, nil, insightRange())
	found := false
	for _, in := range insights {
		if in.Type == InsightSaving {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a savings tip for %d expenses", len(txs))
	}
}
