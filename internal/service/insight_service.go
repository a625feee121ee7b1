package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

// InsightType labels the kind of observation an insight carries
type InsightType string

const (
	InsightSpending  InsightType = "spending"
	InsightRecurring InsightType = "recurring"
	InsightBudget    InsightType = "budget"
	InsightSaving    InsightType = "saving"
)

// Insight is a rule-derived observation about the user's finances
type Insight struct {
	Type    InsightType `json:"type"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// savingsTipThreshold is the expense count above which a generic savings
// nudge is shown
const savingsTipThreshold = 5

// InsightService derives textual insights from a summary and the
// transactions in the active range. The rules are deliberately simple and
// deterministic.
type InsightService struct{}

// NewInsightService creates a new InsightService
func NewInsightService() *InsightService {
	return &InsightService{}
}

// Generate produces insights for the current reporting range
func (s *InsightService) Generate(summary *domain.FinanceSummary, transactions []*domain.Transaction, categories []*domain.Category, r domain.DateRange) []Insight {
	insights := make([]Insight, 0, 4)

	if top := s.topSpendingInsight(summary); top != nil {
		insights = append(insights, *top)
	}
	if rec := s.recurringInsight(transactions); rec != nil {
		insights = append(insights, *rec)
	}
	insights = append(insights, s.budgetInsights(summary, categories)...)
	if tip := s.savingsTip(transactions, r); tip != nil {
		insights = append(insights, *tip)
	}

	return insights
}

func (s *InsightService) topSpendingInsight(summary *domain.FinanceSummary) *Insight {
	if len(summary.CategoryBreakdown) == 0 {
		return nil
	}
	top := summary.CategoryBreakdown[0]
	return &Insight{
		Type:  InsightSpending,
		Title: "Top spending category",
		Message: fmt.Sprintf("%s accounts for %s%% of your expenses this period (%s).",
			top.CategoryName, top.Percentage.Round(1), top.Amount),
	}
}

func (s *InsightService) recurringInsight(transactions []*domain.Transaction) *Insight {
	count := 0
	total := decimal.Zero
	for _, t := range transactions {
		if t.Recurring && t.Category.Type == domain.TransactionTypeExpense {
			count++
			total = total.Add(t.Amount)
		}
	}
	if count == 0 {
		return nil
	}
	return &Insight{
		Type:  InsightRecurring,
		Title: "Recurring expenses",
		Message: fmt.Sprintf("You have %d recurring expenses totaling %s per cycle. Reviewing subscriptions is an easy way to cut costs.",
			count, total),
	}
}

func (s *InsightService) budgetInsights(summary *domain.FinanceSummary, categories []*domain.Category) []Insight {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID.String()] = c.Name
	}

	var out []Insight
	for _, status := range summary.Budgets {
		if !status.Remaining.IsNegative() {
			continue
		}
		name := names[status.CategoryID.String()]
		if name == "" {
			name = "a category"
		}
		out = append(out, Insight{
			Type:  InsightBudget,
			Title: "Budget exceeded",
			Message: fmt.Sprintf("You are %s over budget on %s (%s%% of the allocation used).",
				status.Remaining.Abs(), name, status.Percentage.Round(0)),
		})
	}
	return out
}

func (s *InsightService) savingsTip(transactions []*domain.Transaction, r domain.DateRange) *Insight {
	expenses := 0
	for _, t := range transactions {
		if t.Category.Type == domain.TransactionTypeExpense && r.Contains(t.Date) {
			expenses++
		}
	}
	if expenses <= savingsTipThreshold {
		return nil
	}
	return &Insight{
		Type:    InsightSaving,
		Title:   "Savings opportunity",
		Message: fmt.Sprintf("You recorded %d expenses this period. Grouping small purchases can make it easier to spot where money leaks.", expenses),
	}
}
