package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateRange is the active reporting window, inclusive on both ends.
type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// Contains reports whether d falls within the range.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// BudgetStatus is the computed standing of one budget.
type BudgetStatus struct {
	CategoryID uuid.UUID       `json:"categoryId"`
	Allocated  decimal.Decimal `json:"allocated"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage decimal.Decimal `json:"percentage"`
}

// CategoryBreakdownEntry is one category's share of a type's total.
type CategoryBreakdownEntry struct {
	CategoryID   uuid.UUID       `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
	Percentage   decimal.Decimal `json:"percentage"`
}

// FinanceSummary is the derived aggregate view for the active date range. It
// is recomputed whenever transactions, budgets, or the range change and is
// never persisted.
type FinanceSummary struct {
	TotalIncome       decimal.Decimal          `json:"totalIncome"`
	TotalExpense      decimal.Decimal          `json:"totalExpense"`
	Balance           decimal.Decimal          `json:"balance"`
	PreviousBalance   decimal.Decimal          `json:"previousBalance"`
	Budgets           []BudgetStatus           `json:"budgets"`
	CategoryBreakdown []CategoryBreakdownEntry `json:"categoryBreakdown"`
}

const percentagePrecision = 6

var oneHundred = decimal.NewFromInt(100)

// TotalByType sums the amounts of all transactions whose category matches the
// given type. Amounts are not filtered or clamped; callers guarantee they are
// positive.
func TotalByType(transactions []*Transaction, txType TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		if t.Category.Type == txType {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// Balance is income minus expense over the given transactions.
func Balance(transactions []*Transaction) decimal.Decimal {
	return TotalByType(transactions, TransactionTypeIncome).
		Sub(TotalByType(transactions, TransactionTypeExpense))
}

// CategoryBreakdown groups transactions of the given type by category and
// computes each group's share of the type total. Entries are ordered by amount
// descending; ties keep the first-occurrence order of the input.
func CategoryBreakdown(transactions []*Transaction, txType TransactionType) []CategoryBreakdownEntry {
	total := decimal.Zero
	order := make([]uuid.UUID, 0)
	groups := make(map[uuid.UUID]*CategoryBreakdownEntry)

	for _, t := range transactions {
		if t.Category.Type != txType {
			continue
		}
		total = total.Add(t.Amount)
		if entry, ok := groups[t.Category.ID]; ok {
			entry.Amount = entry.Amount.Add(t.Amount)
			continue
		}
		groups[t.Category.ID] = &CategoryBreakdownEntry{
			CategoryID:   t.Category.ID,
			CategoryName: t.Category.Name,
			Amount:       t.Amount,
		}
		order = append(order, t.Category.ID)
	}

	entries := make([]CategoryBreakdownEntry, 0, len(order))
	for _, id := range order {
		entry := *groups[id]
		if total.IsPositive() {
			entry.Percentage = entry.Amount.DivRound(total, percentagePrecision).Mul(oneHundred)
		} else {
			entry.Percentage = decimal.Zero
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Amount.GreaterThan(entries[j].Amount)
	})
	return entries
}

// ComputeBudgetStatus sums the transactions charged against the budget's
// category between StartDate and EndDate (open-ended when EndDate is nil).
// A zero allocation yields a percentage of zero rather than a division error.
func ComputeBudgetStatus(budget *Budget, transactions []*Transaction) BudgetStatus {
	spent := decimal.Zero
	for _, t := range transactions {
		if t.Category.ID != budget.CategoryID {
			continue
		}
		if t.Date.Before(budget.StartDate) {
			continue
		}
		if budget.EndDate != nil && t.Date.After(*budget.EndDate) {
			continue
		}
		spent = spent.Add(t.Amount)
	}

	status := BudgetStatus{
		CategoryID: budget.CategoryID,
		Allocated:  budget.Amount,
		Spent:      spent,
		Remaining:  budget.Amount.Sub(spent),
	}
	if budget.Amount.IsPositive() {
		status.Percentage = spent.DivRound(budget.Amount, percentagePrecision).Mul(oneHundred)
	} else {
		status.Percentage = decimal.Zero
	}
	return status
}

// PreviousRange returns the mirror-length window immediately preceding the
// given range: [start - (end - start + 1 day), start - 1 day].
func PreviousRange(r DateRange) DateRange {
	days := int(r.End.Sub(r.Start).Hours()/24) + 1
	return DateRange{
		Start: r.Start.AddDate(0, 0, -days),
		End:   r.Start.AddDate(0, 0, -1),
	}
}

// PercentChange is (current - previous) / |previous| * 100, defined as zero
// when previous is zero.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).DivRound(previous.Abs(), percentagePrecision).Mul(oneHundred)
}

// Summarize recomputes the full summary. Totals run over the complete
// transaction list; budget statuses and the expense breakdown run over the
// transactions inside the active range; the previous balance runs over the
// mirror window preceding the range.
func Summarize(transactions []*Transaction, budgets []*Budget, r DateRange) *FinanceSummary {
	inRange := make([]*Transaction, 0, len(transactions))
	previous := PreviousRange(r)
	inPrevious := make([]*Transaction, 0)
	for _, t := range transactions {
		if r.Contains(t.Date) {
			inRange = append(inRange, t)
		}
		if previous.Contains(t.Date) {
			inPrevious = append(inPrevious, t)
		}
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		statuses = append(statuses, ComputeBudgetStatus(b, inRange))
	}

	return &FinanceSummary{
		TotalIncome:       TotalByType(transactions, TransactionTypeIncome),
		TotalExpense:      TotalByType(transactions, TransactionTypeExpense),
		Balance:           Balance(transactions),
		PreviousBalance:   Balance(inPrevious),
		Budgets:           statuses,
		CategoryBreakdown: CategoryBreakdown(inRange, TransactionTypeExpense),
	}
}
