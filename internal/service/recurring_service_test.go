package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/testutil"
)

func recurringTemplate(userID uuid.UUID, date time.Time, interval domain.RecurringInterval) *domain.Transaction {
	return &domain.Transaction{
		ID:     uuid.New(),
		UserID: userID,
		Amount: decimal.NewFromInt(15),
		Description: "streaming subscription",
		Category: domain.Category{
			ID:   uuid.New(),
			Name: "Entertainment",
			Type: domain.TransactionTypeExpense,
		},
		Date:              date,
		PaymentMethod:     domain.PaymentMethodCreditCard,
		Recurring:         true,
		RecurringInterval: &interval,
	}
}

func TestNextOccurrence_Daily(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	next := NextOccurrence(start, domain.IntervalDaily, start.Day())
	want := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next)
	}
}

func TestNextOccurrence_Weekly(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	next := NextOccurrence(start, domain.IntervalWeekly, start.Day())
	want := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next)
	}
}

func TestNextOccurrence_MonthlyClampsToShortMonth(t *testing.T) {
	jan31 := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)

	feb := NextOccurrence(jan31, domain.IntervalMonthly, 31)
	if feb.Month() != time.February || feb.Day() != 28 {
		t.Errorf("Expected Feb 28, got %v", feb)
	}

	// The original day comes back once the month is long enough
	mar := NextOccurrence(feb, domain.IntervalMonthly, 31)
	if mar.Month() != time.March || mar.Day() != 31 {
		t.Errorf("Expected Mar 31, got %v", mar)
	}
}

func TestNextOccurrence_MonthlyLeapFebruary(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	feb := NextOccurrence(jan31, domain.IntervalMonthly, 31)
	if feb.Month() != time.February || feb.Day() != 29 {
		t.Errorf("Expected Feb 29 in a leap year, got %v", feb)
	}
}

func TestNextOccurrence_YearlyLeapDay(t *testing.T) {
	leap := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	next := NextOccurrence(leap, domain.IntervalYearly, 29)
	if next.Year() != 2025 || next.Month() != time.February || next.Day() != 28 {
		t.Errorf("Expected Feb 28 2025, got %v", next)
	}
}

func TestMaterializeDue_CreatesMissedOccurrences(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	svc := NewRecurringService(repo, zerolog.Nop())

	userID := uuid.New()
	template := recurringTemplate(userID, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), domain.IntervalMonthly)
	repo.Transactions[template.ID] = template

	now := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)
	created, err := svc.MaterializeDue(now)
	if err != nil {
		t.Fatalf("MaterializeDue: %v", err)
	}

	// Feb 15, Mar 15, Apr 15
	if created != 3 {
		t.Fatalf("Expected 3 occurrences, got %d", created)
	}
	for _, tx := range repo.Transactions {
		if tx.ID == template.ID {
			continue
		}
		if tx.Recurring {
			t.Error("Expected materialized occurrence to be non-recurring")
		}
		if !tx.Amount.Equal(template.Amount) {
			t.Errorf("Expected amount %s, got %s", template.Amount, tx.Amount)
		}
	}
}

func TestMaterializeDue_Idempotent(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	svc := NewRecurringService(repo, zerolog.Nop())

	userID := uuid.New()
	template := recurringTemplate(userID, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), domain.IntervalMonthly)
	repo.Transactions[template.ID] = template

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.MaterializeDue(now); err != nil {
		t.Fatalf("First pass: %v", err)
	}
	created, err := svc.MaterializeDue(now)
	if err != nil {
		t.Fatalf("Second pass: %v", err)
	}
	if created != 0 {
		t.Errorf("Expected no new occurrences on second pass, got %d", created)
	}
}

func TestMaterializeDue_NothingDue(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	svc := NewRecurringService(repo, zerolog.Nop())

	userID := uuid.New()
	template := recurringTemplate(userID, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), domain.IntervalMonthly)
	repo.Transactions[template.ID] = template

	created, err := svc.MaterializeDue(time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("MaterializeDue: %v", err)
	}
	if created != 0 {
		t.Errorf("Expected no occurrences before the first due date, got %d", created)
	}
}
