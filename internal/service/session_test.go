package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/testutil"
)

type sessionFixture struct {
	session         *FinanceSession
	userID          uuid.UUID
	categoryRepo    *testutil.MockCategoryRepository
	transactionRepo *testutil.MockTransactionRepository
	budgetRepo      *testutil.MockBudgetRepository
	accountRepo     *testutil.MockAccountRepository
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		userID:          uuid.New(),
		categoryRepo:    testutil.NewMockCategoryRepository(),
		transactionRepo: testutil.NewMockTransactionRepository(),
		budgetRepo:      testutil.NewMockBudgetRepository(),
		accountRepo:     testutil.NewMockAccountRepository(),
	}
	f.session = NewFinanceSession(f.userID, f.categoryRepo, f.transactionRepo, f.budgetRepo, f.accountRepo, zerolog.Nop())
	return f
}

func (f *sessionFixture) addCategory(t *testing.T, name string, txType domain.TransactionType) *domain.Category {
	t.Helper()
	c, err := f.session.AddCategory(name, "tag", "#ff0000", txType)
	if err != nil {
		t.Fatalf("AddCategory(%s): %v", name, err)
	}
	return c
}

func txInput(categoryID uuid.UUID, amount float64, date time.Time) TransactionInput {
	return TransactionInput{
		Amount:        decimal.NewFromFloat(amount),
		Description:   "test transaction",
		CategoryID:    categoryID,
		Date:          date,
		PaymentMethod: domain.PaymentMethodCash,
	}
}

func TestSessionInit_Ready(t *testing.T) {
	f := newSessionFixture(t)

	if f.session.State() != SessionLoading {
		t.Fatalf("Expected loading state before init, got %s", f.session.State())
	}

	f.session.Init()

	if f.session.State() != SessionReady {
		t.Errorf("Expected ready state after init, got %s", f.session.State())
	}
	summary, err := f.session.Summary()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !summary.Balance.IsZero() {
		t.Errorf("Expected zero balance for empty session, got %s", summary.Balance)
	}
}

func TestSessionInit_LoadFailureDegradesToEmpty(t *testing.T) {
	f := newSessionFixture(t)
	f.transactionRepo.ListErr = errors.New("connection refused")

	f.session.Init()

	if f.session.State() != SessionReady {
		t.Fatalf("Expected ready state despite load failure, got %s", f.session.State())
	}
	txs, err := f.session.Transactions(domain.TransactionFilters{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("Expected empty transactions, got %d", len(txs))
	}
}

func TestSessionReads_BeforeInit(t *testing.T) {
	f := newSessionFixture(t)

	if _, err := f.session.Summary(); !errors.Is(err, domain.ErrSessionNotReady) {
		t.Errorf("Expected ErrSessionNotReady, got %v", err)
	}
	if _, err := f.session.Categories(); !errors.Is(err, domain.ErrSessionNotReady) {
		t.Errorf("Expected ErrSessionNotReady, got %v", err)
	}
}

func TestSessionTeardown_ClearsState(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)
	if _, err := f.session.AddTransaction(txInput(c.ID, 25, time.Now().UTC())); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	f.session.Teardown()

	if f.session.State() != SessionClosed {
		t.Errorf("Expected closed state, got %s", f.session.State())
	}
	if _, err := f.session.Transactions(domain.TransactionFilters{}); !errors.Is(err, domain.ErrSessionNotReady) {
		t.Errorf("Expected ErrSessionNotReady after teardown, got %v", err)
	}
}

func TestAddTransaction_RecomputesSummary(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	income := f.addCategory(t, "Salary", domain.TransactionTypeIncome)
	expense := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)

	now := time.Now().UTC()
	if _, err := f.session.AddTransaction(txInput(income.ID, 100, now)); err != nil {
		t.Fatalf("AddTransaction income: %v", err)
	}
	if _, err := f.session.AddTransaction(txInput(expense.ID, 40, now)); err != nil {
		t.Fatalf("AddTransaction expense: %v", err)
	}

	summary, err := f.session.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !summary.TotalIncome.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected total income 100, got %s", summary.TotalIncome)
	}
	if !summary.TotalExpense.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected total expenses 40, got %s", summary.TotalExpense)
	}
	if !summary.Balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Expected balance 60, got %s", summary.Balance)
	}
}

func TestAddTransaction_RemoteFailureLeavesStateUntouched(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)
	f.transactionRepo.CreateFn = func(tx *domain.Transaction) (*domain.Transaction, error) {
		return nil, errors.New("write failed")
	}

	_, err := f.session.AddTransaction(txInput(c.ID, 40, time.Now().UTC()))
	if err == nil {
		t.Fatal("Expected error from failed remote write")
	}

	txs, _ := f.session.Transactions(domain.TransactionFilters{})
	if len(txs) != 0 {
		t.Errorf("Expected no local transactions after failed write, got %d", len(txs))
	}
	summary, _ := f.session.Summary()
	if !summary.TotalExpense.IsZero() {
		t.Errorf("Expected untouched summary, got expenses %s", summary.TotalExpense)
	}
}

func TestAddTransaction_Validation(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)
	now := time.Now().UTC()
	monthly := domain.IntervalMonthly

	cases := []struct {
		name    string
		mutate  func(*TransactionInput)
		wantErr error
	}{
		{"zero amount", func(i *TransactionInput) { i.Amount = decimal.Zero }, domain.ErrInvalidAmount},
		{"negative amount", func(i *TransactionInput) { i.Amount = decimal.NewFromInt(-5) }, domain.ErrInvalidAmount},
		{"empty description", func(i *TransactionInput) { i.Description = "   " }, domain.ErrDescriptionRequired},
		{"over-long description", func(i *TransactionInput) { i.Description = strings.Repeat("x", domain.MaxDescriptionLength+1) }, domain.ErrDescriptionTooLong},
		{"unknown category", func(i *TransactionInput) { i.CategoryID = uuid.New() }, domain.ErrCategoryNotFound},
		{"recurring without interval", func(i *TransactionInput) { i.Recurring = true }, domain.ErrIntervalRequired},
		{"interval without recurring", func(i *TransactionInput) { i.RecurringInterval = &monthly }, domain.ErrIntervalNotAllowed},
		{"bad payment method", func(i *TransactionInput) { i.PaymentMethod = "check" }, domain.ErrInvalidPaymentMethod},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := txInput(c.ID, 10, now)
			tc.mutate(&input)
			_, err := f.session.AddTransaction(input)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestUpdateTransaction_Idempotent(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)
	created, err := f.session.AddTransaction(txInput(c.ID, 40, time.Now().UTC()))
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	input := txInput(c.ID, 55, created.Date)
	first, err := f.session.UpdateTransaction(created.ID, input)
	if err != nil {
		t.Fatalf("First update: %v", err)
	}
	second, err := f.session.UpdateTransaction(created.ID, input)
	if err != nil {
		t.Fatalf("Second update: %v", err)
	}

	if !first.Amount.Equal(second.Amount) || first.Description != second.Description {
		t.Errorf("Expected identical results from repeated update")
	}
	txs, _ := f.session.Transactions(domain.TransactionFilters{})
	if len(txs) != 1 {
		t.Errorf("Expected exactly one transaction, got %d", len(txs))
	}
}

func TestUpdateCategory_Idempotent(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)

	first, err := f.session.UpdateCategory(c.ID, "Food", "cart", "#00ff00", domain.TransactionTypeExpense)
	if err != nil {
		t.Fatalf("First update: %v", err)
	}
	second, err := f.session.UpdateCategory(c.ID, "Food", "cart", "#00ff00", domain.TransactionTypeExpense)
	if err != nil {
		t.Fatalf("Second update: %v", err)
	}

	if first.Name != second.Name || first.Icon != second.Icon || first.Color != second.Color {
		t.Errorf("Expected identical results from repeated update")
	}
	categories, _ := f.session.Categories()
	if len(categories) != 1 {
		t.Errorf("Expected exactly one category, got %d", len(categories))
	}
	if categories[0].Name != "Food" {
		t.Errorf("Expected updated name Food, got %s", categories[0].Name)
	}
}

func TestDeleteCategory_InUseGuardSkipsRemoteCall(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)
	if _, err := f.session.AddTransaction(txInput(c.ID, 40, time.Now().UTC())); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	remoteCalled := false
	f.categoryRepo.DeleteFn = func(userID, id uuid.UUID) error {
		remoteCalled = true
		return nil
	}

	err := f.session.DeleteCategory(c.ID)
	if !errors.Is(err, domain.ErrCategoryInUse) {
		t.Fatalf("Expected ErrCategoryInUse, got %v", err)
	}
	if remoteCalled {
		t.Error("Expected no remote call when the guard rejects the deletion")
	}

	categories, _ := f.session.Categories()
	if len(categories) != 1 {
		t.Errorf("Expected category to remain, got %d categories", len(categories))
	}
}

func TestDeleteCategory_BudgetReferenceBlocksDeletion(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)
	_, err := f.session.AddBudget(BudgetInput{
		CategoryID: c.ID,
		Amount:     decimal.NewFromInt(50),
		Period:     domain.PeriodMonthly,
		StartDate:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("AddBudget: %v", err)
	}

	if err := f.session.DeleteCategory(c.ID); !errors.Is(err, domain.ErrCategoryInUse) {
		t.Errorf("Expected ErrCategoryInUse, got %v", err)
	}
}

func TestDeleteCategory_Unreferenced(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)

	if err := f.session.DeleteCategory(c.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	categories, _ := f.session.Categories()
	if len(categories) != 0 {
		t.Errorf("Expected no categories, got %d", len(categories))
	}
}

func TestDeleteTransaction_ThenCategoryDeletable(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)
	created, err := f.session.AddTransaction(txInput(c.ID, 40, time.Now().UTC()))
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	if err := f.session.DeleteTransaction(created.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := f.session.DeleteCategory(c.ID); err != nil {
		t.Errorf("Expected category deletable after transaction removed, got %v", err)
	}

	summary, _ := f.session.Summary()
	if !summary.TotalExpense.IsZero() {
		t.Errorf("Expected zero expenses after deletion, got %s", summary.TotalExpense)
	}
}

func TestAddBudget_AppearsInSummary(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)
	now := time.Now().UTC()
	if _, err := f.session.AddTransaction(txInput(c.ID, 60, now)); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	_, err := f.session.AddBudget(BudgetInput{
		CategoryID: c.ID,
		Amount:     decimal.NewFromInt(50),
		Period:     domain.PeriodMonthly,
		StartDate:  now.AddDate(0, 0, -1),
	})
	if err != nil {
		t.Fatalf("AddBudget: %v", err)
	}

	summary, _ := f.session.Summary()
	if len(summary.Budgets) != 1 {
		t.Fatalf("Expected one budget status, got %d", len(summary.Budgets))
	}
	status := summary.Budgets[0]
	if !status.Spent.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Expected spent 60, got %s", status.Spent)
	}
	if !status.Remaining.Equal(decimal.NewFromInt(-10)) {
		t.Errorf("Expected remaining -10, got %s", status.Remaining)
	}
	if !status.Percentage.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Expected percentage 120, got %s", status.Percentage)
	}
}

func TestAddBudget_RejectsNonPositiveAmount(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, err := f.session.AddBudget(BudgetInput{
			CategoryID: c.ID,
			Amount:     amount,
			Period:     domain.PeriodMonthly,
			StartDate:  time.Now().UTC(),
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("Amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestSetDateRange_Invalid(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()

	now := time.Now().UTC()
	err := f.session.SetDateRange(domain.DateRange{Start: now, End: now.AddDate(0, 0, -1)})
	if !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Errorf("Expected ErrInvalidDateRange, got %v", err)
	}
}

func TestSetDateRange_Recomputes(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	c := f.addCategory(t, "Groceries", domain.TransactionTypeExpense)
	old := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	if _, err := f.session.AddTransaction(txInput(c.ID, 30, old)); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	err := f.session.SetDateRange(domain.DateRange{
		Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SetDateRange: %v", err)
	}

	summary, _ := f.session.Summary()
	if len(summary.CategoryBreakdown) != 1 {
		t.Errorf("Expected breakdown entry for the January range, got %d", len(summary.CategoryBreakdown))
	}
}

func TestDeleteAccount_LastAccountRejected(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	acc, err := f.session.AddAccount(AccountInput{Name: "Checking", Currency: "usd"})
	if err != nil {
		t.Fatalf("AddAccount: %v", err)
	}
	if acc.Currency != "USD" {
		t.Errorf("Expected currency normalized to USD, got %s", acc.Currency)
	}

	if err := f.session.DeleteAccount(acc.ID); !errors.Is(err, domain.ErrLastAccount) {
		t.Errorf("Expected ErrLastAccount, got %v", err)
	}
}

func TestDeleteAccount_ReassignsCurrent(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Init()
	first, err := f.session.AddAccount(AccountInput{Name: "Checking", Currency: "USD"})
	if err != nil {
		t.Fatalf("AddAccount: %v", err)
	}
	second, err := f.session.AddAccount(AccountInput{Name: "Savings", Currency: "USD"})
	if err != nil {
		t.Fatalf("AddAccount: %v", err)
	}

	if err := f.session.SetCurrentAccount(first.ID); err != nil {
		t.Fatalf("SetCurrentAccount: %v", err)
	}
	if err := f.session.DeleteAccount(first.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	current, err := f.session.CurrentAccount()
	if err != nil {
		t.Fatalf("CurrentAccount: %v", err)
	}
	if current == nil || current.ID != second.ID {
		t.Errorf("Expected current account to move to the remaining account")
	}
}

func TestSessionManager_CloseTearsDown(t *testing.T) {
	f := newSessionFixture(t)
	manager := NewSessionManager(f.categoryRepo, f.transactionRepo, f.budgetRepo, f.accountRepo, zerolog.Nop())

	sess := manager.Session(f.userID)
	if sess.State() != SessionReady {
		t.Fatalf("Expected ready session, got %s", sess.State())
	}
	if manager.Session(f.userID) != sess {
		t.Error("Expected same session on repeated lookup")
	}

	manager.Close(f.userID)
	if sess.State() != SessionClosed {
		t.Errorf("Expected closed session, got %s", sess.State())
	}
	if manager.Session(f.userID) == sess {
		t.Error("Expected a fresh session after close")
	}
}
