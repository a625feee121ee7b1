package service

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/util"
)

// SessionState describes the lifecycle of a finance session
type SessionState string

const (
	SessionLoading SessionState = "loading"
	SessionReady   SessionState = "ready"
	SessionClosed  SessionState = "closed"
)

// FinanceSession holds a single user's finance data in memory. Every mutation
// is pessimistic: the repository write must succeed before the in-memory copy
// changes, so a failed remote call leaves the session exactly as it was.
// The summary is recomputed under the same lock as the mutation, so readers
// never observe collections and summary out of step.
type FinanceSession struct {
	userID uuid.UUID
	logger zerolog.Logger

	categoryRepo    domain.CategoryRepository
	transactionRepo domain.TransactionRepository
	budgetRepo      domain.BudgetRepository
	accountRepo     domain.AccountRepository

	initOnce sync.Once

	mu               sync.RWMutex
	state            SessionState
	categories       []*domain.Category
	transactions     []*domain.Transaction
	budgets          []*domain.Budget
	accounts         []*domain.Account
	currentAccountID *uuid.UUID
	dateRange        domain.DateRange
	summary          domain.FinanceSummary
}

// NewFinanceSession creates a session in the loading state. Call Init to
// populate it before serving reads.
func NewFinanceSession(
	userID uuid.UUID,
	categoryRepo domain.CategoryRepository,
	transactionRepo domain.TransactionRepository,
	budgetRepo domain.BudgetRepository,
	accountRepo domain.AccountRepository,
	logger zerolog.Logger,
) *FinanceSession {
	start, end := util.CurrentMonthBounds()
	return &FinanceSession{
		userID:          userID,
		logger:          logger.With().Str("user_id", userID.String()).Logger(),
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		budgetRepo:      budgetRepo,
		accountRepo:     accountRepo,
		state:           SessionLoading,
		dateRange:       domain.DateRange{Start: start, End: end},
	}
}

// Init loads all collections from the repositories and computes the first
// summary. A failed read for one collection degrades to an empty slice and a
// logged warning rather than failing the whole session. Init runs at most
// once; concurrent callers block until the first load completes.
func (s *FinanceSession) Init() {
	s.initOnce.Do(s.load)
}

func (s *FinanceSession) load() {
	categories, err := s.categoryRepo.GetAllByUser(s.userID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load categories, starting empty")
		categories = nil
	}
	transactions, err := s.transactionRepo.GetAllByUser(s.userID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load transactions, starting empty")
		transactions = nil
	}
	budgets, err := s.budgetRepo.GetAllByUser(s.userID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load budgets, starting empty")
		budgets = nil
	}
	accounts, err := s.accountRepo.GetAllByUser(s.userID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load accounts, starting empty")
		accounts = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = categories
	s.transactions = transactions
	s.budgets = budgets
	s.accounts = accounts
	if len(accounts) > 0 {
		id := accounts[0].ID
		s.currentAccountID = &id
	}
	s.recomputeLocked()
	s.state = SessionReady
}

// Teardown clears all in-memory state. The session must not be used after.
func (s *FinanceSession) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = nil
	s.transactions = nil
	s.budgets = nil
	s.accounts = nil
	s.currentAccountID = nil
	s.summary = domain.FinanceSummary{}
	s.state = SessionClosed
}

// State returns the session lifecycle state
func (s *FinanceSession) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *FinanceSession) ready() error {
	if s.state != SessionReady {
		return domain.ErrSessionNotReady
	}
	return nil
}

// recomputeLocked rebuilds the summary from the current collections. Callers
// must hold the write lock.
func (s *FinanceSession) recomputeLocked() {
	s.summary = *domain.Summarize(s.transactions, s.budgets, s.dateRange)
}

// Categories returns a copy of the category list
func (s *FinanceSession) Categories() ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	out := make([]*domain.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

// Transactions returns a copy of the transaction list, optionally filtered
func (s *FinanceSession) Transactions(filters domain.TransactionFilters) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return domain.FilterTransactions(s.transactions, filters), nil
}

// Budgets returns a copy of the budget list
func (s *FinanceSession) Budgets() ([]*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	out := make([]*domain.Budget, len(s.budgets))
	copy(out, s.budgets)
	return out, nil
}

// Accounts returns a copy of the account list
func (s *FinanceSession) Accounts() ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	out := make([]*domain.Account, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

// Summary returns the current derived summary
func (s *FinanceSession) Summary() (domain.FinanceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return domain.FinanceSummary{}, err
	}
	return s.summary, nil
}

// DateRange returns the active reporting range
func (s *FinanceSession) DateRange() domain.DateRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dateRange
}

// SetDateRange changes the reporting range and recomputes the summary
func (s *FinanceSession) SetDateRange(r domain.DateRange) error {
	if r.Start.After(r.End) {
		return domain.ErrInvalidDateRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	s.dateRange = r
	s.recomputeLocked()
	return nil
}

// CurrentAccount returns the selected account, or nil when none is selected
func (s *FinanceSession) CurrentAccount() (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.currentAccountID == nil {
		return nil, nil
	}
	for _, a := range s.accounts {
		if a.ID == *s.currentAccountID {
			return a, nil
		}
	}
	return nil, nil
}

// SetCurrentAccount selects an account for the session. The selection is
// session-local and not persisted.
func (s *FinanceSession) SetCurrentAccount(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	for _, a := range s.accounts {
		if a.ID == id {
			s.currentAccountID = &id
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

// --- categories ---

func validateCategory(name, icon, color string, txType domain.TransactionType) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxCategoryNameLength {
		return "", domain.ErrNameTooLong
	}
	if txType != domain.TransactionTypeIncome && txType != domain.TransactionTypeExpense {
		return "", domain.ErrInvalidType
	}
	return name, nil
}

// AddCategory validates and persists a category, then adds it to the session
func (s *FinanceSession) AddCategory(name, icon, color string, txType domain.TransactionType) (*domain.Category, error) {
	name, err := validateCategory(name, icon, color, txType)
	if err != nil {
		return nil, err
	}

	created, err := s.categoryRepo.Create(&domain.Category{
		UserID: s.userID,
		Name:   name,
		Icon:   icon,
		Color:  color,
		Type:   txType,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.categories = append(s.categories, created)
	return created, nil
}

// UpdateCategory validates and persists a category change. Transactions that
// embed the old category snapshot keep it; only future transactions pick up
// the new values.
func (s *FinanceSession) UpdateCategory(id uuid.UUID, name, icon, color string, txType domain.TransactionType) (*domain.Category, error) {
	name, err := validateCategory(name, icon, color, txType)
	if err != nil {
		return nil, err
	}

	updated, err := s.categoryRepo.Update(&domain.Category{
		ID:     id,
		UserID: s.userID,
		Name:   name,
		Icon:   icon,
		Color:  color,
		Type:   txType,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	for i, c := range s.categories {
		if c.ID == id {
			s.categories[i] = updated
			break
		}
	}
	return updated, nil
}

// DeleteCategory removes a category. A category referenced by any transaction
// or budget in the session is rejected before the remote call is attempted;
// the database foreign keys enforce the same rule for rows the session has
// not loaded.
func (s *FinanceSession) DeleteCategory(id uuid.UUID) error {
	s.mu.RLock()
	inUse := false
	for _, t := range s.transactions {
		if t.Category.ID == id {
			inUse = true
			break
		}
	}
	if !inUse {
		for _, b := range s.budgets {
			if b.CategoryID == id {
				inUse = true
				break
			}
		}
	}
	s.mu.RUnlock()
	if inUse {
		return domain.ErrCategoryInUse
	}

	if err := s.categoryRepo.Delete(s.userID, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			break
		}
	}
	return nil
}

// --- transactions ---

// TransactionInput contains input for creating or updating a transaction
type TransactionInput struct {
	Amount            decimal.Decimal
	Description       string
	CategoryID        uuid.UUID
	Date              time.Time
	PaymentMethod     domain.PaymentMethod
	Recurring         bool
	RecurringInterval *domain.RecurringInterval
	Notes             *string
}

func (s *FinanceSession) validateTransaction(input *TransactionInput) (*domain.Category, error) {
	input.Description = strings.TrimSpace(input.Description)
	if input.Description == "" {
		return nil, domain.ErrDescriptionRequired
	}
	if len(input.Description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if !domain.ValidPaymentMethod(input.PaymentMethod) {
		return nil, domain.ErrInvalidPaymentMethod
	}
	if input.Recurring {
		if input.RecurringInterval == nil {
			return nil, domain.ErrIntervalRequired
		}
		if !domain.ValidRecurringInterval(*input.RecurringInterval) {
			return nil, domain.ErrInvalidInterval
		}
	} else if input.RecurringInterval != nil {
		return nil, domain.ErrIntervalNotAllowed
	}
	if input.CategoryID == uuid.Nil {
		return nil, domain.ErrCategoryRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == input.CategoryID {
			return c, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

// AddTransaction validates and persists a transaction, then adds it to the
// session and recomputes the summary
func (s *FinanceSession) AddTransaction(input TransactionInput) (*domain.Transaction, error) {
	category, err := s.validateTransaction(&input)
	if err != nil {
		return nil, err
	}

	created, err := s.transactionRepo.Create(&domain.Transaction{
		UserID:            s.userID,
		Amount:            input.Amount,
		Description:       input.Description,
		Category:          *category,
		Date:              util.Truncate(input.Date),
		PaymentMethod:     input.PaymentMethod,
		Recurring:         input.Recurring,
		RecurringInterval: input.RecurringInterval,
		Notes:             input.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.transactions = append(s.transactions, created)
	s.recomputeLocked()
	return created, nil
}

// UpdateTransaction validates and persists a transaction change, then updates
// the session and recomputes the summary
func (s *FinanceSession) UpdateTransaction(id uuid.UUID, input TransactionInput) (*domain.Transaction, error) {
	category, err := s.validateTransaction(&input)
	if err != nil {
		return nil, err
	}

	updated, err := s.transactionRepo.Update(&domain.Transaction{
		ID:                id,
		UserID:            s.userID,
		Amount:            input.Amount,
		Description:       input.Description,
		Category:          *category,
		Date:              util.Truncate(input.Date),
		PaymentMethod:     input.PaymentMethod,
		Recurring:         input.Recurring,
		RecurringInterval: input.RecurringInterval,
		Notes:             input.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	for i, t := range s.transactions {
		if t.ID == id {
			s.transactions[i] = updated
			break
		}
	}
	s.recomputeLocked()
	return updated, nil
}

// DeleteTransaction removes a transaction and recomputes the summary
func (s *FinanceSession) DeleteTransaction(id uuid.UUID) error {
	if err := s.transactionRepo.Delete(s.userID, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	for i, t := range s.transactions {
		if t.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			break
		}
	}
	s.recomputeLocked()
	return nil
}

// SetTransactionReceipt replaces a transaction's receipt URL in the session
// after the repository write succeeded elsewhere
func (s *FinanceSession) SetTransactionReceipt(updated *domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.transactions {
		if t.ID == updated.ID {
			s.transactions[i] = updated
			break
		}
	}
}

// --- budgets ---

// BudgetInput contains input for creating or updating a budget
type BudgetInput struct {
	CategoryID uuid.UUID
	Amount     decimal.Decimal
	Period     domain.BudgetPeriod
	StartDate  time.Time
	EndDate    *time.Time
}

func (s *FinanceSession) validateBudget(input BudgetInput) error {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	if !domain.ValidBudgetPeriod(input.Period) {
		return domain.ErrInvalidPeriod
	}
	if input.EndDate != nil && input.StartDate.After(*input.EndDate) {
		return domain.ErrInvalidDateRange
	}
	if input.CategoryID == uuid.Nil {
		return domain.ErrCategoryRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == input.CategoryID {
			return nil
		}
	}
	return domain.ErrCategoryNotFound
}

// AddBudget validates and persists a budget, then adds it to the session and
// recomputes the summary
func (s *FinanceSession) AddBudget(input BudgetInput) (*domain.Budget, error) {
	if err := s.validateBudget(input); err != nil {
		return nil, err
	}

	created, err := s.budgetRepo.Create(&domain.Budget{
		UserID:     s.userID,
		CategoryID: input.CategoryID,
		Amount:     input.Amount,
		Period:     input.Period,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.budgets = append(s.budgets, created)
	s.recomputeLocked()
	return created, nil
}

// UpdateBudget validates and persists a budget change
func (s *FinanceSession) UpdateBudget(id uuid.UUID, input BudgetInput) (*domain.Budget, error) {
	if err := s.validateBudget(input); err != nil {
		return nil, err
	}

	updated, err := s.budgetRepo.Update(&domain.Budget{
		ID:         id,
		UserID:     s.userID,
		CategoryID: input.CategoryID,
		Amount:     input.Amount,
		Period:     input.Period,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	for i, b := range s.budgets {
		if b.ID == id {
			s.budgets[i] = updated
			break
		}
	}
	s.recomputeLocked()
	return updated, nil
}

// DeleteBudget removes a budget and recomputes the summary
func (s *FinanceSession) DeleteBudget(id uuid.UUID) error {
	if err := s.budgetRepo.Delete(s.userID, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	for i, b := range s.budgets {
		if b.ID == id {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			break
		}
	}
	s.recomputeLocked()
	return nil
}

// --- accounts ---

// AccountInput contains input for creating or updating an account
type AccountInput struct {
	Name     string
	Balance  decimal.Decimal
	Currency string
	Color    string
}

func validateAccount(input *AccountInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return domain.ErrNameRequired
	}
	if len(input.Name) > domain.MaxAccountNameLength {
		return domain.ErrNameTooLong
	}
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	if input.Currency == "" {
		return domain.ErrCurrencyRequired
	}
	return nil
}

// AddAccount validates and persists an account, then adds it to the session
func (s *FinanceSession) AddAccount(input AccountInput) (*domain.Account, error) {
	if err := validateAccount(&input); err != nil {
		return nil, err
	}

	created, err := s.accountRepo.Create(&domain.Account{
		UserID:   s.userID,
		Name:     input.Name,
		Balance:  input.Balance,
		Currency: input.Currency,
		Color:    input.Color,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.accounts = append(s.accounts, created)
	if s.currentAccountID == nil {
		id := created.ID
		s.currentAccountID = &id
	}
	return created, nil
}

// UpdateAccount validates and persists an account change. The balance is an
// independent ledger value the user adjusts directly; transactions do not
// move it.
func (s *FinanceSession) UpdateAccount(id uuid.UUID, input AccountInput) (*domain.Account, error) {
	if err := validateAccount(&input); err != nil {
		return nil, err
	}

	updated, err := s.accountRepo.Update(&domain.Account{
		ID:       id,
		UserID:   s.userID,
		Name:     input.Name,
		Balance:  input.Balance,
		Currency: input.Currency,
		Color:    input.Color,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	for i, a := range s.accounts {
		if a.ID == id {
			s.accounts[i] = updated
			break
		}
	}
	return updated, nil
}

// DeleteAccount removes an account. Deleting the only remaining account is
// rejected so the user always has somewhere to record money.
func (s *FinanceSession) DeleteAccount(id uuid.UUID) error {
	s.mu.RLock()
	count := len(s.accounts)
	s.mu.RUnlock()
	if count <= 1 {
		return domain.ErrLastAccount
	}

	if err := s.accountRepo.Delete(s.userID, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	for i, a := range s.accounts {
		if a.ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			break
		}
	}
	if s.currentAccountID != nil && *s.currentAccountID == id {
		s.currentAccountID = nil
		if len(s.accounts) > 0 {
			next := s.accounts[0].ID
			s.currentAccountID = &next
		}
	}
	return nil
}
