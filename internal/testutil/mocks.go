package testutil

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	ByID     map[uuid.UUID]*domain.User
	CreateFn func(subjectID, email string, name *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetBySubject retrieves a user by identity provider subject
func (m *MockUserRepository) GetBySubject(subjectID string) (*domain.User, error) {
	if user, ok := m.Users[subjectID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetBySubject creates or retrieves a user by subject
func (m *MockUserRepository) CreateOrGetBySubject(subjectID, email string, name *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(subjectID, email, name)
	}
	if user, ok := m.Users[subjectID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:        uuid.New(),
		SubjectID: subjectID,
		Email:     email,
		Name:      name,
	}
	m.Users[subjectID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// UpdateName updates only the user's name by subject
func (m *MockUserRepository) UpdateName(subjectID string, name string) (*domain.User, error) {
	user, ok := m.Users[subjectID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Name = &name
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.SubjectID] = user
	m.ByID[user.ID] = user
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[uuid.UUID]*domain.Category
	// InUse marks category IDs whose deletion fails with ErrCategoryInUse,
	// mirroring the foreign key restriction in Postgres.
	InUse    map[uuid.UUID]bool
	CreateFn func(category *domain.Category) (*domain.Category, error)
	UpdateFn func(category *domain.Category) (*domain.Category, error)
	DeleteFn func(userID, id uuid.UUID) error
	ListErr  error
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[uuid.UUID]*domain.Category),
		InUse:      make(map[uuid.UUID]bool),
	}
}

// Create creates a new category
func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	if m.CreateFn != nil {
		return m.CreateFn(category)
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	m.Categories[category.ID] = category
	return category, nil
}

// GetByID retrieves a category by ID
func (m *MockCategoryRepository) GetByID(userID, id uuid.UUID) (*domain.Category, error) {
	if c, ok := m.Categories[id]; ok && c.UserID == userID {
		return c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// GetAllByUser retrieves all categories for a user
func (m *MockCategoryRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Category, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.Category
	for _, c := range m.Categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Update updates an existing category
func (m *MockCategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(category)
	}
	existing, ok := m.Categories[category.ID]
	if !ok || existing.UserID != category.UserID {
		return nil, domain.ErrCategoryNotFound
	}
	category.UpdatedAt = time.Now()
	m.Categories[category.ID] = category
	return category, nil
}

// Delete removes a category
func (m *MockCategoryRepository) Delete(userID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(userID, id)
	}
	c, ok := m.Categories[id]
	if !ok || c.UserID != userID {
		return domain.ErrCategoryNotFound
	}
	if m.InUse[id] {
		return domain.ErrCategoryInUse
	}
	delete(m.Categories, id)
	return nil
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository.
// The mutex makes it safe to share with the materialization worker; tests that
// read Transactions while a worker runs should go through Snapshot.
type MockTransactionRepository struct {
	mu           sync.Mutex
	Transactions map[uuid.UUID]*domain.Transaction
	CreateFn     func(transaction *domain.Transaction) (*domain.Transaction, error)
	UpdateFn     func(transaction *domain.Transaction) (*domain.Transaction, error)
	DeleteFn     func(userID, id uuid.UUID) error
	ListErr      error
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateFn != nil {
		return m.CreateFn(transaction)
	}
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	transaction.CreatedAt = time.Now()
	transaction.UpdatedAt = transaction.CreatedAt
	m.Transactions[transaction.ID] = transaction
	return transaction, nil
}

// GetByID retrieves a transaction by ID
func (m *MockTransactionRepository) GetByID(userID, id uuid.UUID) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.Transactions[id]; ok && t.UserID == userID {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// GetAllByUser retrieves all transactions for a user
func (m *MockTransactionRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.Transaction
	for _, t := range m.Transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Update updates an existing transaction
func (m *MockTransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateFn != nil {
		return m.UpdateFn(transaction)
	}
	existing, ok := m.Transactions[transaction.ID]
	if !ok || existing.UserID != transaction.UserID {
		return nil, domain.ErrTransactionNotFound
	}
	transaction.UpdatedAt = time.Now()
	m.Transactions[transaction.ID] = transaction
	return transaction, nil
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteFn != nil {
		return m.DeleteFn(userID, id)
	}
	t, ok := m.Transactions[id]
	if !ok || t.UserID != userID {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// Snapshot copies the stored transactions under the lock
func (m *MockTransactionRepository) Snapshot() []*domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Transaction, 0, len(m.Transactions))
	for _, t := range m.Transactions {
		out = append(out, t)
	}
	return out
}

// SetReceiptURL attaches or clears a receipt URL on a transaction
func (m *MockTransactionRepository) SetReceiptURL(userID, id uuid.UUID, url *string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Transactions[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	t.ReceiptURL = url
	t.UpdatedAt = time.Now()
	return t, nil
}

// ListRecurring returns recurring transactions across all users
func (m *MockTransactionRepository) ListRecurring() ([]*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.Transaction
	for _, t := range m.Transactions {
		if t.Recurring {
			out = append(out, t)
		}
	}
	return out, nil
}

// HasOccurrence reports whether a matching transaction exists on the given date
func (m *MockTransactionRepository) HasOccurrence(userID, categoryID uuid.UUID, description string, date time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Transactions {
		if t.UserID == userID && t.Category.ID == categoryID && t.Description == description &&
			t.Date.Year() == date.Year() && t.Date.YearDay() == date.YearDay() {
			return true, nil
		}
	}
	return false, nil
}

// MockBudgetRepository is a mock implementation of domain.BudgetRepository
type MockBudgetRepository struct {
	Budgets  map[uuid.UUID]*domain.Budget
	CreateFn func(budget *domain.Budget) (*domain.Budget, error)
	UpdateFn func(budget *domain.Budget) (*domain.Budget, error)
	DeleteFn func(userID, id uuid.UUID) error
	ListErr  error
}

// NewMockBudgetRepository creates a new MockBudgetRepository
func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{
		Budgets: make(map[uuid.UUID]*domain.Budget),
	}
}

// Create creates a new budget
func (m *MockBudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	if m.CreateFn != nil {
		return m.CreateFn(budget)
	}
	if budget.ID == uuid.Nil {
		budget.ID = uuid.New()
	}
	budget.CreatedAt = time.Now()
	budget.UpdatedAt = budget.CreatedAt
	m.Budgets[budget.ID] = budget
	return budget, nil
}

// GetByID retrieves a budget by ID
func (m *MockBudgetRepository) GetByID(userID, id uuid.UUID) (*domain.Budget, error) {
	if b, ok := m.Budgets[id]; ok && b.UserID == userID {
		return b, nil
	}
	return nil, domain.ErrBudgetNotFound
}

// GetAllByUser retrieves all budgets for a user
func (m *MockBudgetRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Budget, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.Budget
	for _, b := range m.Budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// Update updates an existing budget
func (m *MockBudgetRepository) Update(budget *domain.Budget) (*domain.Budget, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(budget)
	}
	existing, ok := m.Budgets[budget.ID]
	if !ok || existing.UserID != budget.UserID {
		return nil, domain.ErrBudgetNotFound
	}
	budget.UpdatedAt = time.Now()
	m.Budgets[budget.ID] = budget
	return budget, nil
}

// Delete removes a budget
func (m *MockBudgetRepository) Delete(userID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(userID, id)
	}
	b, ok := m.Budgets[id]
	if !ok || b.UserID != userID {
		return domain.ErrBudgetNotFound
	}
	delete(m.Budgets, id)
	return nil
}

// MockAccountRepository is a mock implementation of domain.AccountRepository
type MockAccountRepository struct {
	Accounts map[uuid.UUID]*domain.Account
	CreateFn func(account *domain.Account) (*domain.Account, error)
	UpdateFn func(account *domain.Account) (*domain.Account, error)
	DeleteFn func(userID, id uuid.UUID) error
	ListErr  error
}

// NewMockAccountRepository creates a new MockAccountRepository
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts: make(map[uuid.UUID]*domain.Account),
	}
}

// Create creates a new account
func (m *MockAccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	if m.CreateFn != nil {
		return m.CreateFn(account)
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	m.Accounts[account.ID] = account
	return account, nil
}

// GetByID retrieves an account by ID
func (m *MockAccountRepository) GetByID(userID, id uuid.UUID) (*domain.Account, error) {
	if a, ok := m.Accounts[id]; ok && a.UserID == userID {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

// GetAllByUser retrieves all accounts for a user
func (m *MockAccountRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Account, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.Account
	for _, a := range m.Accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Update updates an existing account
func (m *MockAccountRepository) Update(account *domain.Account) (*domain.Account, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(account)
	}
	existing, ok := m.Accounts[account.ID]
	if !ok || existing.UserID != account.UserID {
		return nil, domain.ErrAccountNotFound
	}
	account.UpdatedAt = time.Now()
	m.Accounts[account.ID] = account
	return account, nil
}

// Delete removes an account
func (m *MockAccountRepository) Delete(userID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(userID, id)
	}
	a, ok := m.Accounts[id]
	if !ok || a.UserID != userID {
		return domain.ErrAccountNotFound
	}
	delete(m.Accounts, id)
	return nil
}

// MockReceiptRepository is an in-memory implementation of storage.ReceiptRepository
type MockReceiptRepository struct {
	Objects   map[string][]byte
	UploadErr error
}

// NewMockReceiptRepository creates a new MockReceiptRepository
func NewMockReceiptRepository() *MockReceiptRepository {
	return &MockReceiptRepository{
		Objects: make(map[string][]byte),
	}
}

// Upload stores the object in memory
func (m *MockReceiptRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Objects[objectPath] = buf
	return objectPath, nil
}

// Delete removes the object from memory
func (m *MockReceiptRepository) Delete(ctx context.Context, objectPath string) error {
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake URL for the object
func (m *MockReceiptRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + objectPath, nil
}
