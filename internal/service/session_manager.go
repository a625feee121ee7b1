package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

// SessionManager keeps one FinanceSession per authenticated user. Sessions
// are created lazily on first access and torn down on logout.
type SessionManager struct {
	categoryRepo    domain.CategoryRepository
	transactionRepo domain.TransactionRepository
	budgetRepo      domain.BudgetRepository
	accountRepo     domain.AccountRepository
	logger          zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*FinanceSession
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(
	categoryRepo domain.CategoryRepository,
	transactionRepo domain.TransactionRepository,
	budgetRepo domain.BudgetRepository,
	accountRepo domain.AccountRepository,
	logger zerolog.Logger,
) *SessionManager {
	return &SessionManager{
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		budgetRepo:      budgetRepo,
		accountRepo:     accountRepo,
		logger:          logger,
		sessions:        make(map[uuid.UUID]*FinanceSession),
	}
}

// Session returns the user's session, initializing one on first access
func (m *SessionManager) Session(userID uuid.UUID) *FinanceSession {
	m.mu.Lock()
	if sess, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return sess
	}
	sess := NewFinanceSession(userID, m.categoryRepo, m.transactionRepo, m.budgetRepo, m.accountRepo, m.logger)
	m.sessions[userID] = sess
	m.mu.Unlock()

	// Init outside the manager lock so a slow load for one user does not
	// block every other user's session lookup.
	sess.Init()
	return sess
}

// Close tears down and removes the user's session. Safe to call when no
// session exists.
func (m *SessionManager) Close(userID uuid.UUID) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if ok {
		sess.Teardown()
	}
}

// CloseAll tears down every session, used during server shutdown
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*FinanceSession)
	m.mu.Unlock()
	for _, sess := range sessions {
		sess.Teardown()
	}
}
