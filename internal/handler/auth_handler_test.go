package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/middleware"
	"github.com/moneta-app/moneta-backend/internal/service"
	"github.com/moneta-app/moneta-backend/internal/testutil"
)

// Helper to set up auth context with token claims only
func setupAuthContext(c echo.Context, subject, email, name string) {
	customClaims := &middleware.CustomClaims{
		Email: email,
		Name:  name,
	}
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Subject: subject,
		},
		CustomClaims: customClaims,
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.SubjectKey, subject)
	c.SetRequest(c.Request().WithContext(ctx))
}

// Helper to set up auth context with a resolved internal user ID
func setupUserContext(c echo.Context, userID uuid.UUID) {
	ctx := context.WithValue(c.Request().Context(), middleware.UserIDKey, userID)
	c.SetRequest(c.Request().WithContext(ctx))
}

// handlerFixture wires a session manager over in-memory repositories
type handlerFixture struct {
	userID       uuid.UUID
	categories   *testutil.MockCategoryRepository
	transactions *testutil.MockTransactionRepository
	budgets      *testutil.MockBudgetRepository
	accounts     *testutil.MockAccountRepository
	sessions     *service.SessionManager
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		userID:       uuid.New(),
		categories:   testutil.NewMockCategoryRepository(),
		transactions: testutil.NewMockTransactionRepository(),
		budgets:      testutil.NewMockBudgetRepository(),
		accounts:     testutil.NewMockAccountRepository(),
	}
	f.sessions = service.NewSessionManager(f.categories, f.transactions, f.budgets, f.accounts, zerolog.Nop())
	return f
}

// seedCategory adds a category to the repository before the session loads
func (f *handlerFixture) seedCategory(name string, txType domain.TransactionType) *domain.Category {
	category := &domain.Category{
		ID:     uuid.New(),
		UserID: f.userID,
		Name:   name,
		Type:   txType,
	}
	f.categories.Categories[category.ID] = category
	return category
}

func TestCallback_NewUser(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	userRepo := testutil.NewMockUserRepository()
	authService := service.NewAuthService(userRepo)
	handler := NewAuthHandler(authService, f.sessions)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupAuthContext(c, "auth0|newuser123", "new@example.com", "New User")

	err := handler.Callback(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response AuthCallbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if !response.IsNewUser {
		t.Error("Expected isNewUser to be true")
	}

	if response.User.Email != "new@example.com" {
		t.Errorf("Expected email 'new@example.com', got %s", response.User.Email)
	}

	if response.User.Name == nil || *response.User.Name != "New User" {
		t.Errorf("Expected name 'New User', got %v", response.User.Name)
	}
}

func TestCallback_ExistingUser(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	userRepo := testutil.NewMockUserRepository()
	name := "Existing User"
	userRepo.AddUser(&domain.User{
		ID:        uuid.New(),
		SubjectID: "auth0|existing",
		Email:     "existing@example.com",
		Name:      &name,
	})
	authService := service.NewAuthService(userRepo)
	handler := NewAuthHandler(authService, f.sessions)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupAuthContext(c, "auth0|existing", "existing@example.com", "Existing User")

	err := handler.Callback(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response AuthCallbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.IsNewUser {
		t.Error("Expected isNewUser to be false")
	}
}

func TestCallback_NoAuthContext(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	authService := service.NewAuthService(testutil.NewMockUserRepository())
	handler := NewAuthHandler(authService, f.sessions)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/callback", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Callback(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestMe_Success(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	userRepo := testutil.NewMockUserRepository()
	user := &domain.User{
		ID:        f.userID,
		SubjectID: "auth0|me",
		Email:     "me@example.com",
	}
	userRepo.AddUser(user)
	authService := service.NewAuthService(userRepo)
	handler := NewAuthHandler(authService, f.sessions)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupUserContext(c, f.userID)

	err := handler.Me(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.ID != f.userID.String() {
		t.Errorf("Expected user ID %s, got %s", f.userID, response.ID)
	}

	if response.Email != "me@example.com" {
		t.Errorf("Expected email 'me@example.com', got %s", response.Email)
	}
}

func TestMe_Unauthorized(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	authService := service.NewAuthService(testutil.NewMockUserRepository())
	handler := NewAuthHandler(authService, f.sessions)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Me(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestLogout_ClosesSession(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	authService := service.NewAuthService(testutil.NewMockUserRepository())
	handler := NewAuthHandler(authService, f.sessions)

	// Warm a session so logout has something to tear down
	sess := f.sessions.Session(f.userID)
	if sess.State() != service.SessionReady {
		t.Fatalf("Expected session to be ready, got %v", sess.State())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupUserContext(c, f.userID)

	err := handler.Logout(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}

	if sess.State() != service.SessionClosed {
		t.Errorf("Expected session to be closed, got %v", sess.State())
	}
}
