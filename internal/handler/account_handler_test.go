package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

func createAccountRequest(t *testing.T, e *echo.Echo, handler *AccountHandler, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupUserContext(c, userID)

	if err := handler.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return rec
}

func TestCreateAccount_Success(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewAccountHandler(f.sessions)

	rec := createAccountRequest(t, e, handler, f.userID, `{"name": "Checking", "balance": "1000.50", "currency": "usd", "color": "#2196f3"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response domain.Account
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Name != "Checking" {
		t.Errorf("Expected name 'Checking', got %s", response.Name)
	}

	// Currency codes are normalized to upper case
	if response.Currency != "USD" {
		t.Errorf("Expected currency 'USD', got %s", response.Currency)
	}

	if !response.Balance.Equal(decimalFromString(t, "1000.50")) {
		t.Errorf("Expected balance 1000.50, got %s", response.Balance)
	}
}

func TestCreateAccount_DefaultZeroBalance(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewAccountHandler(f.sessions)

	rec := createAccountRequest(t, e, handler, f.userID, `{"name": "Savings", "currency": "EUR"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var response domain.Account
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if !response.Balance.IsZero() {
		t.Errorf("Expected zero balance, got %s", response.Balance)
	}
}

func TestCreateAccount_MissingCurrency(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewAccountHandler(f.sessions)

	rec := createAccountRequest(t, e, handler, f.userID, `{"name": "Cash"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestFirstAccountBecomesCurrent(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewAccountHandler(f.sessions)

	rec := createAccountRequest(t, e, handler, f.userID, `{"name": "Checking", "currency": "USD"}`)
	var created domain.Account
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/current", nil)
	currentRec := httptest.NewRecorder()
	c := e.NewContext(req, currentRec)
	setupUserContext(c, f.userID)

	if err := handler.GetCurrentAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if currentRec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", currentRec.Code)
	}

	var current domain.Account
	if err := json.Unmarshal(currentRec.Body.Bytes(), &current); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if current.ID != created.ID {
		t.Errorf("Expected current account %s, got %s", created.ID, current.ID)
	}
}

func TestSelectCurrentAccount(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewAccountHandler(f.sessions)

	createAccountRequest(t, e, handler, f.userID, `{"name": "Checking", "currency": "USD"}`)
	rec := createAccountRequest(t, e, handler, f.userID, `{"name": "Savings", "currency": "USD"}`)
	var savings domain.Account
	if err := json.Unmarshal(rec.Body.Bytes(), &savings); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	body := fmt.Sprintf(`{"accountId": "%s"}`, savings.ID)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/accounts/current", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	selectRec := httptest.NewRecorder()
	c := e.NewContext(req, selectRec)
	setupUserContext(c, f.userID)

	if err := handler.SelectCurrentAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if selectRec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", selectRec.Code)
	}

	var current domain.Account
	if err := json.Unmarshal(selectRec.Body.Bytes(), &current); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if current.ID != savings.ID {
		t.Errorf("Expected current account %s, got %s", savings.ID, current.ID)
	}
}

func TestDeleteAccount_LastAccountConflict(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewAccountHandler(f.sessions)

	rec := createAccountRequest(t, e, handler, f.userID, `{"name": "Only One", "currency": "USD"}`)
	var account domain.Account
	if err := json.Unmarshal(rec.Body.Bytes(), &account); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/"+account.ID.String(), nil)
	deleteRec := httptest.NewRecorder()
	c := e.NewContext(req, deleteRec)
	c.SetParamNames("id")
	c.SetParamValues(account.ID.String())
	setupUserContext(c, f.userID)

	if err := handler.DeleteAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if deleteRec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", deleteRec.Code)
	}
}

func TestDeleteAccount_Success(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewAccountHandler(f.sessions)

	createAccountRequest(t, e, handler, f.userID, `{"name": "Checking", "currency": "USD"}`)
	rec := createAccountRequest(t, e, handler, f.userID, `{"name": "Savings", "currency": "USD"}`)
	var savings domain.Account
	if err := json.Unmarshal(rec.Body.Bytes(), &savings); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/"+savings.ID.String(), nil)
	deleteRec := httptest.NewRecorder()
	c := e.NewContext(req, deleteRec)
	c.SetParamNames("id")
	c.SetParamValues(savings.ID.String())
	setupUserContext(c, f.userID)

	if err := handler.DeleteAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if deleteRec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", deleteRec.Code)
	}
}
