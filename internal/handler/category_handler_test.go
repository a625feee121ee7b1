package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

func TestCreateCategory_Success(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewCategoryHandler(f.sessions)

	reqBody := `{"name": "Groceries", "icon": "cart", "color": "#4caf50", "type": "expense"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupUserContext(c, f.userID)

	err := handler.CreateCategory(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var response domain.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Name != "Groceries" {
		t.Errorf("Expected name 'Groceries', got %s", response.Name)
	}

	if response.Type != domain.TransactionTypeExpense {
		t.Errorf("Expected type 'expense', got %s", response.Type)
	}

	if response.UserID != f.userID {
		t.Errorf("Expected user ID %s, got %s", f.userID, response.UserID)
	}
}

func TestCreateCategory_InvalidType(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewCategoryHandler(f.sessions)

	reqBody := `{"name": "Groceries", "type": "transfer"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupUserContext(c, f.userID)

	err := handler.CreateCategory(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if problem.Type != ErrorTypeValidation {
		t.Errorf("Expected problem type %s, got %s", ErrorTypeValidation, problem.Type)
	}
}

func TestCreateCategory_EmptyName(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewCategoryHandler(f.sessions)

	reqBody := `{"name": "   ", "type": "expense"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupUserContext(c, f.userID)

	err := handler.CreateCategory(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateCategory_Unauthorized(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewCategoryHandler(f.sessions)

	reqBody := `{"name": "Groceries", "type": "expense"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// No user ID in context
	err := handler.CreateCategory(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetCategories_ReturnsSeeded(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	f.seedCategory("Salary", domain.TransactionTypeIncome)
	f.seedCategory("Rent", domain.TransactionTypeExpense)
	handler := NewCategoryHandler(f.sessions)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupUserContext(c, f.userID)

	err := handler.GetCategories(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response []domain.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response) != 2 {
		t.Errorf("Expected 2 categories, got %d", len(response))
	}
}

func TestUpdateCategory_Success(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	category := f.seedCategory("Food", domain.TransactionTypeExpense)
	handler := NewCategoryHandler(f.sessions)

	reqBody := `{"name": "Dining Out", "icon": "fork", "color": "#ff9800", "type": "expense"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/categories/"+category.ID.String(), strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(category.ID.String())

	setupUserContext(c, f.userID)

	err := handler.UpdateCategory(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response domain.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Name != "Dining Out" {
		t.Errorf("Expected name 'Dining Out', got %s", response.Name)
	}
}

func TestUpdateCategory_NotFound(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	handler := NewCategoryHandler(f.sessions)

	id := uuid.New()
	reqBody := `{"name": "Ghost", "type": "expense"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/categories/"+id.String(), strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	setupUserContext(c, f.userID)

	err := handler.UpdateCategory(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestDeleteCategory_Success(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	category := f.seedCategory("Unused", domain.TransactionTypeExpense)
	handler := NewCategoryHandler(f.sessions)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/categories/"+category.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(category.ID.String())

	setupUserContext(c, f.userID)

	err := handler.DeleteCategory(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
}

func TestDeleteCategory_InUseConflict(t *testing.T) {
	e := echo.New()
	f := newHandlerFixture()
	category := f.seedCategory("Groceries", domain.TransactionTypeExpense)
	f.transactions.Transactions[uuid.New()] = &domain.Transaction{
		ID:          uuid.New(),
		UserID:      f.userID,
		Amount:      decimal.NewFromInt(20),
		Description: "Weekly shop",
		Category:    *category,
		Date:        time.Now(),
	}
	handler := NewCategoryHandler(f.sessions)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/categories/"+category.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(category.ID.String())

	setupUserContext(c, f.userID)

	err := handler.DeleteCategory(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if problem.Type != ErrorTypeConflict {
		t.Errorf("Expected problem type %s, got %s", ErrorTypeConflict, problem.Type)
	}
}
