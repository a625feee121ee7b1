package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/moneta-app/moneta-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *AuthHandler,
	categoryHandler *CategoryHandler,
	transactionHandler *TransactionHandler,
	budgetHandler *BudgetHandler,
	accountHandler *AccountHandler,
	summaryHandler *SummaryHandler,
	reportHandler *ReportHandler,
	insightHandler *InsightHandler,
	receiptHandler *ReceiptHandler,
) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Auth routes
	auth := api.Group("/auth")
	auth.POST("/callback", authHandler.Callback)
	auth.GET("/me", authHandler.Me)
	auth.POST("/logout", authHandler.Logout)

	// Category routes
	categories := api.Group("/categories")
	categories.GET("", categoryHandler.GetCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Transaction routes
	transactions := api.Group("/transactions")
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/:id/receipt", receiptHandler.UploadReceipt)
	transactions.GET("/:id/receipt", receiptHandler.GetReceiptLink)
	transactions.DELETE("/:id/receipt", receiptHandler.DeleteReceipt)

	// Budget routes
	budgets := api.Group("/budgets")
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	// Account routes
	accounts := api.Group("/accounts")
	accounts.GET("", accountHandler.GetAccounts)
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("/current", accountHandler.GetCurrentAccount)
	accounts.PUT("/current", accountHandler.SelectCurrentAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	// Summary routes
	api.GET("/summary", summaryHandler.GetSummary)
	api.PUT("/summary/range", summaryHandler.SetDateRange)

	// Report routes
	reports := api.Group("/reports")
	reports.GET("/trends", reportHandler.GetTrends)
	reports.GET("/export", reportHandler.ExportTransactions)

	// Insight routes
	api.GET("/insights", insightHandler.GetInsights)
}
