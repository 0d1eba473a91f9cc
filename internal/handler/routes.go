package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/savemymoney/savemymoney-backend/internal/middleware"
)

// Handlers groups the HTTP handlers served by the API
type Handlers struct {
	Document    *DocumentHandler
	Budget      *BudgetHandler
	Transaction *TransactionHandler
	View        *ViewHandler
	Transfer    *TransferHandler
	WebSocket   *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// WebSocket authenticates with the token query parameter
	e.GET("/ws", h.WebSocket.HandleWS)

	// API version 1 (protected)
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Document routes
	api.GET("/document", h.Document.GetDocument)
	api.PUT("/document", h.Document.ReplaceDocument)
	api.PATCH("/document", h.Document.MergeDocument)
	api.POST("/session/logout", h.Document.Logout)

	// Month routes
	months := api.Group("/months/:month")
	months.GET("/budgets", h.Budget.GetBudgets)
	months.POST("/budgets", h.Budget.CreateBudget)
	months.PUT("/budgets/:category", h.Budget.UpdateBudget)
	months.DELETE("/budgets/:category", h.Budget.DeleteBudget)
	months.GET("/transactions", h.View.GetTransactions)
	months.DELETE("/transactions/:type/:id", h.Transaction.DeleteTransaction)
	months.GET("/overview", h.View.GetOverview)
	months.GET("/categories", h.View.GetCategories)

	// Transaction routes
	api.POST("/transactions", h.Transaction.CreateTransaction)

	// Transfer routes
	api.GET("/export", h.Transfer.Export)
	api.POST("/import", h.Transfer.Import)
	api.POST("/reset", h.Transfer.Reset)
	api.POST("/export/backup", h.Transfer.Backup)
	api.GET("/export/backups", h.Transfer.ListBackups)
	api.POST("/export/backups/restore", h.Transfer.RestoreBackup)
}
