package routes

import (
	"retail-erp/internal/handlers"
	"retail-erp/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers agrupa los handlers HTTP que monta SetupRoutes
type Handlers struct {
	Stock      *handlers.StockHandler
	POS        *handlers.POSHandler
	Clients    *handlers.ClientHandler
	Sales      *handlers.SaleHandler
	Purchases  *handlers.PurchaseHandler
	Billing    *handlers.BillingHandler
	Registers  *handlers.CashRegisterHandler
	Expenses   *handlers.ExpenseHandler
	Directory  *handlers.DirectoryHandler
	Monitoring *handlers.MonitoringHandler
	Health     *middleware.HealthChecker
}

// SetupRoutes configura todas las rutas de la aplicación
func SetupRoutes(router *gin.Engine, h Handlers) {
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.POST("", h.Stock.CreateProduct)
			products.GET("", h.Stock.GetProducts)
			products.GET("/low-stock", h.Stock.GetLowStock)
			products.GET("/code/:code", h.Stock.GetProductByCode)
			products.GET("/:id", h.Stock.GetProduct)
			products.PUT("/:id", h.Stock.UpdateProduct)
			products.DELETE("/:id", h.Stock.DeleteProduct)
			products.POST("/:id/adjust", h.Stock.AdjustStock)
			products.GET("/:id/movements", h.Stock.GetMovements)
		}

		// POS (búsqueda por código de barras con caché)
		pos := v1.Group("/pos")
		{
			pos.GET("/product/:barcode", h.POS.SearchProductByBarcode)
			pos.POST("/quick-sale", h.POS.QuickSale)
			pos.POST("/preload", h.POS.PreloadFrequentProducts)
			pos.GET("/cache-stats", h.POS.GetCacheStats)
			pos.DELETE("/cache/product/:barcode", h.POS.InvalidateProductCache)
			pos.DELETE("/cache/all", h.POS.InvalidateAllCache)
		}

		clients := v1.Group("/clients")
		{
			clients.POST("", h.Clients.Create)
			clients.GET("", h.Clients.List)
			clients.GET("/document/:document", h.Clients.GetByDocument)
			clients.GET("/:id", h.Clients.Get)
			clients.PUT("/:id", h.Clients.Update)
			clients.DELETE("/:id", h.Clients.Delete)
			clients.POST("/:id/credit-check", h.Clients.CheckCredit)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("", h.Sales.Create)
			sales.GET("", h.Sales.List)
			sales.GET("/today", h.Sales.Today)
			sales.GET("/:id", h.Sales.Get)
			sales.POST("/:id/cancel", h.Sales.Cancel)
		}

		purchases := v1.Group("/purchases")
		{
			purchases.POST("", h.Purchases.Create)
			purchases.GET("", h.Purchases.List)
			purchases.GET("/:id", h.Purchases.Get)
			purchases.PUT("/:id", h.Purchases.Update)
			purchases.POST("/:id/approve", h.Purchases.Approve)
			purchases.POST("/:id/receive", h.Purchases.Receive)
			purchases.POST("/:id/cancel", h.Purchases.Cancel)
		}

		invoices := v1.Group("/invoices")
		{
			invoices.POST("", h.Billing.CreateInvoice)
			invoices.GET("", h.Billing.ListInvoices)
			invoices.GET("/overdue", h.Billing.OverdueInvoices)
			invoices.POST("/overdue-sweep", h.Billing.SweepInvoices)
			invoices.GET("/:id", h.Billing.GetInvoice)
			invoices.POST("/:id/pay", h.Billing.PayInvoice)
			invoices.POST("/:id/cancel", h.Billing.CancelInvoice)
		}

		accounts := v1.Group("/accounts")
		{
			accounts.POST("", h.Billing.CreateAccount)
			accounts.GET("", h.Billing.ListAccounts)
			accounts.GET("/overdue", h.Billing.OverdueAccounts)
			accounts.GET("/totals", h.Billing.AccountTotals)
			accounts.GET("/cash-flow", h.Billing.CashFlow)
			accounts.POST("/overdue-sweep", h.Billing.SweepAccounts)
			accounts.GET("/:id", h.Billing.GetAccount)
			accounts.PUT("/:id", h.Billing.UpdateAccount)
			accounts.POST("/:id/pay", h.Billing.PayAccount)
			accounts.POST("/:id/cancel", h.Billing.CancelAccount)
		}

		registers := v1.Group("/registers")
		{
			registers.POST("/open", h.Registers.Open)
			registers.GET("", h.Registers.List)
			registers.GET("/today", h.Registers.Today)
			registers.GET("/user/:userId/open", h.Registers.OpenForUser)
			registers.GET("/:id", h.Registers.Get)
			registers.POST("/:id/close", h.Registers.Close)
			registers.POST("/:id/transactions", h.Registers.AddTransaction)
			registers.GET("/:id/transactions", h.Registers.Transactions)
			registers.GET("/:id/expected-balance", h.Registers.ExpectedBalance)
			registers.POST("/:id/rebuild-totals", h.Registers.RebuildTotals)
		}

		expenses := v1.Group("/expenses")
		{
			expenses.POST("", h.Expenses.Create)
			expenses.GET("", h.Expenses.List)
			expenses.GET("/totals", h.Expenses.TotalsByCategory)
			expenses.GET("/:id", h.Expenses.Get)
			expenses.DELETE("/:id", h.Expenses.Delete)
		}

		suppliers := v1.Group("/suppliers")
		{
			suppliers.POST("", h.Directory.CreateSupplier)
			suppliers.GET("", h.Directory.ListSuppliers)
			suppliers.GET("/:id", h.Directory.GetSupplier)
			suppliers.PUT("/:id", h.Directory.UpdateSupplier)
			suppliers.DELETE("/:id", h.Directory.DeleteSupplier)
		}

		employees := v1.Group("/employees")
		{
			employees.POST("", h.Directory.CreateEmployee)
			employees.GET("", h.Directory.ListEmployees)
			employees.GET("/payroll", h.Directory.Payroll)
			employees.GET("/:id", h.Directory.GetEmployee)
			employees.PUT("/:id", h.Directory.UpdateEmployee)
			employees.DELETE("/:id", h.Directory.DeleteEmployee)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/metrics", h.Monitoring.GetMetrics)
			monitoring.GET("/metrics/summary", h.Monitoring.GetMetricsSummary)
			monitoring.GET("/ws", h.Monitoring.WebSocketMetrics)
		}
	}

	router.GET("/health", h.Health.HealthCheck)
	router.GET("/health/monitoring", h.Monitoring.HealthCheck)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Retail ERP API",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": gin.H{
				"health":     "/health",
				"api":        "/api/v1",
				"products":   "/api/v1/products",
				"pos":        "/api/v1/pos",
				"clients":    "/api/v1/clients",
				"sales":      "/api/v1/sales",
				"purchases":  "/api/v1/purchases",
				"invoices":   "/api/v1/invoices",
				"accounts":   "/api/v1/accounts",
				"registers":  "/api/v1/registers",
				"expenses":   "/api/v1/expenses",
				"suppliers":  "/api/v1/suppliers",
				"employees":  "/api/v1/employees",
				"monitoring": "/api/v1/monitoring/metrics",
			},
		})
	})
}
