package handlers

import (
	"net/http"

	"retail-erp/internal/models"
	"retail-erp/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExpenseHandler maneja los gastos operativos
type ExpenseHandler struct {
	expenses services.ExpenseService
	logger   *zap.Logger
}

func NewExpenseHandler(expenses services.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, logger: logger}
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	var req models.Expense
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.expenses.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "Error registrando gasto", err)
		return
	}
	respond(c, http.StatusCreated, "Gasto registrado", e)
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	if err := h.expenses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, h.logger, "Error eliminando gasto", err)
		return
	}
	respond(c, http.StatusOK, "Gasto eliminado", gin.H{"id": c.Param("id")})
}

func (h *ExpenseHandler) Get(c *gin.Context) {
	e, err := h.expenses.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Gasto no encontrado", err)
		return
	}
	respond(c, http.StatusOK, "Gasto encontrado", e)
}

// List acepta ?category= o el rango ?start=&end=
func (h *ExpenseHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		expenses []*models.Expense
		err      error
	)
	switch {
	case c.Query("category") != "":
		expenses, err = h.expenses.GetByCategory(ctx, models.ExpenseCategory(c.Query("category")))
	case c.Query("start") != "" || c.Query("end") != "":
		start, end, rangeErr := dateRange(c)
		if rangeErr != nil {
			fail(c, h.logger, "Rango de fechas inválido", rangeErr)
			return
		}
		expenses, err = h.expenses.GetByDateRange(ctx, start, end)
	default:
		expenses, err = h.expenses.GetAll(ctx)
	}
	if err != nil {
		fail(c, h.logger, "Error obteniendo gastos", err)
		return
	}
	respond(c, http.StatusOK, "Gastos obtenidos", gin.H{"gastos": expenses, "total": len(expenses)})
}

func (h *ExpenseHandler) TotalsByCategory(c *gin.Context) {
	totals, err := h.expenses.GetTotalByCategory(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "Error calculando totales", err)
		return
	}
	respond(c, http.StatusOK, "Totales por categoría", totals)
}
