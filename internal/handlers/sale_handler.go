package handlers

import (
	"net/http"
	"time"

	"retail-erp/internal/models"
	"retail-erp/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SaleHandler maneja el registro y la anulación de ventas
type SaleHandler struct {
	sales  services.SaleService
	logger *zap.Logger
}

func NewSaleHandler(sales services.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{sales: sales, logger: logger}
}

func (h *SaleHandler) Create(c *gin.Context) {
	start := time.Now()

	var req models.CreateSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.sales.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "Error registrando venta", err)
		return
	}

	h.logger.Debug("Venta registrada por HTTP",
		zap.String("handler", "create_sale"),
		zap.Int64("sale_number", sale.SaleNumber),
		zap.Duration("latency", time.Since(start)))
	respond(c, http.StatusCreated, "Venta registrada", sale)
}

func (h *SaleHandler) Cancel(c *gin.Context) {
	sale, err := h.sales.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Error cancelando venta", err)
		return
	}
	respond(c, http.StatusOK, "Venta cancelada", sale)
}

func (h *SaleHandler) Get(c *gin.Context) {
	sale, err := h.sales.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Venta no encontrada", err)
		return
	}
	respond(c, http.StatusOK, "Venta encontrada", sale)
}

// List acepta ?user_id= o ?client_id=
func (h *SaleHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		sales []*models.Sale
		err   error
	)
	switch {
	case c.Query("user_id") != "":
		sales, err = h.sales.GetByUser(ctx, c.Query("user_id"))
	case c.Query("client_id") != "":
		sales, err = h.sales.GetByClient(ctx, c.Query("client_id"))
	default:
		sales, err = h.sales.GetAll(ctx)
	}
	if err != nil {
		fail(c, h.logger, "Error obteniendo ventas", err)
		return
	}
	respond(c, http.StatusOK, "Ventas obtenidas", gin.H{"ventas": sales, "total": len(sales)})
}

// Today ventas completadas del día y su total
func (h *SaleHandler) Today(c *gin.Context) {
	ctx := c.Request.Context()
	sales, err := h.sales.GetTodaySales(ctx)
	if err != nil {
		fail(c, h.logger, "Error obteniendo ventas del día", err)
		return
	}
	total, err := h.sales.GetTodayTotal(ctx)
	if err != nil {
		fail(c, h.logger, "Error obteniendo ventas del día", err)
		return
	}
	respond(c, http.StatusOK, "Ventas del día", gin.H{
		"ventas":       sales,
		"cantidad":     len(sales),
		"total_amount": total,
	})
}
