package handlers

import (
	"net/http"
	"time"

	"retail-erp/internal/models"
	"retail-erp/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StockHandler maneja las peticiones HTTP de productos e inventario
type StockHandler struct {
	products services.ProductService
	logger   *zap.Logger
}

// NewStockHandler crea una nueva instancia del handler
func NewStockHandler(products services.ProductService, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		products: products,
		logger:   logger,
	}
}

// logDebug logs solo en modo debug
func (h *StockHandler) logDebug(msg string, fields ...zap.Field) {
	h.logger.Debug("🔍 [DEBUG] "+msg, fields...)
}

// logSuccess logs de éxito en todos los modos
func (h *StockHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

func (h *StockHandler) CreateProduct(c *gin.Context) {
	var req models.Product
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.products.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "Error creando producto", err)
		return
	}

	h.logSuccess("Producto creado", zap.String("product_id", p.ID), zap.String("code", p.Code))
	respond(c, http.StatusCreated, "Producto creado", p)
}

func (h *StockHandler) UpdateProduct(c *gin.Context) {
	var req models.Product
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.products.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.logger, "Error actualizando producto", err)
		return
	}
	respond(c, http.StatusOK, "Producto actualizado", p)
}

func (h *StockHandler) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, h.logger, "Error eliminando producto", err)
		return
	}
	respond(c, http.StatusOK, "Producto desactivado", gin.H{"id": c.Param("id")})
}

func (h *StockHandler) GetProduct(c *gin.Context) {
	p, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Producto no encontrado", err)
		return
	}
	respond(c, http.StatusOK, "Producto encontrado", p)
}

func (h *StockHandler) GetProductByCode(c *gin.Context) {
	p, err := h.products.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, h.logger, "Producto no encontrado", err)
		return
	}
	respond(c, http.StatusOK, "Producto encontrado", p)
}

// GetProducts lista los activos; con ?q= filtra por nombre, código o código de barras
func (h *StockHandler) GetProducts(c *gin.Context) {
	var (
		products []*models.Product
		err      error
	)
	if q := c.Query("q"); q != "" {
		products, err = h.products.Search(c.Request.Context(), q)
	} else {
		products, err = h.products.GetAll(c.Request.Context())
	}
	if err != nil {
		fail(c, h.logger, "Error obteniendo productos", err)
		return
	}

	respond(c, http.StatusOK, "Productos obtenidos", gin.H{
		"productos": products,
		"total":     len(products),
	})
}

func (h *StockHandler) GetLowStock(c *gin.Context) {
	products, err := h.products.GetLowStock(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "Error obteniendo stock bajo", err)
		return
	}

	h.logDebug("Stock bajo consultado", zap.Int("productos", len(products)))
	respond(c, http.StatusOK, "Productos con stock bajo", gin.H{
		"productos": products,
		"total":     len(products),
	})
}

// AdjustStock lleva el stock a la cantidad contada
func (h *StockHandler) AdjustStock(c *gin.Context) {
	start := time.Now()

	var req models.StockAdjustmentRequest
	if !bindJSON(c, &req) {
		return
	}

	movement, err := h.products.AdjustStock(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.logger, "Error ajustando stock", err)
		return
	}

	h.logSuccess("Stock ajustado",
		zap.String("product_id", movement.ProductID),
		zap.String("previous_quantity", movement.PreviousQuantity.String()),
		zap.String("new_quantity", movement.NewQuantity.String()),
		zap.Duration("latency", time.Since(start)))
	respond(c, http.StatusOK, "Stock ajustado", movement)
}

func (h *StockHandler) GetMovements(c *gin.Context) {
	movements, err := h.products.GetMovements(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Error obteniendo movimientos", err)
		return
	}

	respond(c, http.StatusOK, "Movimientos obtenidos", gin.H{
		"movimientos": movements,
		"total":       len(movements),
	})
}
