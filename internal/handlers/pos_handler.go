package handlers

import (
	"net/http"
	"time"

	"retail-erp/internal/cache"
	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/services"
	"retail-erp/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// POSHandler maneja las operaciones específicas del POS
type POSHandler struct {
	productCache *cache.ProductCache
	products     services.ProductService
	sales        services.SaleService
	validate     *validation.Validator
	logger       *zap.Logger
}

// NewPOSHandler crea una nueva instancia del handler POS; productCache puede ser nil
func NewPOSHandler(productCache *cache.ProductCache, products services.ProductService, sales services.SaleService, v *validation.Validator, logger *zap.Logger) *POSHandler {
	return &POSHandler{
		productCache: productCache,
		products:     products,
		sales:        sales,
		validate:     v,
		logger:       logger,
	}
}

// SearchProductByBarcode busca un producto por código de barras (caché primero)
func (h *POSHandler) SearchProductByBarcode(c *gin.Context) {
	start := time.Now()
	barcode := c.Param("barcode")

	logger := h.logger.With(
		zap.String("handler", "search_product_barcode"),
		zap.String("barcode", barcode),
	)

	p, err := h.products.GetByBarcode(c.Request.Context(), barcode)
	if err != nil {
		logger.Warn("Producto no encontrado", zap.Duration("latency", time.Since(start)), zap.Error(err))
		fail(c, h.logger, "Producto no encontrado", err)
		return
	}

	logger.Info("Producto encontrado",
		zap.String("name", p.Name),
		zap.Duration("latency", time.Since(start)))

	respond(c, http.StatusOK, "Producto encontrado", gin.H{
		"producto":   models.NewProductPOSResponse(p),
		"latency_ms": time.Since(start).Milliseconds(),
	})
}

// QuickSale registra una venta de mostrador identificando los productos por código de barras
func (h *POSHandler) QuickSale(c *gin.Context) {
	start := time.Now()

	var req models.QuickSaleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		fail(c, h.logger, "Error en los datos de la venta", err)
		return
	}

	logger := h.logger.With(
		zap.String("handler", "quick_sale"),
		zap.Int("items", len(req.Items)),
	)

	saleReq := &models.CreateSaleRequest{
		ClientID:       req.ClientID,
		UserID:         req.UserID,
		Discount:       req.Discount,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		CashRegisterID: req.CashRegisterID,
		Items:          make([]models.SaleItemRequest, 0, len(req.Items)),
	}

	var problems []string
	for _, it := range req.Items {
		p, err := h.products.GetByBarcode(c.Request.Context(), it.Barcode)
		if err != nil {
			if errs.IsNotFound(err) {
				problems = append(problems, "producto "+it.Barcode+" no encontrado")
				continue
			}
			fail(c, h.logger, "Error procesando venta", err)
			return
		}
		saleReq.Items = append(saleReq.Items, models.SaleItemRequest{ProductID: p.ID, Quantity: it.Quantity})
	}

	if len(problems) > 0 {
		logger.Warn("Errores en venta rápida", zap.Strings("errores", problems))
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "❌ Errores en la venta",
			"errors":  problems,
			"code":    "not_found",
		})
		return
	}

	sale, err := h.sales.Create(c.Request.Context(), saleReq)
	if err != nil {
		fail(c, h.logger, "Error procesando venta", err)
		return
	}

	logger.Info("Venta rápida completada",
		zap.Int64("sale_number", sale.SaleNumber),
		zap.Duration("latency", time.Since(start)))

	respond(c, http.StatusCreated, "Venta procesada correctamente", gin.H{
		"venta":      sale,
		"latency_ms": time.Since(start).Milliseconds(),
	})
}

// PreloadFrequentProducts carga en el caché los productos indicados
func (h *POSHandler) PreloadFrequentProducts(c *gin.Context) {
	var req models.PreloadRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		fail(c, h.logger, "Error en los datos", err)
		return
	}

	loaded, missing := 0, make([]string, 0)
	for _, barcode := range req.Barcodes {
		if _, err := h.products.GetByBarcode(c.Request.Context(), barcode); err != nil {
			missing = append(missing, barcode)
			continue
		}
		loaded++
	}

	h.logger.Info("Productos pre-cargados",
		zap.String("handler", "preload_products"),
		zap.Int("loaded", loaded),
		zap.Int("missing", len(missing)))

	respond(c, http.StatusOK, "Productos pre-cargados", gin.H{
		"cargados":    loaded,
		"faltantes":   missing,
		"cache_stats": h.cacheStats(),
	})
}

func (h *POSHandler) GetCacheStats(c *gin.Context) {
	respond(c, http.StatusOK, "Estadísticas del caché", h.cacheStats())
}

func (h *POSHandler) cacheStats() gin.H {
	if h.productCache == nil {
		return gin.H{"enabled": false}
	}
	stats := h.productCache.GetStats()
	return gin.H{
		"enabled":        true,
		"redis":          h.productCache.HasRedis(),
		"hits":           stats.Hits,
		"misses":         stats.Misses,
		"total_requests": stats.TotalRequests,
		"total_keys":     stats.TotalKeys,
	}
}

// InvalidateProductCache saca un código de barras del caché
func (h *POSHandler) InvalidateProductCache(c *gin.Context) {
	barcode := c.Param("barcode")
	if h.productCache != nil {
		if err := h.productCache.InvalidateProduct(c.Request.Context(), barcode); err != nil {
			fail(c, h.logger, "Error invalidando caché", errs.Storage("invalidate_product_cache", err))
			return
		}
	}
	respond(c, http.StatusOK, "Caché invalidado", gin.H{"barcode": barcode})
}

// InvalidateAllCache vacía el caché de productos
func (h *POSHandler) InvalidateAllCache(c *gin.Context) {
	n, err := h.products.InvalidateCache(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "Error invalidando caché", errs.Storage("invalidate_cache", err))
		return
	}

	h.logger.Info("Caché de productos invalidado", zap.Int("keys", n))
	respond(c, http.StatusOK, "Caché invalidado", gin.H{"keys_removed": n})
}
