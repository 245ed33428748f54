package handlers

import (
	"net/http"

	"retail-erp/internal/models"
	"retail-erp/internal/services"
	"retail-erp/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PurchaseHandler maneja las órdenes de compra
type PurchaseHandler struct {
	purchases services.PurchaseService
	validate  *validation.Validator
	logger    *zap.Logger
}

func NewPurchaseHandler(purchases services.PurchaseService, v *validation.Validator, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, validate: v, logger: logger}
}

func (h *PurchaseHandler) Create(c *gin.Context) {
	var req models.CreatePurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.purchases.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "Error creando compra", err)
		return
	}
	respond(c, http.StatusCreated, "Compra creada", p)
}

func (h *PurchaseHandler) Update(c *gin.Context) {
	var req models.CreatePurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.purchases.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.logger, "Error actualizando compra", err)
		return
	}
	respond(c, http.StatusOK, "Compra actualizada", p)
}

func (h *PurchaseHandler) Approve(c *gin.Context) {
	p, err := h.purchases.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Error aprobando compra", err)
		return
	}
	respond(c, http.StatusOK, "Compra aprobada", p)
}

func (h *PurchaseHandler) Receive(c *gin.Context) {
	var req models.ReceivePurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		fail(c, h.logger, "Error en los datos", err)
		return
	}

	p, err := h.purchases.Receive(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		fail(c, h.logger, "Error recibiendo compra", err)
		return
	}
	respond(c, http.StatusOK, "Compra recibida", p)
}

func (h *PurchaseHandler) Cancel(c *gin.Context) {
	p, err := h.purchases.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Error cancelando compra", err)
		return
	}
	respond(c, http.StatusOK, "Compra cancelada", p)
}

func (h *PurchaseHandler) Get(c *gin.Context) {
	p, err := h.purchases.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Compra no encontrada", err)
		return
	}
	respond(c, http.StatusOK, "Compra encontrada", p)
}

// List acepta ?supplier_id=
func (h *PurchaseHandler) List(c *gin.Context) {
	var (
		purchases []*models.Purchase
		err       error
	)
	if supplierID := c.Query("supplier_id"); supplierID != "" {
		purchases, err = h.purchases.GetBySupplier(c.Request.Context(), supplierID)
	} else {
		purchases, err = h.purchases.GetAll(c.Request.Context())
	}
	if err != nil {
		fail(c, h.logger, "Error obteniendo compras", err)
		return
	}
	respond(c, http.StatusOK, "Compras obtenidas", gin.H{"compras": purchases, "total": len(purchases)})
}
