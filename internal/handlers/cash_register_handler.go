package handlers

import (
	"net/http"

	"retail-erp/internal/models"
	"retail-erp/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CashRegisterHandler maneja las sesiones de caja
type CashRegisterHandler struct {
	registers services.CashRegisterService
	logger    *zap.Logger
}

func NewCashRegisterHandler(registers services.CashRegisterService, logger *zap.Logger) *CashRegisterHandler {
	return &CashRegisterHandler{registers: registers, logger: logger}
}

func (h *CashRegisterHandler) Open(c *gin.Context) {
	var req models.OpenRegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.registers.Open(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "Error abriendo caja", err)
		return
	}
	respond(c, http.StatusCreated, "Caja abierta", r)
}

func (h *CashRegisterHandler) Close(c *gin.Context) {
	var req models.CloseRegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	r, err := h.registers.Close(ctx, c.Param("id"), &req)
	if err != nil {
		fail(c, h.logger, "Error cerrando caja", err)
		return
	}

	// El cierre no concilia; se informa el esperado para que lo compare quien cierra
	expected, err := h.registers.CalculateExpectedBalance(ctx, r.ID)
	if err != nil {
		fail(c, h.logger, "Error calculando saldo esperado", err)
		return
	}
	respond(c, http.StatusOK, "Caja cerrada", gin.H{
		"caja":       r,
		"expected":   expected.Expected,
		"difference": req.ClosingBalance.Sub(expected.Expected),
	})
}

func (h *CashRegisterHandler) AddTransaction(c *gin.Context) {
	var req models.CashTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := h.registers.AddTransaction(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.logger, "Error registrando movimiento", err)
		return
	}
	respond(c, http.StatusCreated, "Movimiento registrado", tx)
}

func (h *CashRegisterHandler) Transactions(c *gin.Context) {
	txs, err := h.registers.GetTransactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Error obteniendo movimientos", err)
		return
	}
	respond(c, http.StatusOK, "Movimientos obtenidos", gin.H{"movimientos": txs, "total": len(txs)})
}

func (h *CashRegisterHandler) ExpectedBalance(c *gin.Context) {
	b, err := h.registers.CalculateExpectedBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Error calculando saldo esperado", err)
		return
	}
	respond(c, http.StatusOK, "Saldo esperado", b)
}

func (h *CashRegisterHandler) RebuildTotals(c *gin.Context) {
	r, err := h.registers.RebuildTotals(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Error recalculando totales", err)
		return
	}
	respond(c, http.StatusOK, "Totales recalculados", r)
}

func (h *CashRegisterHandler) Get(c *gin.Context) {
	r, err := h.registers.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Caja no encontrada", err)
		return
	}
	respond(c, http.StatusOK, "Caja encontrada", r)
}

// List acepta ?user_id=
func (h *CashRegisterHandler) List(c *gin.Context) {
	var (
		registers []*models.CashRegister
		err       error
	)
	if userID := c.Query("user_id"); userID != "" {
		registers, err = h.registers.GetByUser(c.Request.Context(), userID)
	} else {
		registers, err = h.registers.GetAll(c.Request.Context())
	}
	if err != nil {
		fail(c, h.logger, "Error obteniendo cajas", err)
		return
	}
	respond(c, http.StatusOK, "Cajas obtenidas", gin.H{"cajas": registers, "total": len(registers)})
}

func (h *CashRegisterHandler) Today(c *gin.Context) {
	registers, err := h.registers.GetTodayRegisters(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "Error obteniendo cajas del día", err)
		return
	}
	respond(c, http.StatusOK, "Cajas del día", gin.H{"cajas": registers, "total": len(registers)})
}

// OpenForUser devuelve la caja abierta del usuario, o 404 si no tiene
func (h *CashRegisterHandler) OpenForUser(c *gin.Context) {
	r, err := h.registers.GetOpenRegister(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, h.logger, "Error obteniendo caja abierta", err)
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, models.APIResponse{
			Success: false,
			Message: "❌ El usuario no tiene caja abierta",
			Code:    "not_found",
		})
		return
	}
	respond(c, http.StatusOK, "Caja abierta encontrada", r)
}
