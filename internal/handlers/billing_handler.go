package handlers

import (
	"net/http"

	"retail-erp/internal/models"
	"retail-erp/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BillingHandler maneja facturas y cuentas por cobrar/pagar
type BillingHandler struct {
	invoices services.InvoiceService
	accounts services.AccountService
	logger   *zap.Logger
}

func NewBillingHandler(invoices services.InvoiceService, accounts services.AccountService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{invoices: invoices, accounts: accounts, logger: logger}
}

// ===== Facturas =====

func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req models.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.invoices.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "Error emitiendo factura", err)
		return
	}
	respond(c, http.StatusCreated, "Factura emitida", inv)
}

func (h *BillingHandler) PayInvoice(c *gin.Context) {
	var req models.PaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.invoices.Pay(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.logger, "Error registrando pago", err)
		return
	}
	respond(c, http.StatusOK, "Pago registrado", inv)
}

func (h *BillingHandler) CancelInvoice(c *gin.Context) {
	inv, err := h.invoices.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Error cancelando factura", err)
		return
	}
	respond(c, http.StatusOK, "Factura cancelada", inv)
}

func (h *BillingHandler) GetInvoice(c *gin.Context) {
	inv, err := h.invoices.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Factura no encontrada", err)
		return
	}
	respond(c, http.StatusOK, "Factura encontrada", inv)
}

// ListInvoices acepta ?client_id= o ?status=
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		invoices []*models.Invoice
		err      error
	)
	switch {
	case c.Query("client_id") != "":
		invoices, err = h.invoices.GetByClient(ctx, c.Query("client_id"))
	case c.Query("status") != "":
		invoices, err = h.invoices.GetByStatus(ctx, models.PaymentStatus(c.Query("status")))
	default:
		invoices, err = h.invoices.GetAll(ctx)
	}
	if err != nil {
		fail(c, h.logger, "Error obteniendo facturas", err)
		return
	}
	respond(c, http.StatusOK, "Facturas obtenidas", gin.H{"facturas": invoices, "total": len(invoices)})
}

func (h *BillingHandler) OverdueInvoices(c *gin.Context) {
	invoices, err := h.invoices.GetOverdue(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "Error obteniendo facturas vencidas", err)
		return
	}
	respond(c, http.StatusOK, "Facturas vencidas", gin.H{"facturas": invoices, "total": len(invoices)})
}

func (h *BillingHandler) SweepInvoices(c *gin.Context) {
	n, err := h.invoices.UpdateOverdueStatus(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "Error actualizando vencimientos", err)
		return
	}
	respond(c, http.StatusOK, "Vencimientos actualizados", gin.H{"updated": n})
}

// ===== Cuentas =====

func (h *BillingHandler) CreateAccount(c *gin.Context) {
	var req models.Account
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.accounts.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "Error creando cuenta", err)
		return
	}
	respond(c, http.StatusCreated, "Cuenta creada", a)
}

func (h *BillingHandler) UpdateAccount(c *gin.Context) {
	var req models.Account
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.accounts.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.logger, "Error actualizando cuenta", err)
		return
	}
	respond(c, http.StatusOK, "Cuenta actualizada", a)
}

func (h *BillingHandler) PayAccount(c *gin.Context) {
	var req models.PaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.accounts.Pay(c.Request.Context(), c.Param("id"), req.PaymentMethod)
	if err != nil {
		fail(c, h.logger, "Error pagando cuenta", err)
		return
	}
	respond(c, http.StatusOK, "Cuenta pagada", a)
}

func (h *BillingHandler) CancelAccount(c *gin.Context) {
	a, err := h.accounts.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Error cancelando cuenta", err)
		return
	}
	respond(c, http.StatusOK, "Cuenta cancelada", a)
}

func (h *BillingHandler) GetAccount(c *gin.Context) {
	a, err := h.accounts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Cuenta no encontrada", err)
		return
	}
	respond(c, http.StatusOK, "Cuenta encontrada", a)
}

// ListAccounts acepta ?type=, ?status= o ?pending=receivable|payable
func (h *BillingHandler) ListAccounts(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		accounts []*models.Account
		err      error
	)
	switch {
	case c.Query("pending") != "":
		accounts, err = h.accounts.GetPending(ctx, models.AccountType(c.Query("pending")))
	case c.Query("type") != "":
		accounts, err = h.accounts.GetByType(ctx, models.AccountType(c.Query("type")))
	case c.Query("status") != "":
		accounts, err = h.accounts.GetByStatus(ctx, models.PaymentStatus(c.Query("status")))
	default:
		accounts, err = h.accounts.GetAll(ctx)
	}
	if err != nil {
		fail(c, h.logger, "Error obteniendo cuentas", err)
		return
	}
	respond(c, http.StatusOK, "Cuentas obtenidas", gin.H{"cuentas": accounts, "total": len(accounts)})
}

func (h *BillingHandler) OverdueAccounts(c *gin.Context) {
	accounts, err := h.accounts.GetOverdue(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "Error obteniendo cuentas vencidas", err)
		return
	}
	respond(c, http.StatusOK, "Cuentas vencidas", gin.H{"cuentas": accounts, "total": len(accounts)})
}

func (h *BillingHandler) SweepAccounts(c *gin.Context) {
	n, err := h.accounts.UpdateOverdueStatus(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "Error actualizando vencimientos", err)
		return
	}
	respond(c, http.StatusOK, "Vencimientos actualizados", gin.H{"updated": n})
}

func (h *BillingHandler) AccountTotals(c *gin.Context) {
	ctx := c.Request.Context()
	receivable, err := h.accounts.GetTotalReceivable(ctx)
	if err != nil {
		fail(c, h.logger, "Error calculando totales", err)
		return
	}
	payable, err := h.accounts.GetTotalPayable(ctx)
	if err != nil {
		fail(c, h.logger, "Error calculando totales", err)
		return
	}
	respond(c, http.StatusOK, "Totales de cuentas", gin.H{
		"receivable": receivable,
		"payable":    payable,
		"balance":    receivable.Sub(payable),
	})
}

// CashFlow requiere ?start= y ?end=
func (h *BillingHandler) CashFlow(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		fail(c, h.logger, "Rango de fechas inválido", err)
		return
	}
	flow, err := h.accounts.GetCashFlow(c.Request.Context(), start, end)
	if err != nil {
		fail(c, h.logger, "Error calculando flujo de caja", err)
		return
	}
	respond(c, http.StatusOK, "Flujo de caja", flow)
}
