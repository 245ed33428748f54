package handlers

import (
	"net/http"

	"retail-erp/internal/models"
	"retail-erp/internal/services"
	"retail-erp/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClientHandler maneja clientes y su crédito
type ClientHandler struct {
	clients  services.ClientService
	validate *validation.Validator
	logger   *zap.Logger
}

func NewClientHandler(clients services.ClientService, v *validation.Validator, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{clients: clients, validate: v, logger: logger}
}

func (h *ClientHandler) Create(c *gin.Context) {
	var req models.Client
	if !bindJSON(c, &req) {
		return
	}
	client, err := h.clients.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "Error creando cliente", err)
		return
	}
	respond(c, http.StatusCreated, "Cliente creado", client)
}

func (h *ClientHandler) Update(c *gin.Context) {
	var req models.Client
	if !bindJSON(c, &req) {
		return
	}
	client, err := h.clients.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.logger, "Error actualizando cliente", err)
		return
	}
	respond(c, http.StatusOK, "Cliente actualizado", client)
}

func (h *ClientHandler) Delete(c *gin.Context) {
	if err := h.clients.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, h.logger, "Error eliminando cliente", err)
		return
	}
	respond(c, http.StatusOK, "Cliente desactivado", gin.H{"id": c.Param("id")})
}

func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.clients.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Cliente no encontrado", err)
		return
	}
	respond(c, http.StatusOK, "Cliente encontrado", client)
}

func (h *ClientHandler) GetByDocument(c *gin.Context) {
	client, err := h.clients.GetByDocument(c.Request.Context(), c.Param("document"))
	if err != nil {
		fail(c, h.logger, "Cliente no encontrado", err)
		return
	}
	respond(c, http.StatusOK, "Cliente encontrado", client)
}

// List con ?q= busca por nombre, documento o email
func (h *ClientHandler) List(c *gin.Context) {
	var (
		clients []*models.Client
		err     error
	)
	if q := c.Query("q"); q != "" {
		clients, err = h.clients.Search(c.Request.Context(), q)
	} else {
		clients, err = h.clients.GetAll(c.Request.Context())
	}
	if err != nil {
		fail(c, h.logger, "Error obteniendo clientes", err)
		return
	}
	respond(c, http.StatusOK, "Clientes obtenidos", gin.H{"clientes": clients, "total": len(clients)})
}

// CheckCredit informa si el cliente puede tomar amount más de deuda
func (h *ClientHandler) CheckCredit(c *gin.Context) {
	var req models.CreditCheckRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		fail(c, h.logger, "Error en los datos", err)
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	ok, err := h.clients.CheckCreditLimit(ctx, id, req.Amount)
	if err != nil {
		fail(c, h.logger, "Error consultando crédito", err)
		return
	}
	client, err := h.clients.GetByID(ctx, id)
	if err != nil {
		fail(c, h.logger, "Error consultando crédito", err)
		return
	}

	respond(c, http.StatusOK, "Crédito consultado", gin.H{
		"allowed":          ok,
		"credit_limit":     client.CreditLimit,
		"current_debt":     client.CurrentDebt,
		"available_credit": client.AvailableCredit(),
	})
}
