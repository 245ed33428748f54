package handlers

import (
	"net/http"

	"retail-erp/internal/models"
	"retail-erp/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DirectoryHandler maneja proveedores y empleados
type DirectoryHandler struct {
	suppliers services.SupplierService
	employees services.EmployeeService
	logger    *zap.Logger
}

func NewDirectoryHandler(suppliers services.SupplierService, employees services.EmployeeService, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{suppliers: suppliers, employees: employees, logger: logger}
}

// ===== Proveedores =====

func (h *DirectoryHandler) CreateSupplier(c *gin.Context) {
	var req models.Supplier
	if !bindJSON(c, &req) {
		return
	}
	sp, err := h.suppliers.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "Error creando proveedor", err)
		return
	}
	respond(c, http.StatusCreated, "Proveedor creado", sp)
}

func (h *DirectoryHandler) UpdateSupplier(c *gin.Context) {
	var req models.Supplier
	if !bindJSON(c, &req) {
		return
	}
	sp, err := h.suppliers.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.logger, "Error actualizando proveedor", err)
		return
	}
	respond(c, http.StatusOK, "Proveedor actualizado", sp)
}

func (h *DirectoryHandler) DeleteSupplier(c *gin.Context) {
	if err := h.suppliers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, h.logger, "Error eliminando proveedor", err)
		return
	}
	respond(c, http.StatusOK, "Proveedor desactivado", gin.H{"id": c.Param("id")})
}

func (h *DirectoryHandler) GetSupplier(c *gin.Context) {
	sp, err := h.suppliers.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Proveedor no encontrado", err)
		return
	}
	respond(c, http.StatusOK, "Proveedor encontrado", sp)
}

// ListSuppliers con ?active=true sólo los activos
func (h *DirectoryHandler) ListSuppliers(c *gin.Context) {
	var (
		suppliers []*models.Supplier
		err       error
	)
	if c.Query("active") == "true" {
		suppliers, err = h.suppliers.GetActive(c.Request.Context())
	} else {
		suppliers, err = h.suppliers.GetAll(c.Request.Context())
	}
	if err != nil {
		fail(c, h.logger, "Error obteniendo proveedores", err)
		return
	}
	respond(c, http.StatusOK, "Proveedores obtenidos", gin.H{"proveedores": suppliers, "total": len(suppliers)})
}

// ===== Empleados =====

func (h *DirectoryHandler) CreateEmployee(c *gin.Context) {
	var req models.Employee
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.employees.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "Error creando empleado", err)
		return
	}
	respond(c, http.StatusCreated, "Empleado creado", e)
}

func (h *DirectoryHandler) UpdateEmployee(c *gin.Context) {
	var req models.Employee
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.employees.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, h.logger, "Error actualizando empleado", err)
		return
	}
	respond(c, http.StatusOK, "Empleado actualizado", e)
}

func (h *DirectoryHandler) DeleteEmployee(c *gin.Context) {
	if err := h.employees.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, h.logger, "Error dando de baja empleado", err)
		return
	}
	respond(c, http.StatusOK, "Empleado dado de baja", gin.H{"id": c.Param("id")})
}

func (h *DirectoryHandler) GetEmployee(c *gin.Context) {
	e, err := h.employees.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, "Empleado no encontrado", err)
		return
	}
	respond(c, http.StatusOK, "Empleado encontrado", e)
}

// ListEmployees acepta ?department= o ?active=true
func (h *DirectoryHandler) ListEmployees(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		employees []*models.Employee
		err       error
	)
	switch {
	case c.Query("department") != "":
		employees, err = h.employees.GetByDepartment(ctx, c.Query("department"))
	case c.Query("active") == "true":
		employees, err = h.employees.GetActive(ctx)
	default:
		employees, err = h.employees.GetAll(ctx)
	}
	if err != nil {
		fail(c, h.logger, "Error obteniendo empleados", err)
		return
	}
	respond(c, http.StatusOK, "Empleados obtenidos", gin.H{"empleados": employees, "total": len(employees)})
}

func (h *DirectoryHandler) Payroll(c *gin.Context) {
	total, err := h.employees.GetTotalPayroll(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "Error calculando nómina", err)
		return
	}
	respond(c, http.StatusOK, "Nómina total", gin.H{"total_payroll": total})
}
