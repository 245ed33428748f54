package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respond escribe una respuesta exitosa con el envoltorio común
func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.APIResponse{
		Success: true,
		Message: "✅ " + message,
		Data:    data,
	})
}

// statusFor traduce la clase del error de dominio a un código HTTP
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindBusinessRule:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail escribe el error con su código HTTP. Los errores internos no exponen el detalle.
func fail(c *gin.Context, logger *zap.Logger, message string, err error) {
	status := statusFor(err)
	resp := models.APIResponse{
		Success: false,
		Message: "❌ " + message,
		Error:   err.Error(),
		Code:    errs.CodeOf(err),
	}

	var e *errs.Error
	if errors.As(err, &e) {
		resp.Field = e.Field
		if e.Kind == errs.KindStorage {
			resp.Error = e.Message
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.Error(err))
		if resp.Code == "" {
			resp.Error = "error interno"
		}
	} else {
		logger.Debug(message, zap.Error(err))
	}

	_ = c.Error(err)
	c.JSON(status, resp)
}

// bindJSON decodifica el cuerpo; responde 400 y devuelve false si no se puede
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "❌ Error en el formato de datos",
			Error:   err.Error(),
			Code:    "invalid_body",
		})
		return false
	}
	return true
}

// queryTime lee un parámetro de fecha en RFC 3339 o AAAA-MM-DD.
// Con endOfDay una fecha sin hora abarca el día completo.
func queryTime(c *gin.Context, name string, endOfDay bool) (time.Time, bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, false, errs.Validation(name, name+" debe ser una fecha (AAAA-MM-DD o RFC 3339)")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true, nil
}

// dateRange lee start y end; ambos son obligatorios
func dateRange(c *gin.Context) (time.Time, time.Time, error) {
	start, ok, err := queryTime(c, "start", false)
	if err != nil {
		return start, start, err
	}
	if !ok {
		return start, start, errs.Validation("start", "start es obligatorio")
	}
	end, ok, err := queryTime(c, "end", true)
	if err != nil {
		return start, end, err
	}
	if !ok {
		return start, end, errs.Validation("end", "end es obligatorio")
	}
	return start, end, nil
}
