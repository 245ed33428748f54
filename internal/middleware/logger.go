package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resetColor = "\033[0m"

var methodColors = map[string]string{
	"GET":    "\033[32m",
	"POST":   "\033[34m",
	"PUT":    "\033[33m",
	"PATCH":  "\033[35m",
	"DELETE": "\033[31m",
}

// statusColors indexado por StatusCode/100
var statusColors = map[int]string{
	2: "\033[32m",
	3: "\033[36m",
	4: "\033[33m",
	5: "\033[31m",
}

func colorize(palette map[string]string, key string) string {
	if c, ok := palette[key]; ok {
		return c + key + resetColor
	}
	return key
}

// LoggerMiddleware línea de acceso coloreada en consola más un registro estructurado por request
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		logLine := fmt.Sprintf(
			"%s %s %s %s %s %dms %s\n",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			colorize(methodColors, param.Method),
			param.Path,
			param.Request.Proto,
			statusColors[param.StatusCode/100]+fmt.Sprint(param.StatusCode)+resetColor,
			param.Latency.Milliseconds(),
			param.ClientIP,
		)

		fields := []zap.Field{
			zap.String("method", param.Method),
			zap.String("path", param.Path),
			zap.String("client_ip", param.ClientIP),
			zap.String("user_agent", param.Request.UserAgent()),
			zap.Int("status_code", param.StatusCode),
			zap.Duration("latency", param.Latency),
		}
		if id, ok := param.Keys[RequestIDKey].(string); ok {
			fields = append(fields, zap.String("request_id", id))
		}
		if param.ErrorMessage != "" {
			fields = append(fields, zap.String("error", param.ErrorMessage))
		}

		switch {
		case param.StatusCode >= 500:
			logger.Error("HTTP Request", fields...)
		case param.StatusCode >= 400:
			logger.Warn("HTTP Request", fields...)
		default:
			logger.Info("HTTP Request", fields...)
		}

		return logLine
	})
}

const (
	// RequestIDKey clave del id de request en el contexto de gin
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// RequestIDMiddleware agrega un ID único a cada request para tracking
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(RequestIDKey, requestID)
		c.Next()
	}
}
