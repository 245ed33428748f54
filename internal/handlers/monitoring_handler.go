package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"retail-erp/internal/models"
	"retail-erp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	metricsPushInterval = 10 * time.Second
	wsPongWait          = 60 * time.Second
)

type MonitoringHandler struct {
	monitoringService services.MonitoringService
	logger            *zap.Logger
}

func NewMonitoringHandler(monitoringService services.MonitoringService, logger *zap.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		monitoringService: monitoringService,
		logger:            logger,
	}
}

// GetMetrics maneja la petición HTTP para obtener métricas
func (h *MonitoringHandler) GetMetrics(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "get_metrics"))

	metrics := h.monitoringService.GetMetrics(c.Request.Context())

	logger.Debug("Métricas obtenidas",
		zap.Int64("total_requests", metrics.Requests.Total),
		zap.Float64("avg_ms", metrics.Performance.AvgMs))

	c.JSON(http.StatusOK, metrics)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketMetrics envía las métricas periódicamente hasta que el cliente cierra
func (h *MonitoringHandler) WebSocketMetrics(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "websocket_metrics"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Error actualizando a WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	logger.Info("Conexión WebSocket establecida")

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// Lector: detecta el cierre del cliente
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(metricsPushInterval)
	defer ticker.Stop()

	send := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metrics := h.monitoringService.GetMetrics(ctx)
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(metrics); err != nil {
			logger.Error("Error enviando métricas por WebSocket", zap.Error(err))
			return false
		}
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-ticker.C:
			if !send() {
				return
			}
		case <-closed:
			logger.Info("Conexión WebSocket cerrada por el cliente")
			return
		case <-c.Request.Context().Done():
			logger.Info("Conexión WebSocket cerrada por contexto")
			return
		}
	}
}

// unmonitoredPaths rutas de monitoreo y salud que no cuentan como tráfico
var unmonitoredPaths = map[string]bool{
	"/":                                  true,
	"/health":                            true,
	"/health/monitoring":                 true,
	"/api/v1/monitoring/metrics":         true,
	"/api/v1/monitoring/metrics/summary": true,
	"/api/v1/monitoring/ws":              true,
}

// RecordRequestMiddleware reporta cada request al servicio de monitoreo con la ruta de gin
func (h *MonitoringHandler) RecordRequestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if unmonitoredPaths[c.Request.URL.Path] {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "(sin ruta)"
		}

		data := models.RequestData{
			Endpoint:   route,
			Method:     c.Request.Method,
			Duration:   time.Since(start),
			StatusCode: c.Writer.Status(),
			Timestamp:  start,
		}
		if last := c.Errors.Last(); last != nil {
			data.Error = last.Err
		}
		h.monitoringService.RecordRequest(data)
	}
}

// HealthCheck estado resumido de almacenamiento, Redis y caché.
// Siempre responde 200; /health es el que devuelve 503.
func (h *MonitoringHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	status := "healthy"
	st := h.monitoringService.GetStoreStats(ctx)
	if st.Status != "online" {
		status = "degraded"
	}
	redisStats := h.monitoringService.GetRedisStats(ctx)
	if redisStats.Status == "offline" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": gin.H{
			"store": st.Status,
			"redis": redisStats.Status,
			"cache": h.monitoringService.GetCacheStats().Status,
		},
	})
}

// GetMetricsSummary versión corta de las métricas para el tablero
func (h *MonitoringHandler) GetMetricsSummary(c *gin.Context) {
	m := h.monitoringService.GetMetrics(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"requests": gin.H{
			"total":     m.Requests.Total,
			"endpoints": m.Requests.Endpoints,
			"errors":    len(m.Requests.Errors),
			"slow":      len(m.Requests.SlowRequests),
			"by_status": m.Requests.ByStatus,
		},
		"performance": m.Performance,
		"cache": gin.H{
			"status":   m.Cache.Status,
			"hit_rate": fmt.Sprintf("%.1f%%", m.Cache.HitRate*100),
		},
		"store": gin.H{
			"driver":        m.Store.Driver,
			"status":        m.Store.Status,
			"total_records": m.Store.TotalRecords,
		},
		"redis":     m.Redis.Status,
		"uptime":    fmt.Sprintf("%.1fh", m.Runtime.UptimeHours),
		"business":  m.Business,
		"timestamp": m.Timestamp,
	})
}
