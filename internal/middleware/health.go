package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"retail-erp/internal/database"
	"retail-erp/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PoolStats estadísticas del pool SQL, presentes sólo con PostgreSQL
type PoolStats interface {
	Stats() sql.DBStats
}

type HealthChecker struct {
	store   store.Store
	driver  string
	pool    PoolStats
	redisDB *database.RedisDB
	logger  *zap.Logger
}

// NewHealthChecker pool y redisDB pueden ser nil
func NewHealthChecker(s store.Store, driver string, pool PoolStats, redisDB *database.RedisDB, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		store:   s,
		driver:  driver,
		pool:    pool,
		redisDB: redisDB,
		logger:  logger,
	}
}

func (h *HealthChecker) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	services := gin.H{}
	status := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"services":  services,
	}

	storeStatus := "healthy"
	if err := h.store.Ping(ctx); err != nil {
		storeStatus = "unhealthy"
		status["status"] = "unhealthy"
		h.logger.Error("Store health check failed", zap.String("driver", h.driver), zap.Error(err))
	}
	storeInfo := gin.H{
		"driver": h.driver,
		"status": storeStatus,
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		storeInfo["stats"] = gin.H{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
		}
	}
	services["store"] = storeInfo

	if h.redisDB != nil {
		redisStatus := "healthy"
		if err := h.redisDB.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
			// Redis es opcional: sin él el servicio sigue operando
			if status["status"] == "healthy" {
				status["status"] = "degraded"
			}
			h.logger.Error("Redis health check failed", zap.Error(err))
		}
		services["redis"] = gin.H{"status": redisStatus}
	} else {
		services["redis"] = gin.H{"status": "disabled"}
	}

	httpStatus := http.StatusOK
	if status["status"] == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, status)
}
