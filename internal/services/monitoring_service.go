package services

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"retail-erp/internal/cache"
	"retail-erp/internal/config"
	"retail-erp/internal/models"
	"retail-erp/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	slowRequestThreshold = time.Second
	maxKeptSamples       = 100
	topEndpointsShown    = 10
	metricsVersion       = "1.0"
)

type MonitoringService interface {
	GetMetrics(ctx context.Context) *models.MonitoringResponse
	RecordRequest(data models.RequestData)
	GetCacheStats() models.CacheMetrics
	GetStoreStats(ctx context.Context) models.StoreMetrics
	GetRuntimeStats() models.RuntimeMetrics
	GetRedisStats(ctx context.Context) models.RedisMetrics
	GetBusinessStats(ctx context.Context) models.BusinessMetrics
}

// PoolStats lo expone el store de PostgreSQL
type PoolStats interface {
	Stats() sql.DBStats
}

type monitoringService struct {
	logger       *zap.Logger
	config       *config.Config
	repos        *repository.Repositories
	pool         PoolStats
	redisClient  *redis.Client
	productCache *cache.ProductCache
	svc          *Services
	startTime    time.Time

	mu        sync.RWMutex
	endpoints map[string]*models.EndpointMetrics
	byStatus  map[string]int64
	slow      []models.RequestSample
	failed    []models.RequestSample
	total     int64
	maxMs     int64
	minMs     int64
}

// NewMonitoringService pool, redisClient y productCache pueden ser nil
func NewMonitoringService(
	logger *zap.Logger,
	cfg *config.Config,
	repos *repository.Repositories,
	pool PoolStats,
	redisClient *redis.Client,
	productCache *cache.ProductCache,
	svc *Services,
) MonitoringService {
	return &monitoringService{
		logger:       logger,
		config:       cfg,
		repos:        repos,
		pool:         pool,
		redisClient:  redisClient,
		productCache: productCache,
		svc:          svc,
		startTime:    time.Now(),
		endpoints:    make(map[string]*models.EndpointMetrics),
		byStatus:     make(map[string]int64),
		minMs:        -1,
	}
}

// keepLast agrega al final y descarta lo más viejo por encima de maxKeptSamples
func keepLast(samples []models.RequestSample, s models.RequestSample) []models.RequestSample {
	samples = append(samples, s)
	if len(samples) > maxKeptSamples {
		samples = samples[len(samples)-maxKeptSamples:]
	}
	return samples
}

func (s *monitoringService) RecordRequest(data models.RequestData) {
	key := data.Method + " " + data.Endpoint
	ms := data.Duration.Milliseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	ep, ok := s.endpoints[key]
	if !ok {
		ep = &models.EndpointMetrics{Endpoint: key}
		s.endpoints[key] = ep
	}
	ep.Count++
	ep.TotalMs += ms
	ep.AvgMs = float64(ep.TotalMs) / float64(ep.Count)

	s.total++
	s.byStatus[fmt.Sprintf("%dxx", data.StatusCode/100)]++
	if ms > s.maxMs {
		s.maxMs = ms
	}
	if s.minMs < 0 || ms < s.minMs {
		s.minMs = ms
	}

	sample := models.RequestSample{
		Endpoint:   key,
		StatusCode: data.StatusCode,
		DurationMs: ms,
		At:         data.Timestamp,
	}
	if data.Duration > slowRequestThreshold {
		s.slow = keepLast(s.slow, sample)
	}
	if data.Error != nil || data.StatusCode >= 400 {
		if data.Error != nil {
			sample.Error = data.Error.Error()
		}
		s.failed = keepLast(s.failed, sample)
	}
}

func (s *monitoringService) GetMetrics(ctx context.Context) *models.MonitoringResponse {
	s.mu.RLock()
	requests := s.requestMetrics()
	performance := s.performanceMetrics()
	s.mu.RUnlock()

	return &models.MonitoringResponse{
		Requests:    requests,
		Performance: performance,
		Cache:       s.GetCacheStats(),
		Store:       s.GetStoreStats(ctx),
		Runtime:     s.GetRuntimeStats(),
		Redis:       s.GetRedisStats(ctx),
		Business:    s.GetBusinessStats(ctx),
		Timestamp:   time.Now().UTC(),
		Version:     metricsVersion,
	}
}

// requestMetrics requiere s.mu tomado en lectura
func (s *monitoringService) requestMetrics() models.RequestMetrics {
	all := make([]models.EndpointMetrics, 0, len(s.endpoints))
	avg := make(map[string]float64, len(s.endpoints))
	for key, ep := range s.endpoints {
		all = append(all, *ep)
		avg[key] = ep.AvgMs
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Endpoint < all[j].Endpoint
	})
	if len(all) > topEndpointsShown {
		all = all[:topEndpointsShown]
	}

	byStatus := make(map[string]int64, len(s.byStatus))
	for class, n := range s.byStatus {
		byStatus[class] = n
	}

	return models.RequestMetrics{
		Total:        s.total,
		Endpoints:    len(s.endpoints),
		TopEndpoints: all,
		SlowRequests: append([]models.RequestSample(nil), s.slow...),
		Errors:       append([]models.RequestSample(nil), s.failed...),
		ByStatus:     byStatus,
		ByEndpoint:   avg,
	}
}

func (s *monitoringService) performanceMetrics() models.PerformanceMetrics {
	var totalMs int64
	for _, ep := range s.endpoints {
		totalMs += ep.TotalMs
	}

	perf := models.PerformanceMetrics{MaxMs: s.maxMs}
	if s.total > 0 {
		perf.AvgMs = float64(totalMs) / float64(s.total)
	}
	if s.minMs >= 0 {
		perf.MinMs = s.minMs
	}
	return perf
}

func (s *monitoringService) GetCacheStats() models.CacheMetrics {
	if s.productCache == nil {
		return models.CacheMetrics{Status: "disabled"}
	}

	stats := s.productCache.GetStats()
	m := models.CacheMetrics{
		Status: "online",
		Redis:  s.productCache.HasRedis(),
		Keys:   stats.TotalKeys,
		Hits:   stats.Hits,
		Misses: stats.Misses,
	}
	if stats.TotalRequests > 0 {
		m.HitRate = float64(stats.Hits) / float64(stats.TotalRequests)
	}
	return m
}

// GetStoreStats cuenta registros por colección y, con PostgreSQL, el estado del pool
func (s *monitoringService) GetStoreStats(ctx context.Context) models.StoreMetrics {
	m := models.StoreMetrics{
		Driver:      s.config.Store.Driver,
		Status:      "online",
		Collections: map[string]int{},
	}

	if err := s.repos.Store.Ping(ctx); err != nil {
		s.logger.Warn("Almacenamiento no responde", zap.Error(err))
		m.Status = "offline"
		return m
	}

	if s.pool != nil {
		stats := s.pool.Stats()
		m.OpenConnections = stats.OpenConnections
		m.InUse = stats.InUse
	}

	counts, err := s.repos.Counts(ctx)
	if err != nil {
		s.logger.Warn("No se pudieron contar registros", zap.Error(err))
		m.Status = "degraded"
		return m
	}
	for name, n := range counts {
		m.Collections[name] = n
		m.TotalRecords += n
	}
	return m
}

func (s *monitoringService) GetRuntimeStats() models.RuntimeMetrics {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	environment := "production"
	if s.config.Server.GinMode == "debug" {
		environment = "development"
	}

	return models.RuntimeMetrics{
		HeapMB:      bytesToMB(mem.HeapAlloc),
		SysMB:       bytesToMB(mem.Sys),
		Goroutines:  runtime.NumGoroutine(),
		CPUs:        runtime.NumCPU(),
		UptimeHours: time.Since(s.startTime).Hours(),
		GoVersion:   runtime.Version(),
		Environment: environment,
	}
}

func bytesToMB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}

func (s *monitoringService) GetRedisStats(ctx context.Context) models.RedisMetrics {
	if s.redisClient == nil {
		return models.RedisMetrics{Status: "disabled"}
	}
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return models.RedisMetrics{Status: "offline"}
	}

	m := models.RedisMetrics{Status: "online"}
	if n, err := s.redisClient.DBSize(ctx).Result(); err == nil {
		m.Keys = n
	}
	if info, err := s.redisClient.Info(ctx, "memory").Result(); err == nil {
		m.MemoryMB = usedMemoryMB(info)
	}
	return m
}

// usedMemoryMB extrae used_memory de la salida de INFO memory
func usedMemoryMB(info string) float64 {
	for _, line := range strings.Split(info, "\n") {
		raw, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:")
		if !ok {
			continue
		}
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return bytesToMB(n)
		}
	}
	return 0
}

// GetBusinessStats indicadores del día; un error deja el indicador vacío
func (s *monitoringService) GetBusinessStats(ctx context.Context) models.BusinessMetrics {
	var m models.BusinessMetrics
	if s.svc == nil {
		return m
	}
	logger := s.logger.With(zap.String("operation", "business_stats"))

	if sales, err := s.svc.Sales.GetTodaySales(ctx); err == nil {
		m.SalesToday = len(sales)
	} else {
		logger.Warn("Ventas del día no disponibles", zap.Error(err))
	}
	if total, err := s.svc.Sales.GetTodayTotal(ctx); err == nil {
		m.SalesTodayTotal = total.String()
	}
	if low, err := s.svc.Products.GetLowStock(ctx); err == nil {
		m.LowStock = len(low)
	} else {
		logger.Warn("Stock bajo no disponible", zap.Error(err))
	}
	if open, err := s.repos.CashRegisters.ByIndex(ctx, "status", string(models.RegisterOpen)); err == nil {
		m.OpenRegisters = len(open)
	}
	if overdue, err := s.svc.Invoices.GetOverdue(ctx); err == nil {
		m.OverdueInvoices = len(overdue)
	}
	if total, err := s.svc.Accounts.GetTotalReceivable(ctx); err == nil {
		m.AccountsReceivable = total.String()
	}
	if total, err := s.svc.Accounts.GetTotalPayable(ctx); err == nil {
		m.AccountsPayable = total.String()
	}
	return m
}
