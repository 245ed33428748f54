package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"retail-erp/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const keyPrefix = "product:barcode:"

// CacheStats estadísticas del caché
type CacheStats struct {
	Hits          int64
	Misses        int64
	TotalRequests int64
	TotalKeys     int
}

// ProductCache caché de dos niveles para búsquedas por código de barras.
// L1 es un mapa local; L2 es Redis y es opcional (client nil = sólo L1).
type ProductCache struct {
	l1Cache map[string]*models.Product
	l1Mutex sync.RWMutex

	redisClient *redis.Client

	maxL1Size int
	ttl       time.Duration

	logger *zap.Logger

	statsMutex sync.RWMutex
	hits       int64
	misses     int64

	stop chan struct{}
	once sync.Once
}

// NewProductCache crea el caché e inicia su limpieza periódica
func NewProductCache(redisClient *redis.Client, maxL1Size int, ttl time.Duration, logger *zap.Logger) *ProductCache {
	if maxL1Size <= 0 {
		maxL1Size = 1
	}
	pc := &ProductCache{
		l1Cache:     make(map[string]*models.Product),
		redisClient: redisClient,
		maxL1Size:   maxL1Size,
		ttl:         ttl,
		logger:      logger,
		stop:        make(chan struct{}),
	}

	go pc.cleanupL1Cache()

	return pc
}

// Close detiene la limpieza periódica
func (pc *ProductCache) Close() {
	pc.once.Do(func() { close(pc.stop) })
}

// GetStats retorna estadísticas del caché
func (pc *ProductCache) GetStats() CacheStats {
	pc.statsMutex.RLock()
	defer pc.statsMutex.RUnlock()

	pc.l1Mutex.RLock()
	totalKeys := len(pc.l1Cache)
	pc.l1Mutex.RUnlock()

	return CacheStats{
		Hits:          pc.hits,
		Misses:        pc.misses,
		TotalRequests: pc.hits + pc.misses,
		TotalKeys:     totalKeys,
	}
}

// HasRedis reporta si hay nivel L2
func (pc *ProductCache) HasRedis() bool {
	return pc.redisClient != nil
}

// GetProduct busca primero en L1 y luego en L2; ok=false es un miss
func (pc *ProductCache) GetProduct(ctx context.Context, barcode string) (*models.Product, bool) {
	start := time.Now()

	if p := pc.getFromL1(barcode); p != nil {
		pc.recordHit()
		pc.logger.Debug("L1 cache hit",
			zap.String("barcode", barcode),
			zap.Duration("latency", time.Since(start)))
		return p, true
	}

	if p, err := pc.getFromL2(ctx, barcode); err == nil && p != nil {
		pc.setToL1(barcode, p)
		pc.recordHit()
		pc.logger.Debug("L2 cache hit",
			zap.String("barcode", barcode),
			zap.Duration("latency", time.Since(start)))
		return p, true
	}

	pc.recordMiss()
	pc.logger.Debug("Cache miss",
		zap.String("barcode", barcode),
		zap.Duration("latency", time.Since(start)))
	return nil, false
}

func (pc *ProductCache) recordHit() {
	pc.statsMutex.Lock()
	pc.hits++
	pc.statsMutex.Unlock()
}

func (pc *ProductCache) recordMiss() {
	pc.statsMutex.Lock()
	pc.misses++
	pc.statsMutex.Unlock()
}

// SetProduct guarda el producto en ambos niveles
func (pc *ProductCache) SetProduct(ctx context.Context, barcode string, p *models.Product) error {
	pc.setToL1(barcode, p)
	return pc.setToL2(ctx, barcode, p)
}

// InvalidateProduct borra un código de barras de ambos niveles
func (pc *ProductCache) InvalidateProduct(ctx context.Context, barcode string) error {
	pc.l1Mutex.Lock()
	delete(pc.l1Cache, barcode)
	pc.l1Mutex.Unlock()

	if pc.redisClient == nil {
		return nil
	}
	return pc.redisClient.Del(ctx, keyPrefix+barcode).Err()
}

// InvalidateAll vacía L1 y borra las claves de producto en L2
func (pc *ProductCache) InvalidateAll(ctx context.Context) (int, error) {
	pc.l1Mutex.Lock()
	removed := len(pc.l1Cache)
	pc.l1Cache = make(map[string]*models.Product)
	pc.l1Mutex.Unlock()

	if pc.redisClient == nil {
		return removed, nil
	}

	iter := pc.redisClient.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	if len(keys) > 0 {
		if err := pc.redisClient.Del(ctx, keys...).Err(); err != nil {
			return removed, err
		}
	}
	if len(keys) > removed {
		removed = len(keys)
	}
	return removed, nil
}

func (pc *ProductCache) getFromL1(barcode string) *models.Product {
	pc.l1Mutex.RLock()
	defer pc.l1Mutex.RUnlock()
	return pc.l1Cache[barcode]
}

func (pc *ProductCache) setToL1(barcode string, p *models.Product) {
	pc.l1Mutex.Lock()
	defer pc.l1Mutex.Unlock()

	if _, exists := pc.l1Cache[barcode]; !exists && len(pc.l1Cache) >= pc.maxL1Size {
		pc.evictOne()
	}

	pc.l1Cache[barcode] = p
}

// evictOne elimina una entrada cualquiera
func (pc *ProductCache) evictOne() {
	for key := range pc.l1Cache {
		delete(pc.l1Cache, key)
		break
	}
}

func (pc *ProductCache) getFromL2(ctx context.Context, barcode string) (*models.Product, error) {
	if pc.redisClient == nil {
		return nil, nil
	}
	data, err := pc.redisClient.Get(ctx, keyPrefix+barcode).Result()
	if err != nil {
		return nil, err
	}

	var p models.Product
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (pc *ProductCache) setToL2(ctx context.Context, barcode string, p *models.Product) error {
	if pc.redisClient == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return pc.redisClient.Set(ctx, keyPrefix+barcode, data, pc.ttl).Err()
}

func (pc *ProductCache) cleanupL1Cache() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pc.l1Mutex.RLock()
			pc.logger.Debug("L1 cache cleanup", zap.Int("items", len(pc.l1Cache)))
			pc.l1Mutex.RUnlock()
		case <-pc.stop:
			return
		}
	}
}
