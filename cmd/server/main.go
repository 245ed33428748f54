package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail-erp/internal/cache"
	"retail-erp/internal/config"
	"retail-erp/internal/database"
	"retail-erp/internal/handlers"
	"retail-erp/internal/middleware"
	"retail-erp/internal/repository"
	"retail-erp/internal/routes"
	"retail-erp/internal/sequence"
	"retail-erp/internal/services"
	"retail-erp/internal/store"
	"retail-erp/internal/validation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error cargando configuración: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Error creando logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, pool, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("❌ Error abriendo el almacenamiento", zap.Error(err))
	}
	defer st.Close()

	var redisDB *database.RedisDB
	if cfg.Redis.Enabled {
		redisDB, err = database.NewRedisDB(ctx, cfg.Redis, logger)
		if err != nil {
			// La caché sigue funcionando solo en memoria
			logger.Warn("Redis no disponible, se continúa sin Redis", zap.Error(err))
			redisDB = nil
		} else {
			defer redisDB.Close()
		}
	}
	if cfg.Business.Sequencer == "redis" && redisDB == nil {
		logger.Fatal("❌ SEQUENCER=redis requiere una conexión Redis activa")
	}

	repos := repository.New(st)

	var seq sequence.Sequencer
	if cfg.Business.Sequencer == "redis" {
		seq = sequence.NewRedisSequencer(redisDB.Client, "retail-erp:seq:", logger)
	} else {
		seq = sequence.NewStoreSequencer(st, logger)
	}

	productCache := cache.NewProductCache(redisClient(redisDB), cfg.Business.ProductCacheSize, cfg.Business.ProductCacheTTL, logger)
	defer productCache.Close()

	svc := services.New(repos, seq, productCache, services.Options{
		DeferredPaymentMethods: cfg.Business.DeferredPaymentMethods,
	}, logger)

	v := validation.New()
	monitoringService := services.NewMonitoringService(logger, cfg, repos, pool, redisClient(redisDB), productCache, svc)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService, logger)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(corsMiddleware(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(gin.Recovery())
	router.Use(monitoringHandler.RecordRequestMiddleware())

	routes.SetupRoutes(router, routes.Handlers{
		Stock:      handlers.NewStockHandler(svc.Products, logger),
		POS:        handlers.NewPOSHandler(productCache, svc.Products, svc.Sales, v, logger),
		Clients:    handlers.NewClientHandler(svc.Clients, v, logger),
		Sales:      handlers.NewSaleHandler(svc.Sales, logger),
		Purchases:  handlers.NewPurchaseHandler(svc.Purchases, v, logger),
		Billing:    handlers.NewBillingHandler(svc.Invoices, svc.Accounts, logger),
		Registers:  handlers.NewCashRegisterHandler(svc.CashRegisters, logger),
		Expenses:   handlers.NewExpenseHandler(svc.Expenses, logger),
		Directory:  handlers.NewDirectoryHandler(svc.Suppliers, svc.Employees, logger),
		Monitoring: monitoringHandler,
		Health:     middleware.NewHealthChecker(st, cfg.Store.Driver, pool, redisDB, logger),
	})

	go runOverdueSweep(ctx, svc, cfg.Business.OverdueSweepInterval, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("❌ Error iniciando el servidor", zap.Error(err))
		}
	}()

	middleware.ServerInfo(middleware.ServerBanner{
		Port:      cfg.Server.Port,
		Store:     cfg.Store.Driver,
		Redis:     redisDB != nil,
		Sequencer: cfg.Business.Sequencer,
		Sweep:     cfg.Business.OverdueSweepInterval,
	}, logger)

	<-ctx.Done()
	logger.Info("Señal de apagado recibida")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error durante el apagado", zap.Error(err))
	}
	logger.Info("✅ Servidor detenido")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Server.GinMode == gin.DebugMode {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// openStore devuelve el store y, con postgres, su pool para health y métricas
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, services.PoolStats, error) {
	if cfg.Store.Driver != "postgres" {
		logger.Info("Usando almacenamiento en memoria")
		return store.NewMemoryStore(repository.Schema()), nil, nil
	}

	db, err := database.NewPostgresDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	pg, err := store.NewPostgresStore(ctx, db.DB, repository.Schema(), logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return pg, pg, nil
}

func redisClient(r *database.RedisDB) *redis.Client {
	if r == nil {
		return nil
	}
	return r.Client
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AddAllowHeaders("Authorization", middleware.RequestIDHeader)
	corsConfig.AddExposeHeaders("Content-Length", middleware.RequestIDHeader)
	return cors.New(corsConfig)
}

// runOverdueSweep marca como vencidas facturas y cuentas pendientes; interval 0 lo desactiva
func runOverdueSweep(ctx context.Context, svc *services.Services, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	logger = logger.With(zap.String("operation", "overdue_sweep"))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			invoices, err := svc.Invoices.UpdateOverdueStatus(ctx)
			if err != nil {
				logger.Error("❌ Error marcando facturas vencidas", zap.Error(err))
			}
			accounts, err := svc.Accounts.UpdateOverdueStatus(ctx)
			if err != nil {
				logger.Error("❌ Error marcando cuentas vencidas", zap.Error(err))
			}
			if invoices > 0 || accounts > 0 {
				logger.Info("Vencimientos actualizados",
					zap.Int("invoices", invoices),
					zap.Int("accounts", accounts))
			}
		}
	}
}
