package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	catalogentity "github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	cataloghandler "github.com/iTakecare/leazr.co-sub004/internal/catalog/handler"
	catalogrepo "github.com/iTakecare/leazr.co-sub004/internal/catalog/repository"
	catalogsvc "github.com/iTakecare/leazr.co-sub004/internal/catalog/service"
	"github.com/iTakecare/leazr.co-sub004/internal/config"
	deliveryentity "github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	deliveryhandler "github.com/iTakecare/leazr.co-sub004/internal/delivery/handler"
	deliveryrepo "github.com/iTakecare/leazr.co-sub004/internal/delivery/repository"
	deliverysvc "github.com/iTakecare/leazr.co-sub004/internal/delivery/service"
	"github.com/iTakecare/leazr.co-sub004/internal/middleware"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/sse"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/storage"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 常用变体属性，首次启动时写入
var defaultAttributes = []catalogentity.Attribute{
	{Name: "Color", DisplayName: "Couleur"},
	{Name: "Storage", DisplayName: "Stockage"},
	{Name: "RAM", DisplayName: "Mémoire"},
	{Name: "Processor", DisplayName: "Processeur"},
	{Name: "Screen", DisplayName: "Écran"},
	{Name: "Keyboard", DisplayName: "Clavier"},
}

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting leazr service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database, cfg.Log.Level)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&catalogentity.Product{},
		&catalogentity.Attribute{},
		&catalogentity.VariantCombinationPrice{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate catalog tables failed", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&deliveryentity.Contract{},
		&deliveryentity.ContractEquipment{},
		&deliveryentity.Collaborator{},
		&deliveryentity.DeliverySite{},
		&deliveryentity.EquipmentDelivery{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate delivery tables failed", zap.Error(err))
	}

	// Redis 可选：属性缓存与向导会话
	var rdb *redis.Client
	if cfg.Redis.Addr() != "" {
		rdb = initRedis(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, continuing without it", zap.Error(err))
			rdb = nil
		}
		cancel()
	}

	// MinIO 可选：导出文件存储
	var files catalogsvc.FileStore
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewExportStore(storage.Options{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
			URLExpiry: cfg.MinIO.URLExpiry,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("MinIO client init failed, exports will be streamed only", zap.Error(err))
		} else if err := store.EnsureBucket(context.Background()); err != nil {
			zapLogger.Warn("MinIO bucket check failed, exports will be streamed only", zap.Error(err))
		} else {
			files = store
		}
	}

	hub := sse.NewHub(zapLogger)

	// 目录：属性、变体价格
	catalogRepos := catalogrepo.NewRepositories(db)
	if err := catalogRepos.Attribute.Seed(context.Background(), defaultAttributes); err != nil {
		zapLogger.Warn("Seed attributes failed", zap.Error(err))
	}
	catalogServices := catalogsvc.NewServices(catalogRepos, rdb, files, hub, catalogsvc.Options{
		BulkConcurrency:   cfg.Variant.BulkConcurrency,
		AttributeCacheTTL: cfg.Variant.AttributeCacheTTL,
	}, zapLogger)
	catalogHandlers := cataloghandler.NewHandlers(catalogServices, zapLogger)

	// 交付向导
	var sessions deliverysvc.SessionStore
	if cfg.Delivery.SessionStore == "redis" && rdb != nil {
		sessions = deliverysvc.NewRedisSessionStore(rdb, cfg.Delivery.SessionTTL)
	} else {
		sessions = deliverysvc.NewMemorySessionStore(cfg.Delivery.SessionTTL)
	}
	deliveryRepos := deliveryrepo.NewRepositories(db)
	deliveryService := deliverysvc.NewDeliveryService(
		deliveryRepos.Contract, deliveryRepos.Client, deliveryRepos.Delivery,
		sessions, hub, zapLogger,
	)
	deliveryHandler := deliveryhandler.NewDeliveryHandler(deliveryService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, db, cfg, hub, catalogHandlers, deliveryHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // SSE 长连接
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	if cfg.Output != "" && cfg.Output != "stdout" {
		zapCfg.OutputPaths = []string{cfg.Output}
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig, level string) (*gorm.DB, error) {
	logMode := logger.Warn
	if level == "debug" {
		logMode = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, hub *sse.Hub, catalog *cataloghandler.Handlers, delivery *deliveryhandler.DeliveryHandler) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 40400, "message": "Not found"})
	})

	v1 := r.Group("/api/v1")
	{
		// SSE 实时推送（支持 query param token）
		sseGroup := v1.Group("/sse")
		sseGroup.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			sseGroup.GET("/events", sse.NewHandler(hub).Stream)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			catalog.Register(authorized)
			delivery.Register(authorized)
		}
	}
}
