package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bloomdesk/backend/internal/application/cardstate"
	"github.com/bloomdesk/backend/internal/application/fields"
	"github.com/bloomdesk/backend/internal/application/pipeline"
	"github.com/bloomdesk/backend/internal/infrastructure/auth"
	"github.com/bloomdesk/backend/internal/infrastructure/cache"
	"github.com/bloomdesk/backend/internal/infrastructure/config"
	"github.com/bloomdesk/backend/internal/infrastructure/logger"
	"github.com/bloomdesk/backend/internal/infrastructure/persistence"
	"github.com/bloomdesk/backend/internal/infrastructure/scheduler"
	"github.com/bloomdesk/backend/internal/infrastructure/telemetry"
	"github.com/bloomdesk/backend/internal/infrastructure/upstream"
	"github.com/bloomdesk/backend/internal/interfaces/http/handler"
	"github.com/bloomdesk/backend/internal/interfaces/http/middleware"
	"github.com/bloomdesk/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting BloomDesk Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing (optional)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register query tracing on the GORM instance
	dbTracingCfg := telemetry.DefaultDBTracingConfig()
	dbTracingCfg.Enabled = cfg.Telemetry.Enabled
	dbTracingCfg.DBName = cfg.Database.DBName
	dbTracing := telemetry.NewDBTracingPlugin(dbTracingCfg, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Initialize repositories
	fieldRepo := persistence.NewGormFieldDefinitionRepository(db.DB)
	stateRepo := persistence.NewGormCardStateRepository(db.DB)

	// Field config cache: Redis when reachable, in-process otherwise.
	var fieldCache cache.FieldConfigCache
	redisCache, err := cache.NewRedisFieldConfigCache(
		cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB,
		cache.WithCacheLogger(log),
	)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory field config cache", zap.Error(err))
		fieldCache = cache.NewInMemoryFieldConfigCache(cache.WithInMemoryLogger(log))
	} else {
		fieldCache = redisCache
	}
	defer func() {
		if err := fieldCache.Close(); err != nil {
			log.Error("Error closing field config cache", zap.Error(err))
		}
	}()

	cachedFieldRepo := cache.NewCachedFieldRepository(fieldRepo, fieldCache, cache.WithFieldRepoLogger(log))

	// Upstream commerce platform clients
	clientConfig := upstream.NewClientConfig(
		cfg.Upstream.OrderAPIBaseURL,
		cfg.Upstream.LabelAPIBaseURL,
		cfg.Upstream.APIKey,
	)
	if cfg.Upstream.RequestTimeout > 0 {
		clientConfig.TimeoutSeconds = int(cfg.Upstream.RequestTimeout.Seconds())
	}
	orderSource, err := upstream.NewOrderSourceClient(clientConfig)
	if err != nil {
		log.Fatal("Failed to create order source client", zap.Error(err))
	}
	labelClient, err := upstream.NewProductLabelClient(clientConfig,
		upstream.WithLabelCacheTTL(cfg.Upstream.LabelCacheTTL),
	)
	if err != nil {
		log.Fatal("Failed to create product label client", zap.Error(err))
	}

	// Initialize application services
	fieldsService := fields.NewService(cachedFieldRepo)
	pipelineService := pipeline.NewService(orderSource, labelClient, stateRepo, log)
	stateManager := cardstate.NewManager(stateRepo, log)
	stateManager.SetDebounceWindow(cfg.Reconcile.NotesDebounce)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Card state reconciliation loop
	if cfg.Reconcile.Enabled {
		schedulerConfig := scheduler.DefaultReconcileSchedulerConfig()
		schedulerConfig.PollInterval = cfg.Reconcile.PollInterval
		reconcileScheduler, err := scheduler.NewReconcileScheduler(schedulerConfig, stateRepo, stateManager, log)
		if err != nil {
			log.Fatal("Failed to create reconcile scheduler", zap.Error(err))
		}
		if err := reconcileScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start reconcile scheduler", zap.Error(err))
		}
		defer func() {
			if err := reconcileScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping reconcile scheduler", zap.Error(err))
			}
		}()
		log.Info("Reconcile scheduler started",
			zap.Duration("poll_interval", schedulerConfig.PollInterval),
		)
	}

	// Initialize HTTP handlers
	cardsHandler := handler.NewCardsHandler(pipelineService, stateManager, fieldsService, log)
	fieldDefinitionHandler := handler.NewFieldDefinitionHandler(fieldsService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, in order: request ID, panic recovery, request
	// logging, security headers, CORS, body limit, tracing.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	cardRoutes := router.NewDomainGroup("/cards")
	cardRoutes.GET("", cardsHandler.GetCards)
	cardRoutes.PUT("/:cardId/status", cardsHandler.UpdateStatus)
	cardRoutes.PUT("/:cardId/notes", cardsHandler.UpdateNotes)

	fieldRoutes := router.NewDomainGroup("/field-definitions")
	fieldRoutes.GET("", fieldDefinitionHandler.List)

	systemRoutes := router.NewDomainGroup("/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(cardRoutes).
		Register(fieldRoutes).
		Register(systemRoutes)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports liveness plus database reachability.
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
