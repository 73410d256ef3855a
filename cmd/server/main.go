package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	approvalapp "github.com/procura/backend/internal/application/approval"
	auditapp "github.com/procura/backend/internal/application/audit"
	budgetapp "github.com/procura/backend/internal/application/budget"
	contractapp "github.com/procura/backend/internal/application/contract"
	filesapp "github.com/procura/backend/internal/application/files"
	fxapp "github.com/procura/backend/internal/application/fx"
	identityapp "github.com/procura/backend/internal/application/identity"
	invoiceapp "github.com/procura/backend/internal/application/invoice"
	jobsapp "github.com/procura/backend/internal/application/jobs"
	notificationapp "github.com/procura/backend/internal/application/notification"
	partnerapp "github.com/procura/backend/internal/application/partner"
	paymentapp "github.com/procura/backend/internal/application/payment"
	procurementapp "github.com/procura/backend/internal/application/procurement"
	rfqapp "github.com/procura/backend/internal/application/rfq"
	"github.com/procura/backend/internal/domain/approval"
	"github.com/procura/backend/internal/domain/matching"
	notificationdomain "github.com/procura/backend/internal/domain/notification"
	"github.com/procura/backend/internal/infrastructure/auth"
	"github.com/procura/backend/internal/infrastructure/cache"
	"github.com/procura/backend/internal/infrastructure/config"
	"github.com/procura/backend/internal/infrastructure/docgen"
	"github.com/procura/backend/internal/infrastructure/event"
	"github.com/procura/backend/internal/infrastructure/logger"
	"github.com/procura/backend/internal/infrastructure/notify"
	"github.com/procura/backend/internal/infrastructure/ocr"
	"github.com/procura/backend/internal/infrastructure/persistence"
	"github.com/procura/backend/internal/infrastructure/persistence/tenant"
	"github.com/procura/backend/internal/infrastructure/scheduler"
	"github.com/procura/backend/internal/infrastructure/storage"
	"github.com/procura/backend/internal/infrastructure/telemetry"
	"github.com/procura/backend/internal/interfaces/http/handler"
	"github.com/procura/backend/internal/interfaces/http/middleware"
	"github.com/procura/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/procura/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Procura Backend API
//	@version		1.0
//	@description	Multi-tenant source-to-pay procurement API: vendors, RFQs, budgets, purchase requests, orders, receipts, invoices and payments.
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/procura/backend
//	@contact.email	support@procura.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

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

	log.Info("Starting Procura Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize OpenTelemetry tracing and metrics. Both degrade to
	// no-ops when disabled in config
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Continuous profiling via Pyroscope (optional)
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.PyroscopeEnabled,
		ServerAddress:     cfg.Telemetry.PyroscopeEndpoint,
		ApplicationName:   cfg.App.Name,
		ProfileCPU:        true,
		ProfileAllocSpace: true,
		ProfileInuseSpace: true,
		ProfileGoroutines: true,
	}, log)
	if err != nil {
		log.Warn("Failed to start profiler", zap.Error(err))
	} else {
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Database tracing and metrics instrumentation
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	if meterProvider.IsEnabled() {
		if _, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log); err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	// Redis backs rate limiting, idempotency replay and the token blacklist
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	{
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		cancel()
	}
	log.Info("Redis connected successfully")

	rateLimiter := cache.NewRateLimiter(redisClient)
	idempotencyStore := cache.NewIdempotencyStore(redisClient)
	tokenBlacklist := auth.NewRedisTokenBlacklist(redisClient)

	// Object storage holds invoice and contract documents plus rendered
	// purchase order PDFs
	objectStorage, err := storage.NewS3ObjectStorage(&cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	{
		bucketCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := objectStorage.EnsureBucket(bucketCtx); err != nil {
			log.Warn("Failed to ensure storage bucket", zap.Error(err))
		}
		cancel()
	}

	// Initialize repositories. Tenant-owned tables go through TenantDB,
	// which scopes every query to the tenant in the request context. The
	// create guard backstops the repositories at the connection level:
	// an INSERT on a tenant-owned table with a zero tenant_id is rejected
	// no matter which code path issued it
	tenant.EnableCreateGuard(db.DB)
	tenantDB := tenant.NewTenantDB(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(tenantDB)
	departmentRepo := persistence.NewGormDepartmentRepository(tenantDB)
	vendorRepo := persistence.NewGormVendorRepository(tenantDB)
	rfqRepo := persistence.NewGormRfqRepository(tenantDB)
	budgetRepo := persistence.NewGormBudgetRepository(tenantDB)
	reservationRepo := persistence.NewGormReservationRepository(tenantDB)
	purchaseRequestRepo := persistence.NewGormPurchaseRequestRepository(tenantDB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(tenantDB)
	receiptRepo := persistence.NewGormReceiptRepository(tenantDB)
	invoiceRepo := persistence.NewGormInvoiceRepository(tenantDB)
	approvalRepo := persistence.NewGormApprovalRepository(tenantDB)
	auditRepo := persistence.NewGormAuditRepository(tenantDB)
	contractRepo := persistence.NewGormContractRepository(tenantDB)
	fxRateRepo := persistence.NewGormFxRateRepository(tenantDB)
	deviceRepo := persistence.NewGormDeviceRepository(tenantDB)
	notificationRepo := persistence.NewGormNotificationRepository(tenantDB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Background jobs run outside requests, so they stamp the tenant onto
	// the context themselves before touching tenant-scoped repositories
	tenantCtx := func(ctx context.Context, tenantID uuid.UUID) context.Context {
		scoped, _ := logger.WithTenantID(ctx, log, tenantID.String())
		return scoped
	}

	// Identity services (auth, users, departments)
	jwtService := auth.NewJWTService(cfg.JWT)
	authServiceConfig := identityapp.DefaultAuthServiceConfig()
	if cfg.Security.MaxLoginAttempts > 0 {
		authServiceConfig.MaxLoginAttempts = cfg.Security.MaxLoginAttempts
		authServiceConfig.LockDuration = cfg.Security.LoginLockDuration
	}
	authService := identityapp.NewAuthService(userRepo, departmentRepo, jwtService, tokenBlacklist, authServiceConfig, log)
	userService := identityapp.NewUserService(userRepo, departmentRepo, tokenBlacklist, cfg.JWT.AccessTokenExpiration, log)
	departmentService := identityapp.NewDepartmentService(departmentRepo, userRepo, log)

	// Notifications persist rows always; push delivery is optional
	var pushSender notificationdomain.PushSender
	if cfg.Push.Enabled {
		pushSender = notify.NewFCMSender(&cfg.Push)
	}
	notificationService := notificationapp.NewNotificationService(notificationRepo, deviceRepo, pushSender, notificationapp.NotificationServiceConfig{
		PushEnabled:    cfg.Push.Enabled,
		MaxPushRetries: cfg.Push.MaxRetries,
	}, log)
	deviceService := notificationapp.NewDeviceService(deviceRepo, log)

	// Source side: vendors, RFQs, contracts
	vendorService := partnerapp.NewVendorService(vendorRepo, auditRepo, log)
	rfqService := rfqapp.NewRfqService(rfqRepo, vendorRepo, userRepo, txScope, notificationService, auditRepo, log)
	contractService := contractapp.NewContractService(contractRepo, vendorRepo, auditRepo, log)

	// Budgets and approvals
	budgetService := budgetapp.NewBudgetService(budgetRepo, reservationRepo, txScope)
	chainBuilder := approvalapp.NewChainBuilder(userRepo, departmentRepo, approval.DefaultChainPolicy())
	approvalService := approvalapp.NewApprovalService(approvalRepo, userRepo, txScope)

	// Procure side: requests, orders, receipts. Purchase order PDFs are
	// rendered headless and stored alongside uploaded documents
	purchaseRequestService := procurementapp.NewPurchaseRequestService(purchaseRequestRepo, chainBuilder, txScope)
	var poRenderer procurementapp.DocumentRenderer
	if pdfEngine, err := docgen.NewChromedpEngine(&docgen.ChromedpConfig{Logger: log}); err != nil {
		log.Warn("PDF engine unavailable, purchase order rendering disabled", zap.Error(err))
	} else {
		poRenderer = docgen.NewPurchaseOrderRenderer(pdfEngine, objectStorage, log)
	}
	purchaseOrderService := procurementapp.NewPurchaseOrderService(purchaseOrderRepo, vendorRepo, txScope, poRenderer, objectStorage, log)

	// Pay side: invoices, matching, OCR extraction
	matchService := invoiceapp.NewMatchService(invoiceRepo, txScope, matching.DefaultTolerance(), log)
	ocrExtractor := ocr.NewHTTPExtractor(&cfg.Ocr)
	ocrService := invoiceapp.NewOcrService(invoiceRepo, txScope, objectStorage, ocrExtractor, matchService, cfg.Ocr.Timeout, log)

	// Nightly sweeps walk every active tenant
	sweepService := jobsapp.NewSweepService(
		jobsapp.DefaultSweepConfig(),
		contractRepo,
		contractService,
		approvalRepo,
		tenantRepo,
		budgetRepo,
		reservationRepo,
		departmentRepo,
		userRepo,
		vendorRepo,
		invoiceRepo,
		vendorService,
		deviceService,
		notificationRepo,
		notificationService,
		tenantCtx,
		log,
	)

	// Job scheduler executes OCR, match and sweep jobs on a worker pool.
	// Invoice and receipt services enqueue through it
	jobExecutor := jobsapp.NewExecutor(ocrService, matchService, sweepService, tenantCtx, log)
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Enabled:           cfg.Scheduler.Enabled,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		QueueSize:         cfg.Scheduler.QueueSize,
		JobTimeout:        cfg.Scheduler.JobTimeout,
	}, jobExecutor, log)
	if err := sched.Start(context.Background()); err != nil {
		log.Fatal("Failed to start job scheduler", zap.Error(err))
	}
	defer func() {
		if err := sched.Stop(context.Background()); err != nil {
			log.Error("Error stopping job scheduler", zap.Error(err))
		}
	}()

	if cfg.Scheduler.Enabled {
		sweepTrigger := scheduler.NewSweepTrigger(scheduler.DefaultSweepTriggerConfig(), sched, log)
		if err := sweepTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sweep trigger", zap.Error(err))
		}
		defer func() {
			if err := sweepTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping sweep trigger", zap.Error(err))
			}
		}()
	}

	receiptService := procurementapp.NewReceiptService(receiptRepo, txScope, sched, log)
	invoiceService := invoiceapp.NewInvoiceService(invoiceRepo, vendorRepo, txScope, sched, sched, log)

	// Supporting services
	fxService := fxapp.NewRateService(fxRateRepo, log)
	fileService := filesapp.NewFileService(objectStorage, filesapp.FileServiceConfig{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		DownloadURLTTL: cfg.Storage.PresignExpiry,
	}, log)
	auditService := auditapp.NewAuditLogService(auditRepo, log)
	stripeWebhookService := paymentapp.NewStripeWebhookService(cfg.Payment, invoiceService, tenantCtx, log)

	// Initialize event bus and notification handlers
	eventBus := event.NewInMemoryEventBus(log)

	approvalRequestedHandler := notificationapp.NewApprovalRequestedHandler(approvalRepo, notificationService, log)
	eventBus.Subscribe(approvalRequestedHandler, approvalRequestedHandler.EventTypes()...)

	invoiceExceptionHandler := notificationapp.NewInvoiceExceptionHandler(invoiceRepo, userRepo, notificationService, log)
	eventBus.Subscribe(invoiceExceptionHandler, invoiceExceptionHandler.EventTypes()...)

	paymentSettledHandler := notificationapp.NewPaymentSettledHandler(invoiceRepo, notificationService, log)
	eventBus.Subscribe(paymentSettledHandler, paymentSettledHandler.EventTypes()...)

	log.Info("Event handlers registered",
		zap.Strings("approval_requested_events", approvalRequestedHandler.EventTypes()),
		zap.Strings("invoice_exception_events", invoiceExceptionHandler.EventTypes()),
		zap.Strings("payment_settled_events", paymentSettledHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish domain events
	purchaseRequestService.SetEventPublisher(eventBus)
	invoiceService.SetEventPublisher(eventBus)
	matchService.SetEventPublisher(eventBus)

	// Business metrics: per-tenant pending approvals and budget
	// utilization gauges, collected periodically
	if meterProvider.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:               meterProvider.Meter(telemetry.TracerName),
			Logger:              log,
			ProcurementProvider: telemetry.NewGormProcurementMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(context.Background(), telemetry.NewGormTenantProvider(db.DB), time.Minute)
			defer businessMetrics.Stop()
		}
	}

	// Initialize HTTP handlers
	systemHandler := handler.NewSystemHandler(db.DB, redisClient)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	departmentHandler := handler.NewDepartmentHandler(departmentService)
	vendorHandler := handler.NewVendorHandler(vendorService)
	rfqHandler := handler.NewRfqHandler(rfqService, vendorService)
	budgetHandler := handler.NewBudgetHandler(budgetService)
	purchaseRequestHandler := handler.NewPurchaseRequestHandler(purchaseRequestService)
	purchaseOrderHandler := handler.NewPurchaseOrderHandler(purchaseOrderService)
	receiptHandler := handler.NewReceiptHandler(receiptService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, matchService)
	contractHandler := handler.NewContractHandler(contractService)
	fxHandler := handler.NewFxHandler(fxService)
	fileHandler := handler.NewFileHandler(fileService)
	auditLogHandler := handler.NewAuditLogHandler(auditService)
	notificationHandler := handler.NewNotificationHandler(notificationService, deviceService)
	internalJobsHandler := handler.NewInternalJobsHandler(sched, middleware.InternalAuthConfig{
		Secret:            cfg.Security.InternalJobSecret,
		AllowEmptyInDebug: cfg.App.Env != "production",
		Logger:            log,
	})
	stripeWebhookHandler := handler.NewStripeWebhookHandler(stripeWebhookService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. Tracing/Metrics - OpenTelemetry instrumentation (if enabled)
	// 8. JWT - Authenticate API requests
	// 9. Tenant - Bind the caller's tenant into the request context
	// 10. RateLimit - Tiered per-user quotas (if enabled)
	// 11. Idempotency - Replay duplicate mutating requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter(telemetry.TracerName), true))
	}

	// JWT authentication. Webhooks verify Stripe signatures and internal
	// job endpoints carry a shared secret, so both skip bearer auth
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/health",
			"/api/v1/system/info",
			"/api/v1/system/ping",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
		SkipPathPrefixes: []string{
			"/swagger",
			"/api/v1/internal/",
			"/api/v1/webhooks/",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.Logger = log
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	if cfg.HTTP.RateLimitEnabled {
		rateLimitConfig := middleware.DefaultRateLimitConfig(rateLimiter)
		rateLimitConfig.Window = cfg.HTTP.RateLimitWindow
		rateLimitConfig.Logger = log
		engine.Use(middleware.RateLimitMiddlewareWithConfig(rateLimitConfig))
		log.Info("Rate limiting enabled", zap.Duration("window", cfg.HTTP.RateLimitWindow))
	}

	engine.Use(middleware.IdempotencyMiddlewareWithConfig(middleware.IdempotencyConfig{
		Store:  idempotencyStore,
		Logger: log,
	}))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddleware(jwtService)),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// Register API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(
		systemHandler,
		authHandler,
		userHandler,
		departmentHandler,
		vendorHandler,
		rfqHandler,
		budgetHandler,
		purchaseRequestHandler,
		purchaseOrderHandler,
		receiptHandler,
		approvalHandler,
		invoiceHandler,
		contractHandler,
		fxHandler,
		fileHandler,
		auditLogHandler,
		notificationHandler,
		internalJobsHandler,
		stripeWebhookHandler,
	)
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

	// Start server in goroutine
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

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
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
