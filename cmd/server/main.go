package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	invoicingapp "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/application/pdfgen"
	"github.com/invoicely/backend/internal/infrastructure/auth"
	"github.com/invoicely/backend/internal/infrastructure/cache"
	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"github.com/invoicely/backend/internal/infrastructure/mail"
	"github.com/invoicely/backend/internal/infrastructure/migration"
	"github.com/invoicely/backend/internal/infrastructure/persistence"
	"github.com/invoicely/backend/internal/infrastructure/printing"
	"github.com/invoicely/backend/internal/infrastructure/storage"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"github.com/invoicely/backend/internal/interfaces/http/handler"
	"github.com/invoicely/backend/internal/interfaces/http/middleware"
	"github.com/invoicely/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/invoicely/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Invoicely API
//	@version		1.0
//	@description	Invoicing backend: customers, estimates, invoices, payments, invoice email delivery and background invoice PDF generation.

//	@contact.name	API Support
//	@contact.url	https://github.com/invoicely/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token issued by the auth provider. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if tel.Logs.IsEnabled() {
		// Rebuild the logger so entries are also exported over OTLP
		log, err = logger.New(logCfg, logger.WithCore(tel.Logs.ZapCore(logger.ParseLevel(cfg.Log.Level))))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Invoicely backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db := openDatabase(cfg, tel, log)
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	blobs := openBlobStore(ctx, cfg, log)

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	estimateRepo := persistence.NewGormEstimateRepository(db.DB)

	// Background PDF pipeline: chrome renders, the generator stores, the
	// coordinator debounces and serialises per invoice
	htmlRenderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		RenderTimeout: cfg.Chrome.RenderTimeout,
		RemoteURL:     cfg.Chrome.RemoteURL,
		NoSandbox:     cfg.Chrome.NoSandbox,
		Logger:        log.Named("chromedp"),
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		_ = htmlRenderer.Close()
	}()
	invoiceRenderer, err := printing.NewInvoiceRenderer(htmlRenderer)
	if err != nil {
		log.Fatal("Failed to initialize invoice template", zap.Error(err))
	}
	generator := pdfgen.NewGenerator(invoiceRepo, userRepo, invoiceRenderer, blobs, log.Named("pdfgen"))
	coordinator := pdfgen.NewCoordinator(generator, pdfgen.Config{
		DebounceWindow:       cfg.PDF.DebounceWindow,
		SettleDelay:          cfg.PDF.SettleDelay,
		CycleTimeout:         cfg.PDF.CycleTimeout,
		MaxConsecutiveReruns: cfg.PDF.MaxConsecutiveReruns,
	}, pdfgen.WithLogger(log.Named("pdfgen")))

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}

	mailer, err := mail.New(&cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	// Application services
	invoiceService := invoicingapp.NewInvoiceService(invoiceRepo, customerRepo, blobs, coordinator)
	customerService := invoicingapp.NewCustomerService(customerRepo, invoiceRepo)
	userService := invoicingapp.NewUserService(userRepo, blobs)
	deliveryService := invoicingapp.NewDeliveryService(invoiceRepo, userRepo, blobs, invoiceRenderer, mailer, coordinator)
	estimateService := invoicingapp.NewEstimateService(estimateRepo, customerRepo)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request id first so every later log line and span
	// carries it, recovery before anything that may panic
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName))
	engine.Use(middleware.HTTPMetrics(tel.Meter.Meter("github.com/invoicely/backend/http")))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", handler.NewHealthHandler(db, coordinator).Health)

	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		Validator: auth.NewJWTValidator(cfg.JWT),
		Logger:    log,
	})

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, jwtMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	apiMiddleware := []gin.HandlerFunc{jwtMiddleware, middleware.TracingAttributes()}
	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	apiMiddleware = append(apiMiddleware, middleware.Profiling(tel.Profiler.IsEnabled()))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"), router.WithMiddleware(apiMiddleware...))
	router.RegisterAPI(r, router.Handlers{
		Auth:     handler.NewAuthHandler(userService),
		Invoice:  handler.NewInvoiceHandler(invoiceService, deliveryService),
		Customer: handler.NewCustomerHandler(customerService),
		Estimate: handler.NewEstimateHandler(estimateService),
		User:     handler.NewUserHandler(userService),
	}, middleware.Idempotency(idempotencyStore, cfg.HTTP.IdempotencyTTL))
	r.Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// In-flight cycles finish before the database and renderer close
	if err := coordinator.Stop(shutdownCtx); err != nil {
		log.Warn("PDF generation did not drain before shutdown", zap.Error(err))
	}
	if rateLimiter != nil {
		rateLimiter.Stop()
	}
	if err := idempotencyStore.Close(); err != nil {
		log.Warn("Failed to close idempotency store", zap.Error(err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openDatabase connects, migrates postgres from the embedded migrations when
// configured, and attaches DB tracing and pool metrics
func openDatabase(cfg *config.Config, tel *telemetry.Telemetry, log *zap.Logger) *persistence.Database {
	gormLog := logger.NewGormLogger(log.Named("gorm"), logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", db.Driver()))

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database handle", zap.Error(err))
	}

	dbSystem := "sqlite"
	if db.Driver() != "sqlite" {
		dbSystem = "postgresql"
		if cfg.Database.AutoMigrate {
			m, err := migration.New(sqlDB, log.Named("migrate"))
			if err != nil {
				log.Fatal("Failed to create migrator", zap.Error(err))
			}
			if err := m.Up(); err != nil {
				log.Fatal("Failed to apply migrations", zap.Error(err))
			}
		}
	}

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem: dbSystem,
	}, log); err != nil {
		log.Warn("Failed to enable database tracing", zap.Error(err))
	}
	if _, err := telemetry.RegisterDBPoolMetrics(tel.Meter.Meter("github.com/invoicely/backend/db"), sqlDB); err != nil {
		log.Warn("Failed to register database pool metrics", zap.Error(err))
	}
	return db
}

// openBlobStore returns the S3 store, or an in-process store for local runs
func openBlobStore(ctx context.Context, cfg *config.Config, log *zap.Logger) invoicingapp.BlobStore {
	if cfg.Storage.Provider == "memory" {
		log.Warn("Using in-memory blob storage; stored PDFs and logos are lost on restart")
		return storage.NewMemoryBlobStore(cfg.Storage.PublicBaseURL)
	}

	store, err := storage.NewS3BlobStore(ctx, &cfg.Storage, storage.WithLogger(log.Named("s3")))
	if err != nil {
		log.Fatal("Failed to initialize blob storage", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal("Blob storage bucket unavailable", zap.Error(err))
	}
	log.Info("Blob storage ready", zap.String("bucket", store.Bucket()))
	return store
}
