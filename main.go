// Package main provides the entry point for the marketplace settlement service
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/marketplace-settlement/app/handlers"
	"github.com/amirphl/marketplace-settlement/app/logger"
	"github.com/amirphl/marketplace-settlement/app/middleware"
	"github.com/amirphl/marketplace-settlement/app/router"
	"github.com/amirphl/marketplace-settlement/app/services"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/amirphl/marketplace-settlement/config"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/repository"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	logger    *zap.Logger
	stopFuncs []func()
}

func main() {
	app := &cli.App{
		Name:  "marketplace-settlement",
		Usage: "Marketplace payment settlement API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
			},
			{
				Name:   "migrate",
				Usage:  "Apply the database schema and exit",
				Action: migrateCommand,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("marketplace-settlement: %v", err)
	}
}

func bootstrap() (*config.ProductionConfig, *zap.Logger, error) {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	lg, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return cfg, lg, nil
}

func migrateCommand(_ *cli.Context) error {
	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	db, err := initializeDatabase(cfg.Database, lg)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	lg.Info("Schema migrated", zap.Int("tables", len(models.All())))
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	lg.Info("Starting marketplace settlement",
		zap.String("environment", cfg.Deployment.Environment),
		zap.String("version", cfg.Deployment.Version),
		zap.String("commit", cfg.Deployment.CommitHash),
	)

	app, err := initializeApplication(cfg, lg)
	if err != nil {
		return err
	}

	app.router.SetupRoutes()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		serverErr <- app.router.Start(address)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("Shutting down gracefully")

	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.router.Shutdown(shutdownCtx); err != nil {
		lg.Error("Error during shutdown", zap.Error(err))
		return err
	}

	lg.Info("Server stopped")
	return nil
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.SlowQueryLog {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.New(zap.NewStdLog(lg.Named("gorm")), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	lg.Info("Database connection established",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)

	return db, nil
}

// initializeCache returns nil when redis is not the configured provider
func initializeCache(cfg config.CacheConfig, lg *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	lg.Info("Redis connection established", zap.Int("db", cfg.RedisDB))
	return rc, nil
}

// startCacheHealthMonitor pings redis periodically until the returned func is called
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, lg *zap.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil && !errors.Is(err, context.Canceled) {
					lg.Warn("Redis healthcheck failed", zap.Error(err))
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeNotificationService picks the publisher behind seller notifications
func initializeNotificationService(cfg config.NotificationConfig, rc *redis.Client, lg *zap.Logger) services.NotificationService {
	var publisher services.Publisher
	if cfg.Provider == "redis" && rc != nil {
		publisher = services.NewRedisPublisher(rc, cfg.ChannelPrefix)
	} else {
		publisher = services.NewLogPublisher(lg.Named("notifications"))
	}
	return services.NewNotificationService(publisher, lg)
}

func initializeApplication(cfg *config.ProductionConfig, lg *zap.Logger) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, lg)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	rc, err := initializeCache(cfg.Cache, lg)
	if err != nil {
		return nil, err
	}

	var (
		intentCache     services.IntentCache
		revocationStore services.RevocationStore
	)
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, 30*time.Second, lg))
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
		intentCache = services.NewRedisIntentCache(rc, cfg.Payment.IntentCacheTTL)
		revocationStore = services.NewRedisRevocationStore(rc)
	} else {
		lg.Warn("Redis disabled, using in-process intent cache and revocation store")
		intentCache = services.NewMemoryIntentCache(cfg.Payment.IntentCacheTTL)
		revocationStore = services.NewMemoryRevocationStore()
	}

	accountRepo := repository.NewAccountRepository(db)
	adRepo := repository.NewAdRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	profileRepo := repository.NewSellerProfileRepository(db)
	eventRepo := repository.NewProcessorEventRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	transactor := repository.NewTransactor(db)

	processor, err := services.NewStripeProcessor(services.StripeConfig{
		SecretKey:     cfg.Payment.SecretKey,
		WebhookSecret: cfg.Payment.WebhookSecret,
		RefreshURL:    cfg.Payment.OnboardingRefreshURL,
		ReturnURL:     cfg.Payment.OnboardingReturnURL,
		Tolerance:     cfg.Payment.WebhookTolerance,
		Timeout:       cfg.Payment.ProcessorTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment processor: %w", err)
	}

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
		revocationStore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	notifier := initializeNotificationService(cfg.Notification, rc, lg)

	paymentFlow := businessflow.NewPaymentFlow(
		accountRepo,
		adRepo,
		paymentRepo,
		eventRepo,
		auditRepo,
		transactor,
		processor,
		intentCache,
		notifier,
		businessflow.PaymentSettings{
			FeePercent: cfg.Payment.FeePercent,
			Currency:   cfg.Payment.Currency,
		},
		lg.Named("payment"),
	)

	authFlow := businessflow.NewAuthFlow(accountRepo, auditRepo, tokenService, businessflow.AuthSettings{
		BcryptCost:     cfg.Security.BcryptCost,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
		AutoVerify:     cfg.Security.AutoVerifyAccounts,
	})
	sellerFlow := businessflow.NewSellerFlow(profileRepo, auditRepo, processor, lg.Named("seller"))
	adFlow := businessflow.NewAdFlow(adRepo, auditRepo)
	accountFlow := businessflow.NewAccountFlow(adRepo, paymentRepo, cfg.Payment.Currency)
	adminFlow := businessflow.NewAdminFlow(accountRepo, paymentRepo, auditRepo)
	guard := businessflow.NewEligibilityGuard(accountRepo)

	authMiddleware := middleware.NewAuthMiddleware(tokenService, guard, lg)

	appRouter := router.NewFiberRouter(cfg, router.Handlers{
		Auth:    handlers.NewAuthHandler(authFlow, lg),
		Payment: handlers.NewPaymentHandler(paymentFlow, lg),
		Seller:  handlers.NewSellerHandler(sellerFlow, lg),
		Ad:      handlers.NewAdHandler(adFlow, lg),
		Account: handlers.NewAccountHandler(accountFlow, lg),
		Admin:   handlers.NewAdminHandler(adminFlow, lg),
	}, authMiddleware, lg)

	return &Application{
		router:    appRouter,
		config:    cfg,
		logger:    lg,
		stopFuncs: stopFuncs,
	}, nil
}
