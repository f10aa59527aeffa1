package main // Entry point package

import (
	"context"   // lifetime of background workers
	"errors"    // recognise a clean server close
	"log"       // fallback logging before zap is configured
	"net/http"  // http.ErrServerClosed
	"os"        // process signals
	"os/signal" // graceful shutdown
	"syscall"   // SIGTERM
	"time"      // shutdown grace period

	"go.uber.org/zap" // structured logging

	"github.com/iliyamo/account-service/internal/config"     // Internal config loader
	"github.com/iliyamo/account-service/internal/database"   // MySQL connection and migrations
	"github.com/iliyamo/account-service/internal/handler"    // HTTP handlers
	"github.com/iliyamo/account-service/internal/logging"    // zap logger construction
	"github.com/iliyamo/account-service/internal/middleware" // rate limiter
	"github.com/iliyamo/account-service/internal/queue"      // account event consumer
	"github.com/iliyamo/account-service/internal/repository" // account stores
	"github.com/iliyamo/account-service/internal/router"     // Internal router setup
	"github.com/iliyamo/account-service/internal/service"    // account lifecycle and identity
	"github.com/iliyamo/account-service/internal/utils"      // hashing and tokens
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SecretGenerated {
		logger.Warn("JWT_SECRET not set, using a generated secret; tokens will not survive a restart")
	}

	store, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	hasher := utils.NewPasswordHasher(utils.Argon2Params{
		Time:      cfg.Argon2Time,
		MemoryKiB: cfg.Argon2MemoryKiB,
		Threads:   cfg.Argon2Threads,
		SaltLen:   utils.DefaultArgon2Params.SaltLen,
		KeyLen:    utils.DefaultArgon2Params.KeyLen,
	}, cfg.HashWorkers)
	codec := utils.NewTokenCodec(cfg.JWTSecret, cfg.AccessTTL())

	var events service.EventPublisher
	if cfg.Events.Enabled {
		pub := service.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue, logger)
		go pub.Run(ctx)
		go func() {
			if err := queue.StartAccountEventConsumer(ctx, cfg.Events.URL, cfg.Events.Queue, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("account event consumer stopped", zap.Error(err))
			}
		}()
		events = pub
	}

	accounts := service.NewAccountService(store, hasher, events, logger)
	resolver := service.NewIdentityResolver(store, hasher, codec)

	if cfg.BootstrapAdmin() {
		a, err := accounts.EnsureAdmin(ctx, service.RegisterInput{
			UserName:       cfg.AdminUserName,
			FirstName:      cfg.AdminUserName,
			LastName:       cfg.AdminUserName,
			Password:       cfg.AdminPassword,
			SecurityAnswer: cfg.AdminSecurityAnswer,
		})
		if err != nil {
			logger.Error("bootstrap admin", zap.Error(err))
		} else {
			logger.Info("bootstrap admin ready", zap.String("account_id", a.ID))
		}
	}

	// Redis is optional; without it the credential endpoints are not throttled.
	var cache handler.Pinger
	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Info("rate limiting disabled", zap.Error(err))
	} else {
		defer func() { _ = rdb.Close() }()
		cache = handler.RedisPinger{Client: rdb}
	}

	e := router.New(router.Deps{
		Prefix:    cfg.APIPrefix,
		Logger:    logger,
		Resolver:  resolver,
		Auth:      handler.NewAuthHandler(resolver, codec, accounts, logger, cfg.RequestTimeout),
		Accounts:  handler.NewAccountHandler(accounts, logger, cfg.RequestTimeout),
		Health:    handler.NewHealthHandler(store, cache, logger, cfg.RequestTimeout),
		RateLimit: middleware.NewTokenBucket(cfg.RateLimit, rdb, logger),
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
}

// openStore returns the configured account store and a function that
// releases it.  Startup failures are fatal.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repository.AccountStore, func()) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using the in-memory store; accounts are lost on exit")
		return repository.NewMemoryAccountRepo(), func() {}
	}

	db, err := database.Open(ctx, database.Options{
		User:    cfg.DBUser,
		Pass:    cfg.DBPass,
		Host:    cfg.DBHost,
		Port:    cfg.DBPort,
		Name:    cfg.DBName,
		Timeout: cfg.DBTimeout,
	})
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		logger.Fatal("migrate database", zap.Error(err))
	}
	return repository.NewAccountRepo(db), func() { _ = db.Close() }
}
