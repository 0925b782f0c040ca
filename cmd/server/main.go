// Package main is the entry point of the Trilhas progression service.
//
// The service turns module completions into XP, levels, achievements and
// redeemable rewards for the Trilhas learning platform.
//
// The layout follows Clean Architecture / DDD:
//   - Domain: business rules with no external dependencies
//   - Application: command/query handlers orchestrating use cases
//   - Infrastructure: PostgreSQL repositories, Redis cache, event bus
//   - Interface: the REST API
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/douglasrmachado/Trilhas-App-sub001/config"

	// Application layer
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/application/command"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/application/eventhandler"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/application/query"

	// Domain layer
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/notification"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"

	// Infrastructure layer
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/infrastructure/messaging"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/infrastructure/persistence/postgres"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/infrastructure/persistence/redis"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/douglasrmachado/Trilhas-App-sub001/internal/interface/http"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("service terminated", "error", err)
		os.Exit(1)
	}
}

// run wires the application together and blocks until shutdown.
func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGER
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	slog.SetDefault(log)

	log.Info("starting service",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnection(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.RunMigrations {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Up(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache *redis.Cache
		statsCache query.StatsCache
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err = redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			// The cache is an acceleration layer: the service stays
			// correct without it, so a down Redis never blocks startup.
			log.Warn("failed to connect to Redis, running without cache", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			statsCache = redis.NewStatsCache(redisCache, log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")

	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log

	var eventBus interface {
		shared.EventPublisher
		shared.EventSubscriber
		Close() error
	}

	if redisCache != nil {
		eventBus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redisCache.Client(),
			LocalBusConfig: busConfig,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
	} else {
		eventBus = messaging.NewInMemoryEventBus(busConfig)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	learnerRepo := postgres.NewLearnerRepository(dbConn)
	catalogRepo := postgres.NewCatalogRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	balanceRepo := postgres.NewBalanceRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	rewardRepo := postgres.NewRewardRepository(dbConn)
	submissionRepo := postgres.NewSubmissionRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. NOTIFICATION SINK
	// ─────────────────────────────────────────────────────────────────────────
	var sink notification.Sink
	if cfg.Notification.WebhookURL != "" {
		log.Info("notifications delivered via webhook", "url", cfg.Notification.WebhookURL)
		sink = service.NewWebhookSink(cfg.Notification.WebhookURL, log)
	} else {
		log.Info("no webhook configured, notifications go to the log")
		sink = service.NewLogSink(log)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	calculator := progression.NewCalculator(balanceRepo, eventBus, log)
	engine := command.NewAchievementEngine(achievementRepo, balanceRepo, progressRepo, submissionRepo, eventBus, sink, log)

	registerLearnerCmd := command.NewRegisterLearnerHandler(learnerRepo, log)
	setModuleStatusCmd := command.NewSetModuleStatusHandler(learnerRepo, catalogRepo, progressRepo, engine, eventBus, sink, log)
	createRewardCmd := command.NewCreateRewardRequestHandler(learnerRepo, rewardRepo, calculator, log)
	resolveRewardCmd := command.NewResolveRewardRequestHandler(learnerRepo, rewardRepo, eventBus, sink, log)
	submitArtifactCmd := command.NewSubmitArtifactHandler(learnerRepo, catalogRepo, submissionRepo, log)
	reviewSubmissionCmd := command.NewReviewSubmissionHandler(learnerRepo, submissionRepo, engine, sink, log)

	listCatalogQuery := query.NewListCatalogHandler(catalogRepo)
	trailCompletionQuery := query.NewGetTrailCompletionHandler(learnerRepo, progressRepo)
	listAchievementsQuery := query.NewListAchievementsHandler(achievementRepo)
	learnerStatsQuery := query.NewGetLearnerStatsHandler(learnerRepo, balanceRepo, progressRepo, achievementRepo, statsCache, log)
	listRewardsQuery := query.NewListRewardRequestsHandler(rewardRepo)
	listSubmissionsQuery := query.NewListSubmissionsHandler(submissionRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	if statsCache != nil {
		log.Info("registering event handlers...")
		invalidator := eventhandler.NewStatsInvalidator(statsCache, log)
		if err := invalidator.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register stats invalidator: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	healthCheckers := map[string]httpserver.HealthChecker{
		"postgres": dbConn,
	}
	if redisCache != nil {
		healthCheckers["redis"] = redisCache
	}

	httpServer := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		RegisterLearner:     registerLearnerCmd,
		SetModuleStatus:     setModuleStatusCmd,
		CreateRewardRequest: createRewardCmd,
		ResolveRewardReq:    resolveRewardCmd,
		SubmitArtifact:      submitArtifactCmd,
		ReviewSubmission:    reviewSubmissionCmd,
		ListCatalog:         listCatalogQuery,
		GetTrailCompletion:  trailCompletionQuery,
		ListAchievements:    listAchievementsQuery,
		GetLearnerStats:     learnerStatsQuery,
		ListRewardRequests:  listRewardsQuery,
		ListSubmissions:     listSubmissionsQuery,
		HealthCheckers:      healthCheckers,
		Logger:              log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 12. START + GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", httpConfig.Address())
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("service is running", "http_address", httpConfig.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	// Event bus and connections close via defer.
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGER
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger builds the process-wide structured logger. Production gets
// JSON for log aggregation, everything else gets human-readable text.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.App.Environment == config.EnvProduction {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
