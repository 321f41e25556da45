// API server entry point for ClaimBridge.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/ClaimBridge/internal/application/claims"
	"github.com/turtacn/ClaimBridge/internal/application/items"
	"github.com/turtacn/ClaimBridge/internal/application/messages"
	"github.com/turtacn/ClaimBridge/internal/config"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/database/redis"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/ClaimBridge/internal/interfaces/http"
	"github.com/turtacn/ClaimBridge/internal/interfaces/http/handlers"
	"github.com/turtacn/ClaimBridge/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "claimbridge-apiserver",
		Short:         "ClaimBridge API server for lost-and-found claim lifecycle management",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: environment only)")

	root.AddCommand(newServeCommand(&configPath))
	root.AddCommand(newMigrateCommand(&configPath))
	return root
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadFromEnv()
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runServer(cfg, *configPath)
		},
	}
}

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(cfg.Log)
			if err != nil {
				return err
			}

			conn, err := postgres.NewConnection(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.RunMigrations(cfg.MigrationsDir); err != nil {
				return err
			}
			logger.Info("migrations applied", logging.String("dir", cfg.MigrationsDir))
			return nil
		},
	}
}

func runServer(cfg *config.Config, configPath string) error {
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Info("starting claimbridge api server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port))

	// Metrics
	collector, err := prometheus.NewMetricsCollector(cfg.Metrics, logger)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	metrics := prometheus.NewAppMetrics(collector)

	// PostgreSQL
	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	itemRepo := repositories.NewPostgresItemRepo(conn, logger)
	claimRepo := repositories.NewPostgresClaimRepo(conn, logger)
	messageRepo := repositories.NewPostgresMessageRepo(conn, logger)
	notifRepo := repositories.NewPostgresNotificationRepo(conn, logger)

	checkers := []handlers.HealthChecker{
		handlers.NamedChecker{ComponentName: "postgres", CheckFunc: conn.HealthCheck},
	}

	// Redis read-through cache for item lookups
	if !cfg.CacheDisabled {
		redisClient, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()

		cache := redis.NewRedisCache(redisClient, logger)
		itemRepo = redis.NewCachedItemRepo(itemRepo, cache, logger, metrics)
		checkers = append(checkers, handlers.NamedChecker{ComponentName: "redis", CheckFunc: redisClient.Ping})
	}

	// Kafka event producer
	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("init kafka producer: %w", err)
	}
	defer producer.Close()

	ensureTopics(cfg.Kafka.Brokers, logger)

	// MinIO photo store
	minioClient, err := minio.NewClient(&cfg.MinIO, logger)
	if err != nil {
		return fmt.Errorf("connect minio: %w", err)
	}
	defer minioClient.Close()
	photoStore := minio.NewPhotoStore(minioClient, logger)

	// Application services
	dispatcher := claims.NewDispatcher(cfg.Dispatch, messageRepo, notifRepo, logger)
	claimService := claims.NewService(itemRepo, claimRepo, dispatcher, producer, logger, claims.WithMetrics(metrics))
	itemService := items.NewService(itemRepo, photoStore, producer, logger, items.WithMetrics(metrics))
	messageService := messages.NewService(messageRepo, notifRepo, logger)

	// HTTP layer
	auth := middleware.NewAuthMiddleware(
		middleware.NewStaticTokenValidator(cfg.Auth.AdminTokens),
		middleware.AuthConfig{UserHeader: cfg.Auth.UserHeader},
		logger,
	)
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.CORSOrigins

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ItemHandler:      handlers.NewItemHandler(itemService, claimService, cfg.Server.MaxBodySize, logger),
		ClaimHandler:     handlers.NewClaimHandler(claimService, cfg.Server.MaxBodySize, logger),
		MessageHandler:   handlers.NewMessageHandler(messageService),
		HealthHandler:    handlers.NewHealthHandler(version, metrics, checkers...),
		AuthMiddleware:   auth,
		CORSConfig:       &corsConfig,
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
	})

	server := httpserver.NewServer(httpserver.ServerOptions{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, logger)

	// Hot-reload the log level on config file changes.  Everything else
	// keeps the values the process started with.
	if configPath != "" {
		config.Watch(configPath, func(next *config.Config) {
			if ls, ok := logger.(logging.LevelSetter); ok {
				ls.SetLevel(next.Log.Level)
			}
			logger.Info("configuration reloaded", logging.String("log_level", next.Log.Level))
		})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Stop(ctx)
}

// ensureTopics creates the default event topics.  Failure is non-fatal: the
// producer retries and brokers commonly auto-create topics.
func ensureTopics(brokers []string, logger logging.Logger) {
	manager, err := kafka.NewTopicManager(brokers, logger)
	if err != nil {
		logger.Warn("kafka topic manager unavailable", logging.Err(err))
		return
	}
	defer manager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := manager.EnsureDefaultTopics(ctx); err != nil {
		logger.Warn("could not ensure kafka topics", logging.Err(err))
	}
}
