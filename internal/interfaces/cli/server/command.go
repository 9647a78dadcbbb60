// Package server implements the `opsync server` command: the HTTP API plus
// the in-process lock reaper and session cleanup jobs.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	lockUsecases "opsync/internal/application/lock/usecases"
	sessionUsecases "opsync/internal/application/session/usecases"
	"opsync/internal/infrastructure/cache"
	"opsync/internal/infrastructure/config"
	"opsync/internal/infrastructure/database"
	"opsync/internal/infrastructure/migration"
	"opsync/internal/infrastructure/repository"
	"opsync/internal/infrastructure/scheduler"
	httpRouter "opsync/internal/interfaces/http"
	"opsync/internal/shared/biztime"
	"opsync/internal/shared/goroutine"
	"opsync/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the opsync HTTP server with the lock reaper and session cleanup jobs running in-process.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	if err := biztime.Init(biztime.DefaultTimezone); err != nil {
		return fmt.Errorf("failed to initialize timezone: %w", err)
	}

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	if autoMigrate {
		if env == "production" {
			log.Warnw("auto-migration is enabled in production environment")
		}
		migrationManager := migration.NewManager(env)
		if err := migrationManager.Migrate(database.Get(), migration.AutoMigrateModels()...); err != nil {
			log.Fatalw("auto-migration failed", "error", err)
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	lockStore := cache.NewRedisLockStore(redisClient, log.Named("lockstore"))
	sessionRepo := repository.NewSessionRepository(database.Get())

	schedulerManager, err := scheduler.NewSchedulerManager(log.Named("scheduler"))
	if err != nil {
		log.Fatalw("failed to create scheduler manager", "error", err)
	}

	reapJob := lockUsecases.NewReapExpiredLocksUseCase(lockStore, log.Named("reaper"))
	reaperInterval := time.Duration(cfg.Lock.ReaperIntervalSeconds) * time.Second
	if err := schedulerManager.RegisterLockReaperJob(reapJob, reaperInterval); err != nil {
		log.Fatalw("failed to register lock reaper job", "error", err)
	}

	cleanupJob := sessionUsecases.NewCleanupExpiredSessionsUseCase(sessionRepo, log.Named("session-cleanup"))
	if err := schedulerManager.RegisterSessionCleanupJob(cleanupJob, time.Hour); err != nil {
		log.Fatalw("failed to register session cleanup job", "error", err)
	}

	schedulerManager.Start()
	defer func() {
		if err := schedulerManager.Stop(); err != nil {
			log.Errorw("failed to stop scheduler manager", "error", err)
		}
	}()

	router := httpRouter.NewRouter(database.Get(), lockStore, cfg, log)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	goroutine.SafeGo(log, "http-server", func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("failed to start server", "error", err)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
