// The reaper worker runs the expired-lock sweep as a standalone process, for
// deployments where the API server is scaled out and the in-process job is
// disabled. Running both is harmless: the sweep is idempotent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"opsync/internal/application/lock/usecases"
	"opsync/internal/infrastructure/cache"
	"opsync/internal/infrastructure/config"
	"opsync/internal/shared/logger"
)

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting lock reaper worker", "environment", env)

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
	reapJob := usecases.NewReapExpiredLocksUseCase(lockStore, log.Named("reaper"))

	interval := time.Duration(cfg.Lock.ReaperIntervalSeconds) * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep := func() {
		sweepCtx, sweepCancel := context.WithTimeout(ctx, interval)
		defer sweepCancel()

		reaped, err := reapJob.Execute(sweepCtx)
		if err != nil {
			log.Errorw("lock reap sweep failed", "error", err)
			return
		}
		if reaped > 0 {
			log.Infow("expired locks reaped", "count", reaped)
		}
	}

	sweep()
	log.Infow("lock reaper worker started", "interval", interval)

	for {
		select {
		case <-ticker.C:
			sweep()

		case sig := <-sigChan:
			log.Infow("received signal, shutting down", "signal", sig)
			return
		}
	}
}
