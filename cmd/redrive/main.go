package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"stockops/internal/infra/queue"
	"stockops/internal/pkg/config"

	"github.com/redis/go-redis/v9"
)

// One-shot operational command: moves every dead-lettered job back onto
// the main queue. The worker picks them up on its next cycle.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	q := queue.New(client, cfg.Queue)

	moved, err := q.RedriveAll(ctx)
	if err != nil {
		logger.Error("redrive failed", "moved", moved, "error", err)
		os.Exit(1)
	}

	logger.Info("redrive complete", "moved", moved)
}
