package main

import (
	"context"
	"log/slog"
	"os"

	"stockops/cmd/bootstrap"
	"stockops/internal/handler/middleware"
	"stockops/internal/pkg/config"
	"stockops/internal/worker"

	"go.uber.org/fx"
)

func runWorker(lc fx.Lifecycle, w *worker.Worker, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				if err := w.Run(ctx); err != nil {
					logger.Error("worker exited with error", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			// Cancel the loop, then wait for the in-flight batch to drain.
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func main() {
	app := fx.New(
		bootstrap.WorkerModule,
		fx.Provide(
			func(cfg config.Config) *slog.Logger {
				logger := middleware.NewLogger(cfg.Log)
				return logger.GetSlogLogger()
			},
		),
		fx.Invoke(
			runWorker,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("worker failed to start", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("worker failed to stop cleanly", "error", err)
	}

	slog.Info("worker stopped")
}
