package components

import (
	"log/slog"

	"stockops/internal/pkg/clock"
	"stockops/internal/pkg/config"
	"stockops/internal/usecase/commands"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		NewIdempotencyCoordinator,
		NewStockCommands,
		NewOrderCommands,
		commands.NewInventoryCommands,
	),
)

func NewIdempotencyCoordinator(repo commands.IdempotencyRepository, cfg config.Config, logger *slog.Logger) commands.IdempotencyCoordinator {
	return commands.NewIdempotencyCoordinator(repo, cfg.Idempotency.StaleAfter, logger)
}

func NewStockCommands(inventoryRepo commands.InventoryRepository, auditRepo commands.AuditRepository, cfg config.Config, logger *slog.Logger) commands.StockCommands {
	return commands.NewStockCommands(inventoryRepo, auditRepo, commands.AuditActionDecrement, cfg.Worker.OCCMaxAttempts, logger)
}

func NewOrderCommands(queue commands.JobQueue, cfg config.Config, clk clock.Clock, logger *slog.Logger) commands.OrderCommands {
	return commands.NewOrderCommands(queue, cfg.Queue.BackpressureLimit, clk, logger)
}
