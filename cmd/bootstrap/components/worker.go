package components

import (
	"log/slog"

	"stockops/internal/pkg/clock"
	"stockops/internal/pkg/config"
	"stockops/internal/usecase/commands"
	"stockops/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		NewWorker,
	),
)

// NewWorker assembles the consumer loop. It builds its own decrement
// engine so batch mutations are attributed to the worker in the audit
// trail rather than to the API path.
func NewWorker(
	q worker.Queue,
	inventoryRepo commands.InventoryRepository,
	auditRepo commands.AuditRepository,
	idempotency commands.IdempotencyCoordinator,
	cfg config.Config,
	clk clock.Clock,
	logger *slog.Logger,
) *worker.Worker {
	stock := commands.NewStockCommands(inventoryRepo, auditRepo, commands.AuditActionDecrementWorker, cfg.Worker.OCCMaxAttempts, logger)
	breaker := worker.NewCircuitBreaker(cfg.Worker.BreakerThreshold, cfg.Worker.BreakerCooldown, clk)
	return worker.New(q, stock, idempotency, breaker, cfg.Worker, clk, logger)
}
