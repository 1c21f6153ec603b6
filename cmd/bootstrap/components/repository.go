package components

import (
	"stockops/internal/handler/api"
	"stockops/internal/infra/queue"
	"stockops/internal/infra/readstore"
	repo_impl "stockops/internal/infra/repository"
	"stockops/internal/pkg/config"
	"stockops/internal/usecase/commands"
	"stockops/internal/usecase/queries"
	"stockops/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repo_impl.NewInventoryRepository,
			fx.As(new(commands.InventoryRepository)),
		),
		fx.Annotate(
			repo_impl.NewIdempotencyRepository,
			fx.As(new(commands.IdempotencyRepository)),
		),
		fx.Annotate(
			repo_impl.NewAuditRepository,
			fx.As(new(commands.AuditRepository)),
		),
		// Read-side store for queries
		fx.Annotate(
			readstore.NewInventoryReadStore,
			fx.As(new(queries.InventoryQueries)),
		),
		fx.Annotate(
			NewQueue,
			fx.As(new(commands.JobQueue)),
			fx.As(new(worker.Queue)),
			fx.As(new(api.QueueOps)),
		),
	),
)

func NewQueue(client *redis.Client, cfg config.Config) *queue.Queue {
	return queue.New(client, cfg.Queue)
}
