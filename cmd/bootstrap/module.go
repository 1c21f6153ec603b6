package bootstrap

import (
	"stockops/cmd/bootstrap/components"

	"go.uber.org/fx"
)

// Module wires the HTTP API process.
var Module = fx.Options(
	ConfigModule,
	DBModule,
	RedisModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.HandlerModule,
)

// WorkerModule wires the queue consumer process. It shares the
// persistence and use-case graph with the API but carries no HTTP
// surface.
var WorkerModule = fx.Options(
	ConfigModule,
	DBModule,
	RedisModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.WorkerModule,
)
