package components

import (
	"stockops/internal/handler"
	"stockops/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewInventoryHandler,
		api.NewOrderHandler,
		api.NewQueueHandler,
	),
	fx.Invoke(handler.NewRouter),
)
