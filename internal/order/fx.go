package order

import (
	"go.uber.org/fx"

	"github.com/samenkoop/winkel/internal/order/repository"
	"github.com/samenkoop/winkel/internal/order/service"
)

var Module = fx.Module("order",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
