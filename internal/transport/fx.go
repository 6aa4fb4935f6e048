package transport

import (
	"go.uber.org/fx"

	"github.com/samenkoop/winkel/internal/transport/repository"
	"github.com/samenkoop/winkel/internal/transport/service"
)

var Module = fx.Module("transport",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
