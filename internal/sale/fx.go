package sale

import (
	"go.uber.org/fx"

	"github.com/samenkoop/winkel/internal/sale/repository"
	"github.com/samenkoop/winkel/internal/sale/service"
)

var Module = fx.Module("sale",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
