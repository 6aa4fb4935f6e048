package settlement

import (
	"go.uber.org/fx"

	"github.com/samenkoop/winkel/internal/settlement/repository"
	"github.com/samenkoop/winkel/internal/settlement/service"
)

var Module = fx.Module("settlement",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
