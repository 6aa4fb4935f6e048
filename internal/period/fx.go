package period

import (
	"go.uber.org/fx"

	"github.com/samenkoop/winkel/internal/period/repository"
)

var Module = fx.Module("period",
	fx.Provide(repository.Provide),
)
