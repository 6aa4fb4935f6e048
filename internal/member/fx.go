package member

import (
	"go.uber.org/fx"

	"github.com/samenkoop/winkel/internal/member/repository"
)

var Module = fx.Module("member",
	fx.Provide(repository.Provide),
)
