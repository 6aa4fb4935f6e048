package providers

import (
	"go.uber.org/fx"

	"github.com/samenkoop/winkel/internal/providers/email"
	"github.com/samenkoop/winkel/internal/providers/pdf"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
