package botusage

import (
	"github.com/webchatkit/webchatkit/internal/botusage/repository"
	"github.com/webchatkit/webchatkit/internal/botusage/service"
	"github.com/webchatkit/webchatkit/internal/cache"
	"go.uber.org/fx"
)

var Module = fx.Module("botusage.service",
	fx.Provide(
		repository.Provide,
		cache.NewUsageResolverCache,
		service.NewService,
	),
)
