package llm

import (
	"github.com/webchatkit/webchatkit/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.llm",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	return NewOpenAI(cfg.OpenAI, log)
}
