package chat

import (
	"github.com/webchatkit/webchatkit/internal/chat/service"
	"go.uber.org/fx"
)

var Module = fx.Module("chat.service",
	fx.Provide(service.NewService),
)
