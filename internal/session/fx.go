package session

import (
	"context"

	"github.com/webchatkit/webchatkit/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("session.manager",
	fx.Provide(NewManager),
	fx.Invoke(registerSweeper),
)

func registerSweeper(lc fx.Lifecycle, cfg config.Config, m *Manager) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				m.RunSweeper(ctx, cfg.Session.SweepInterval)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}
