package usagelog

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("usagelog.queue",
	fx.Provide(NewQueue),
	fx.Invoke(runFlusher),
)

func runFlusher(lc fx.Lifecycle, queue *Queue) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				queue.RunFlusher(ctx)
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
