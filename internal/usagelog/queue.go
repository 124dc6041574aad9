package usagelog

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/webchatkit/webchatkit/internal/clock"
	"github.com/webchatkit/webchatkit/internal/config"
	obsmetrics "github.com/webchatkit/webchatkit/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QueueParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Cfg     config.Config
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// Queue buffers log entries and flushes them to the usage_logs table when
// the batch fills, on a fixed interval, and on shutdown. A failed flush
// requeues its batch; entries are only dropped with the process.
type Queue struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *obsmetrics.Metrics

	batchSize int
	interval  time.Duration

	mu      sync.Mutex
	pending []LogEntry
}

func NewQueue(p QueueParam) *Queue {
	batchSize := p.Cfg.UsageLog.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	interval := p.Cfg.UsageLog.FlushInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Queue{
		db:      p.DB,
		log:     p.Log.Named("usagelog.queue"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,

		batchSize: batchSize,
		interval:  interval,
	}
}

// Enqueue buffers one entry, assigning its ID and timestamp. When the
// buffer reaches the batch size it is flushed inline.
func (q *Queue) Enqueue(ctx context.Context, entry LogEntry) {
	entry.ID = q.genID.Generate()
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = q.clock.Now().UTC()
	}

	q.mu.Lock()
	q.pending = append(q.pending, entry)
	full := len(q.pending) >= q.batchSize
	q.mu.Unlock()

	if full {
		q.Flush(ctx)
	}
}

// Pending reports the number of buffered entries.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush writes all buffered entries in one insert. On failure the batch
// goes back to the front of the buffer for the next attempt.
func (q *Queue) Flush(ctx context.Context) {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	if err := q.db.WithContext(ctx).CreateInBatches(batch, q.batchSize).Error; err != nil {
		q.log.Warn("usage log flush failed, requeueing batch",
			zap.Int("entries", len(batch)),
			zap.Error(err),
		)
		q.mu.Lock()
		q.pending = append(batch, q.pending...)
		q.mu.Unlock()
		return
	}

	if q.metrics != nil {
		q.metrics.RecordUsageLogFlush(ctx, int64(len(batch)))
	}
	q.log.Debug("usage log batch flushed", zap.Int("entries", len(batch)))
}

// RunFlusher flushes on the configured interval until the context is
// cancelled, then drains whatever is left.
func (q *Queue) RunFlusher(ctx context.Context) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			q.Flush(context.Background())
			return
		case <-ticker.C:
			q.Flush(ctx)
		}
	}
}
