package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/webchatkit/webchatkit/internal/botusage/domain"
	"github.com/webchatkit/webchatkit/internal/cache"
	"github.com/webchatkit/webchatkit/internal/clock"
	"github.com/webchatkit/webchatkit/internal/config"
	"github.com/webchatkit/webchatkit/internal/hostname"
	obsmetrics "github.com/webchatkit/webchatkit/internal/observability/metrics"
	"github.com/webchatkit/webchatkit/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Cfg           config.Config
	Repo          usagedomain.Repository
	Clock         clock.Clock
	ResolverCache cache.UsageResolverCache
	Metrics       *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID         *snowflake.Node
	cfg           config.Config
	repo          usagedomain.Repository
	clock         clock.Clock
	resolverCache cache.UsageResolverCache
	metrics       *obsmetrics.Metrics
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("botusage.service"),

		genID:         p.GenID,
		cfg:           p.Cfg,
		repo:          p.Repo,
		clock:         p.Clock,
		resolverCache: p.ResolverCache,
		metrics:       p.Metrics,
	}
}

// resolveRecord finds the enabled record for a reported hostname, trying
// the www-toggled sibling before concluding not-found. A nil record with a
// nil error means no enabled row matched any variant; transport failures
// are never folded into not-found. Hits are held in a short-lived record
// cache keyed by the canonical hostname; every counter write invalidates
// that key, so a cached read is at most one TTL behind and never spans a
// local mutation.
func (s *Service) resolveRecord(ctx context.Context, host string) (*usagedomain.UsageRecord, error) {
	if resolved, ok := s.resolverCache.GetVariant(host); ok {
		if cached, ok := s.resolverCache.GetRecord(resolved); ok {
			return &cached, nil
		}
		record, err := s.repo.FindEnabledByHostname(ctx, s.db, resolved)
		if err != nil {
			return nil, err
		}
		if record != nil {
			s.resolverCache.SetRecord(record.Hostname, *record)
			return record, nil
		}
		// Stale resolution; fall through to the full variant search.
	}
	for _, candidate := range hostname.Variations(host) {
		record, err := s.repo.FindEnabledByHostname(ctx, s.db, candidate)
		if err != nil {
			return nil, err
		}
		if record != nil {
			s.resolverCache.SetVariant(host, candidate)
			s.resolverCache.SetRecord(record.Hostname, *record)
			return record, nil
		}
	}
	return nil, nil
}

func (s *Service) GetUsage(ctx context.Context, host string) (*usagedomain.UsageRecord, error) {
	normalized := hostname.Normalize(host)
	if normalized == "" {
		return nil, usagedomain.ErrInvalidHostname
	}
	record, err := s.resolveRecord(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, usagedomain.ErrHostnameNotFound
	}
	return record, nil
}

func (s *Service) CheckAvailability(ctx context.Context, host string) (usagedomain.Availability, error) {
	normalized := hostname.Normalize(host)
	if normalized == "" {
		return usagedomain.Availability{}, usagedomain.ErrInvalidHostname
	}
	record, err := s.resolveRecord(ctx, normalized)
	if err != nil {
		return usagedomain.Availability{}, err
	}

	status := usagedomain.GetAccessStatus(record)
	availability := usagedomain.Availability{
		Available: status.Allowed(),
		Reason:    status.Reason,
		Record:    record,
	}
	if !availability.Available && s.metrics != nil {
		s.metrics.RecordAccessDenied(ctx, status.Reason)
	}
	return availability, nil
}

func (s *Service) IncrementUsage(ctx context.Context, req usagedomain.IncrementRequest) (*usagedomain.UsageRecord, error) {
	normalized := hostname.Normalize(req.Hostname)
	if normalized == "" {
		return nil, usagedomain.ErrInvalidHostname
	}
	if req.Tokens < 0 || req.Interactions < 0 {
		return nil, usagedomain.ErrInvalidIncrement
	}

	record, err := s.resolveRecord(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, usagedomain.ErrHostnameNotFound
	}

	now := s.clock.Now().UTC()
	applied, err := s.repo.IncrementWithinQuota(ctx, s.db, record.ID, req.Tokens, req.Interactions, now)
	if err != nil {
		return nil, err
	}
	s.resolverCache.InvalidateRecord(record.Hostname)
	if !applied {
		// The conditional UPDATE matched nothing: either another writer
		// spent the remaining quota, or the record flipped underneath us.
		current, err := s.repo.FindByID(ctx, s.db, record.ID)
		if err != nil {
			return nil, err
		}
		if current == nil || !current.Enabled {
			return nil, usagedomain.ErrHostnameNotFound
		}
		if current.Status != usagedomain.StatusActive {
			return nil, usagedomain.ErrBotDisabled
		}
		s.log.Warn("usage increment rejected",
			zap.String("hostname", record.Hostname),
			zap.Int64("interactions", current.Interactions),
			zap.Int64("available_interactions", current.AvailableInteractions),
		)
		return nil, usagedomain.ErrInteractionLimitExceeded
	}

	if s.metrics != nil {
		s.metrics.RecordUsageIncrement(ctx, record.Hostname)
	}

	updated, err := s.repo.FindByID(ctx, s.db, record.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, usagedomain.ErrHostnameNotFound
	}
	return updated, nil
}

func (s *Service) ResetUsage(ctx context.Context, host string) (*usagedomain.UsageRecord, error) {
	normalized := hostname.Normalize(host)
	if normalized == "" {
		return nil, usagedomain.ErrInvalidHostname
	}
	record, err := s.resolveRecord(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, usagedomain.ErrHostnameNotFound
	}

	now := s.clock.Now().UTC()
	if err := s.repo.ResetCounters(ctx, s.db, record.ID, now); err != nil {
		return nil, err
	}
	s.resolverCache.InvalidateRecord(record.Hostname)

	s.log.Info("usage counters reset", zap.String("hostname", record.Hostname))
	return s.repo.FindByID(ctx, s.db, record.ID)
}

// InitializeUsage lazily provisions a hostname. Idempotent: an existing
// record is returned as-is, re-enabled first if it was killed; otherwise a
// default-quota row is inserted under the literal normalized hostname.
func (s *Service) InitializeUsage(ctx context.Context, req usagedomain.InitializeRequest) (*usagedomain.UsageRecord, error) {
	normalized := hostname.Normalize(req.Hostname)
	if normalized == "" {
		return nil, usagedomain.ErrInvalidHostname
	}

	now := s.clock.Now().UTC()
	for _, candidate := range hostname.Variations(normalized) {
		existing, err := s.repo.FindAnyByHostname(ctx, s.db, candidate)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			continue
		}
		if !existing.Enabled {
			if err := s.repo.SetEnabled(ctx, s.db, existing.ID, true, now); err != nil {
				return nil, err
			}
			s.resolverCache.InvalidateRecord(existing.Hostname)
			s.log.Info("usage record re-enabled", zap.String("hostname", existing.Hostname))
			return s.repo.FindByID(ctx, s.db, existing.ID)
		}
		return existing, nil
	}

	botName := req.BotName
	if botName == "" {
		botName = s.cfg.DefaultBotName
	}
	record := &usagedomain.UsageRecord{
		ID:                    s.genID.Generate(),
		Hostname:              normalized,
		BotID:                 req.BotID,
		BotName:               botName,
		Enabled:               true,
		Status:                usagedomain.StatusActive,
		AvailableInteractions: s.cfg.DefaultQuota,
		AllowBotAccess:        true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.repo.Insert(ctx, s.db, record); err != nil {
		// Two widgets racing on first load: the loser reuses the winner's row.
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindAnyByHostname(ctx, s.db, normalized)
		}
		return nil, err
	}
	s.log.Info("usage record provisioned",
		zap.String("hostname", normalized),
		zap.Int64("available_interactions", record.AvailableInteractions),
	)
	return record, nil
}
