package service

import (
	"context"
	"errors"
	"strings"

	usagedomain "github.com/webchatkit/webchatkit/internal/botusage/domain"
	chatdomain "github.com/webchatkit/webchatkit/internal/chat/domain"
	"github.com/webchatkit/webchatkit/internal/hostname"
	"github.com/webchatkit/webchatkit/internal/langdetect"
	obsmetrics "github.com/webchatkit/webchatkit/internal/observability/metrics"
	"github.com/webchatkit/webchatkit/internal/providers/llm"
	"github.com/webchatkit/webchatkit/internal/ratelimit"
	"github.com/webchatkit/webchatkit/internal/session"
	"github.com/webchatkit/webchatkit/internal/usagelog"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	UsageSvc usagedomain.Service
	LLM      llm.Provider
	Sessions *session.Manager
	LogQueue *usagelog.Queue
	Limiter  *ratelimit.ChatLimiter `optional:"true"`
	Metrics  *obsmetrics.Metrics    `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	usageSvc usagedomain.Service
	llm      llm.Provider
	sessions *session.Manager
	logQueue *usagelog.Queue
	limiter  *ratelimit.ChatLimiter
	metrics  *obsmetrics.Metrics
}

func NewService(p ServiceParam) chatdomain.Service {
	return &Service{
		log:      p.Log.Named("chat.service"),
		usageSvc: p.UsageSvc,
		llm:      p.LLM,
		sessions: p.Sessions,
		logQueue: p.LogQueue,
		limiter:  p.Limiter,
		metrics:  p.Metrics,
	}
}

// Chat runs one accounted turn: resolve -> gate -> complete -> increment.
// The gate runs before the completion call so a blocked site never costs a
// model invocation.
func (s *Service) Chat(ctx context.Context, req chatdomain.ChatRequest) (*chatdomain.ChatResponse, error) {
	host := hostname.Normalize(req.Hostname)
	if host == "" {
		return nil, usagedomain.ErrInvalidHostname
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, chatdomain.ErrMissingMessage
	}

	if result, err := s.limiter.Allow(ctx, host); err != nil {
		s.log.Warn("rate limiter unavailable, failing open",
			zap.String("hostname", host), zap.Error(err))
	} else if !result.Allowed {
		return nil, chatdomain.ErrRateLimited
	}

	availability, err := s.usageSvc.CheckAvailability(ctx, host)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, reasonError(availability.Reason)
	}

	userID := s.resolveUser(req.SessionToken, host)

	language := req.Language
	if language == "" {
		language = langdetect.Detect(req.Message)
	}

	completion, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Message:  req.Message,
		History:  req.History,
		Language: language,
	})
	if err != nil {
		return nil, err
	}

	response := &chatdomain.ChatResponse{
		Reply:              completion.Reply,
		Language:           language,
		TokensUsed:         completion.TokensUsed,
		CostEstimated:      completion.CostEstimated,
		AccountingRecorded: true,
	}

	record, err := s.usageSvc.IncrementUsage(ctx, usagedomain.IncrementRequest{
		Hostname:     host,
		Tokens:       completion.TokensUsed,
		Interactions: 1,
	})
	switch {
	case err == nil:
		response.RemainingInteractions = record.AvailableInteractions - record.Interactions
	case errors.Is(err, usagedomain.ErrInteractionLimitExceeded),
		errors.Is(err, usagedomain.ErrHostnameNotFound),
		errors.Is(err, usagedomain.ErrBotDisabled),
		errors.Is(err, usagedomain.ErrInvalidIncrement):
		// Domain rejections surface to the user; the reply is not shown.
		return nil, err
	default:
		// The reply already exists; a transport failure on the usage write
		// must not take it away. Under-counting is accepted and logged.
		response.AccountingRecorded = false
		if availability.Record != nil {
			response.RemainingInteractions = availability.Record.AvailableInteractions - availability.Record.Interactions
		}
		s.log.Error("usage increment failed after completion, reply delivered unaccounted",
			zap.String("hostname", host),
			zap.Int64("tokens", completion.TokensUsed),
			zap.Error(err),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordChatTurn(ctx, host, completion.TokensUsed)
	}
	s.logQueue.Enqueue(ctx, usagelog.LogEntry{
		Hostname: host,
		Kind:     usagelog.KindTokenConsumption,
		UserID:   userID,
		Tokens:   completion.TokensUsed,
		Details: datatypes.JSONMap{
			"model":               completion.Model,
			"language":            language,
			"cost_estimated":      completion.CostEstimated,
			"accounting_recorded": response.AccountingRecorded,
		},
	})

	return response, nil
}

// resolveUser validates the optional session token. An invalid token never
// blocks the turn; the log entry just stays anonymous.
func (s *Service) resolveUser(token, host string) string {
	if token == "" {
		return ""
	}
	data, err := s.sessions.Resolve(token)
	if err != nil {
		s.log.Debug("session token rejected", zap.String("hostname", host), zap.Error(err))
		return ""
	}
	s.logQueue.Enqueue(context.Background(), usagelog.LogEntry{
		Hostname: host,
		Kind:     usagelog.KindUserAccess,
		UserID:   data.UserID,
		Details: datatypes.JSONMap{
			"tenant_id": data.TenantID,
			"bot_id":    data.BotID,
		},
	})
	return data.UserID
}

func reasonError(reason string) error {
	switch reason {
	case usagedomain.ReasonBotDisabled:
		return usagedomain.ErrBotDisabled
	case usagedomain.ReasonInteractionLimitExceeded:
		return usagedomain.ErrInteractionLimitExceeded
	default:
		return usagedomain.ErrHostnameNotFound
	}
}
