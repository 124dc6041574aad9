package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/webchatkit/webchatkit/internal/config"
	obsmetrics "github.com/webchatkit/webchatkit/internal/observability/metrics"
)

const keyChatHostname = "chat:ingress:%s"

// ChatLimiter throttles chat turns per hostname before any billable work
// happens. A nil limiter (rate limiting disabled) allows everything.
type ChatLimiter struct {
	enabled bool

	bucket  *TokenBucket
	metrics *obsmetrics.Metrics

	rate  float64
	burst int
}

func NewChatLimiter(cfg config.Config, metrics *obsmetrics.Metrics) (*ChatLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ChatRate <= 0 || limitCfg.ChatBurst <= 0 {
		return nil, errors.New("chat rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &ChatLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		metrics: metrics,
		rate:    limitCfg.ChatRate,
		burst:   limitCfg.ChatBurst,
	}, nil
}

func (l *ChatLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow consumes one token from the hostname's bucket. Limiter failures
// fail open: a broken redis must not take chat down.
func (l *ChatLimiter) Allow(ctx context.Context, hostname string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	result, err := l.bucket.Allow(ctx, fmt.Sprintf(keyChatHostname, strings.TrimSpace(hostname)), l.rate, l.burst)
	if err != nil {
		return &Result{Allowed: true}, err
	}
	if l.metrics != nil {
		l.metrics.RecordRateLimit(ctx, result.Allowed)
	}
	return result, nil
}
