package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	chatTurns        metric.Int64Counter
	tokensAccounted  metric.Int64Counter
	usageIncrements  metric.Int64Counter
	accessDenied     metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
	usageLogFlushes  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "webchatkit"
	}
	meter := provider.Meter(name)

	chatTurns, err := meter.Int64Counter("webchatkit_chat_turns_total")
	if err != nil {
		return nil, err
	}
	tokensAccounted, err := meter.Int64Counter("webchatkit_tokens_accounted_total")
	if err != nil {
		return nil, err
	}
	usageIncrements, err := meter.Int64Counter("webchatkit_usage_increments_total")
	if err != nil {
		return nil, err
	}
	accessDenied, err := meter.Int64Counter("webchatkit_access_denied_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("webchatkit_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("webchatkit_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}
	usageLogFlushes, err := meter.Int64Counter("webchatkit_usage_log_flushes_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		chatTurns:        chatTurns,
		tokensAccounted:  tokensAccounted,
		usageIncrements:  usageIncrements,
		accessDenied:     accessDenied,
		rateLimitAllowed: rateLimitAllowed,
		rateLimitDenied:  rateLimitDenied,
		usageLogFlushes:  usageLogFlushes,
	}, nil
}

func (m *Metrics) RecordChatTurn(ctx context.Context, hostname string, tokens int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("hostname", hostname))
	m.chatTurns.Add(ctx, 1, attrs)
	m.tokensAccounted.Add(ctx, tokens, attrs)
}

func (m *Metrics) RecordUsageIncrement(ctx context.Context, hostname string) {
	if m == nil {
		return
	}
	m.usageIncrements.Add(ctx, 1, metric.WithAttributes(attribute.String("hostname", hostname)))
}

func (m *Metrics) RecordAccessDenied(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.accessDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) RecordRateLimit(ctx context.Context, allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.rateLimitAllowed.Add(ctx, 1)
		return
	}
	m.rateLimitDenied.Add(ctx, 1)
}

func (m *Metrics) RecordUsageLogFlush(ctx context.Context, entries int64) {
	if m == nil {
		return
	}
	m.usageLogFlushes.Add(ctx, entries)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp metric protocol %q", protocol)
	}
}
