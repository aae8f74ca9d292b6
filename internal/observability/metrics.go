package observability

import (
	"context"

	"learnapp/internal/config"
	contextutils "learnapp/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes OpenTelemetry metrics
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *metric.MeterProvider, err error) {
	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otel resource: %w", err)
	}

	var exporter metric.Exporter
	switch cfg.Protocol {
	case "grpc", "":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
		exporter = exp
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "unsupported otel protocol: %s", cfg.Protocol)
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	)
	return mp, nil
}

var (
	assessmentsSubmitted     otelmetric.Int64Counter
	achievementsUnlocked     otelmetric.Int64Counter
	recommendationsGenerated otelmetric.Int64Counter
)

// InitDomainMetrics creates the domain counters on the global meter provider.
// Until it runs, the Record* helpers are no-ops.
func InitDomainMetrics() {
	meter := otel.Meter(instrumentationName)
	assessmentsSubmitted, _ = meter.Int64Counter("learnapp.assessments.submitted",
		otelmetric.WithDescription("Assessments graded and completed"))
	achievementsUnlocked, _ = meter.Int64Counter("learnapp.achievements.unlocked",
		otelmetric.WithDescription("Achievements newly unlocked"))
	recommendationsGenerated, _ = meter.Int64Counter("learnapp.recommendations.generated",
		otelmetric.WithDescription("Recommendations emitted by the heuristics"))
}

// RecordAssessmentSubmitted counts one graded submission
func RecordAssessmentSubmitted(ctx context.Context, subject string) {
	if assessmentsSubmitted != nil {
		assessmentsSubmitted.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("subject", subject)))
	}
}

// RecordAchievementsUnlocked counts newly unlocked achievements
func RecordAchievementsUnlocked(ctx context.Context, n int) {
	if achievementsUnlocked != nil && n > 0 {
		achievementsUnlocked.Add(ctx, int64(n))
	}
}

// RecordRecommendationsGenerated counts recommendations emitted in one generation run
func RecordRecommendationsGenerated(ctx context.Context, n int) {
	if recommendationsGenerated != nil && n > 0 {
		recommendationsGenerated.Add(ctx, int64(n))
	}
}
