package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/branchaudit-backend/internal/platform/ctxutil"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

const (
	tracerName         = "github.com/yungbote/branchaudit-backend"
	defaultServiceName = "branchaudit"
	defaultSampleRatio = 0.1
)

type OtelConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Version     string
	Endpoint    string // host:port of an OTLP/HTTP collector; empty prints spans to stdout
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

// InitOTel installs the global tracer provider and returns its shutdown.
// Exporter problems are logged and tracing continues without export.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }
	}
	if log == nil {
		log = logger.NewNop()
	}
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = defaultServiceName
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio(cfg.SampleRatio)))),
	}
	if res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(name),
		semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
		attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
	)); err != nil {
		log.Warn("otel resource incomplete", "error", err)
	} else {
		opts = append(opts, sdktrace.WithResource(res))
	}

	exp, err := newExporter(ctx, cfg)
	switch {
	case err != nil:
		log.Warn("otel exporter unavailable; spans will not be exported", "endpoint", cfg.Endpoint, "error", err)
	default:
		opts = append(opts, sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	log.Info("otel tracing on", "service", name, "endpoint", cfg.Endpoint, "sample_ratio", sampleRatio(cfg.SampleRatio))
	return tp.Shutdown
}

func newExporter(ctx context.Context, cfg OtelConfig) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

func sampleRatio(f float64) float64 {
	if f <= 0 {
		return defaultSampleRatio
	}
	if f > 1 {
		return 1
	}
	return f
}

// StartSpan opens a span named op. kv are string attribute pairs; the
// request id of ctx is attached when present.
func StartSpan(ctx context.Context, op string, kv ...string) (context.Context, trace.Span) {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], kv[i+1]))
	}
	if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.RequestID != "" {
		attrs = append(attrs, attribute.String("request_id", rd.RequestID))
	}
	return otel.Tracer(tracerName).Start(ctx, op, trace.WithAttributes(attrs...))
}
