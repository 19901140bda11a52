package deps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/learning-tokens/lms-connector/internal/config"
)

// ServiceName is the service.name resource attribute of every span and log record.
const ServiceName = "lms-connector"

// OTelSDK installs the global tracer and logger providers for cfg.OTel.Exporter
// and shuts them down when the application stops.
//
// Once installed, slog records are sent to both stdout and the log exporter.
// With the "none" exporter only the propagators are installed.
func OTelSDK(lifecycle fx.Lifecycle, cfg config.Config) error {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.OTel.Exporter == config.OTelExporterNone {
		return nil
	}

	ctx := context.Background()

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
	))
	if err != nil {
		return fmt.Errorf("create otel resource: %w", err)
	}

	spanExporter, err := newSpanExporter(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("create span exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	logExporter, err := newLogExporter(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("create log exporter: %w", err)
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(loggerProvider)

	slog.SetDefault(slog.New(withLogExport(slog.Default().Handler(), loggerProvider)))

	slog.Info("opentelemetry enabled", "exporter", cfg.OTel.Exporter, "protocol", cfg.OTel.Protocol)

	lifecycle.Append(fx.StopHook(func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			loggerProvider.Shutdown(ctx),
		)
	}))

	return nil
}

// withLogExport sends every record to base and, through the otelslog bridge, to provider.
// Each handler applies its own level.
func withLogExport(base slog.Handler, provider otellog.LoggerProvider) slog.Handler {
	return slogmulti.Fanout(
		base,
		otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider)),
	)
}

// newSpanExporter creates the span exporter. The OTLP exporters read their
// endpoint and headers from the standard OTEL_EXPORTER_OTLP_* variables.
func newSpanExporter(ctx context.Context, cfg config.OTelConfig) (sdktrace.SpanExporter, error) {
	switch {
	case cfg.Exporter == config.OTelExporterStdout:
		return stdouttrace.New()
	case cfg.Protocol == config.OTLPProtocolGRPC:
		return otlptracegrpc.New(ctx)
	default:
		return otlptracehttp.New(ctx)
	}
}

func newLogExporter(ctx context.Context, cfg config.OTelConfig) (sdklog.Exporter, error) {
	switch {
	case cfg.Exporter == config.OTelExporterStdout:
		return stdoutlog.New()
	case cfg.Protocol == config.OTLPProtocolGRPC:
		return otlploggrpc.New(ctx)
	default:
		return otlploghttp.New(ctx)
	}
}
