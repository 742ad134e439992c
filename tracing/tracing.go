// Description: OpenTelemetry 链路追踪引导, 构建 TracerProvider 并按配置选择导出器
package tracing

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// NewProvider 构建 TracerProvider, WithGlobal 时同时注册为全局并安装 W3C 传播器
func NewProvider(ctx context.Context, opts ...Option) (*sdktrace.TracerProvider, error) {
	o := &options{
		exporter:       ExporterStdout,
		serviceName:    "statesync",
		serviceVersion: "dev",
		sampleRatio:    1.0,
		batchTimeout:   5 * time.Second,
		writer:         os.Stdout,
		insecure:       true,
	}
	for _, opt := range opts {
		opt(o)
	}

	exp, err := newExporter(ctx, o)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(o.serviceName),
		semconv.ServiceVersion(o.serviceVersion),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(o.batchTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.sampleRatio))),
	)
	if o.global {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	return tp, nil
}

func newExporter(ctx context.Context, o *options) (sdktrace.SpanExporter, error) {
	switch o.exporter {
	case ExporterStdout:
		return stdouttrace.New(
			stdouttrace.WithWriter(o.writer),
			stdouttrace.WithPrettyPrint(),
		)
	case ExporterZipkin:
		return zipkin.New(o.endpoint)
	case ExporterOTLPGRPC:
		var grpcOpts []otlptracegrpc.Option
		if o.endpoint != "" {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpoint(o.endpoint))
		}
		if o.insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(grpcOpts...))
	case ExporterOTLPHTTP:
		var httpOpts []otlptracehttp.Option
		if o.endpoint != "" {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(o.endpoint))
		}
		if o.insecure {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		return otlptrace.New(ctx, otlptracehttp.NewClient(httpOpts...))
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", o.exporter)
	}
}

// Shutdown 刷新缓冲中的 span 并关闭 TracerProvider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	if err := tp.ForceFlush(ctx); err != nil {
		return fmt.Errorf("flush spans: %w", err)
	}
	return tp.Shutdown(ctx)
}
