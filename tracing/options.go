package tracing

import (
	"io"
	"time"
)

// Exporter 导出器类型
type Exporter string

const (
	// ExporterStdout 标准输出, 调试用
	ExporterStdout Exporter = "stdout"
	// ExporterZipkin Zipkin 收集器
	ExporterZipkin Exporter = "zipkin"
	// ExporterOTLPGRPC OTLP gRPC 收集器
	ExporterOTLPGRPC Exporter = "otlp-grpc"
	// ExporterOTLPHTTP OTLP HTTP 收集器
	ExporterOTLPHTTP Exporter = "otlp-http"
)

type options struct {
	// exporter 导出器类型
	exporter Exporter
	// endpoint 收集器地址, 为空用导出器默认值
	endpoint string
	// serviceName 上报的服务名
	serviceName string
	// serviceVersion 上报的服务版本
	serviceVersion string
	// sampleRatio 采样率
	sampleRatio float64
	// batchTimeout 批量导出间隔
	batchTimeout time.Duration
	// writer stdout 导出器的输出目标
	writer io.Writer
	// insecure 收集器连接不启用 TLS
	insecure bool
	// global 注册为全局 TracerProvider
	global bool
}

type Option func(*options)

func WithExporter(e Exporter) Option {
	return func(o *options) {
		o.exporter = e
	}
}

func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

func WithServiceName(name string) Option {
	return func(o *options) {
		o.serviceName = name
	}
}

func WithServiceVersion(version string) Option {
	return func(o *options) {
		o.serviceVersion = version
	}
}

func WithSampleRatio(ratio float64) Option {
	return func(o *options) {
		o.sampleRatio = ratio
	}
}

func WithBatchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.batchTimeout = d
	}
}

func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

func WithInsecure(insecure bool) Option {
	return func(o *options) {
		o.insecure = insecure
	}
}

func WithGlobal() Option {
	return func(o *options) {
		o.global = true
	}
}
