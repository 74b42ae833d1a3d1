package xmetrics

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xtracemeta/xmetrics"
	unknownComponent           = "unknown"
	unknownOperation           = "unknown"

	metricOperationTotal    = "xtracemeta.operation.total"
	metricOperationDuration = "xtracemeta.operation.duration"
)

type otelConfig struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
	generator           *xmeta.Generator
	diagnostics         *xmeta.Diagnostics
}

// Option OTel Observer 配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 instrumentation 名称，空字符串被忽略。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider，nil 被忽略。
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider，nil 被忽略。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// WithGenerator 设置派生子元数据使用的生成器，nil 表示包级默认生成器。
func WithGenerator(g *xmeta.Generator) Option {
	return func(cfg *otelConfig) { cfg.generator = g }
}

// WithDiagnostics 设置跨度存活期间登记元数据的计数器，nil（默认）表示不登记。
func WithDiagnostics(d *xmeta.Diagnostics) Option {
	return func(cfg *otelConfig) { cfg.diagnostics = d }
}

// NewOTelObserver 创建基于 OpenTelemetry 的 Observer。
//
// 返回具体类型，它同时实现 Observer 与 xmeta.EventCreator。
func NewOTelObserver(opts ...Option) (*OTelObserver, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)
	total, err := meter.Int64Counter(
		metricOperationTotal,
		metric.WithDescription("total operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricOperationTotal, err)
	}
	duration, err := meter.Float64Histogram(
		metricOperationDuration,
		metric.WithDescription("operation duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricOperationDuration, err)
	}

	return &OTelObserver{
		tracer:      cfg.tracerProvider.Tracer(cfg.instrumentationName),
		total:       total,
		duration:    duration,
		generator:   cfg.generator,
		diagnostics: cfg.diagnostics,
	}, nil
}

// OTelObserver 基于 OpenTelemetry 的 Observer。
type OTelObserver struct {
	tracer      trace.Tracer
	total       metric.Int64Counter
	duration    metric.Float64Histogram
	generator   *xmeta.Generator
	diagnostics *xmeta.Diagnostics
}

var (
	_ Observer           = (*OTelObserver)(nil)
	_ xmeta.EventCreator = (*OTelObserver)(nil)
)

// Start 开始一次观测跨度。
//
// ctx 中有有效元数据时派生子元数据，否则生成新的（未采样）。
// ctx 中没有 OTel 父跨度时，以元数据构造远程父跨度，使 OTel 链路与 X-Trace 链路对齐。
func (o *OTelObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	md := o.derive(xctx.TraceMetadata(ctx))
	ctx = ensureParentSpan(ctx)
	if scoped, err := xctx.WithTraceMetadata(ctx, md); err == nil {
		ctx = scoped
	}

	component := opts.Component
	if component == "" {
		component = unknownComponent
	}
	operation := opts.Operation
	if operation == "" {
		operation = unknownOperation
	}

	attrs := make([]attribute.KeyValue, 0, 4+len(opts.Attrs))
	attrs = append(attrs,
		attribute.String("component", component),
		attribute.String("operation", operation),
		attribute.String(AttrXTrace, md.String()),
		attribute.Bool(AttrSampled, md.IsSampled()),
	)
	attrs = append(attrs, attrsToOTel(opts.Attrs)...)

	ctx, span := o.tracer.Start(ctx, operation,
		trace.WithSpanKind(mapSpanKind(opts.Kind)),
		trace.WithAttributes(attrs...),
	)

	return ctx, &otelSpan{
		span:      span,
		observer:  o,
		ctx:       ctx,
		md:        o.diagnostics.Track(md),
		component: component,
		operation: operation,
		start:     time.Now(),
	}
}

// CreateEvent 以 md 为父记录一个瞬时事件（立即结束的跨度），返回携带子元数据的事件。
//
// 实现 xmeta.EventCreator；通常经由 xmeta.CreateEvent 调用，后者保证 md 有效。
func (o *OTelObserver) CreateEvent(md xmeta.Metadata) xmeta.Carrier {
	ctx, err := xctx.WithTraceMetadata(context.Background(), md)
	if err != nil {
		ctx = context.Background()
	}
	_, span := o.Start(ctx, SpanOptions{Component: "xmeta", Operation: "event"})
	span.End(Result{})
	return span
}

func (o *OTelObserver) derive(parent xmeta.Metadata) xmeta.Metadata {
	if o.generator != nil {
		return o.generator.Derive(parent)
	}
	return xmeta.Derive(parent)
}

type otelSpan struct {
	span      trace.Span
	observer  *OTelObserver
	ctx       context.Context
	md        xmeta.Metadata
	component string
	operation string
	start     time.Time
	endOnce   sync.Once
}

// TraceMetadata 返回本跨度的元数据。
func (s *otelSpan) TraceMetadata() xmeta.Metadata {
	if s == nil {
		return xmeta.Null
	}
	return s.md
}

// End 结束观测并记录结果。幂等，避免 defer 与显式调用同时触发导致指标膨胀。
func (s *otelSpan) End(result Result) {
	if s == nil {
		return
	}
	s.endOnce.Do(func() {
		status := resolveStatus(result)
		switch {
		case status == StatusError && result.Err != nil:
			s.span.RecordError(result.Err)
			s.span.SetStatus(codes.Error, result.Err.Error())
		case status == StatusError:
			s.span.SetStatus(codes.Error, "operation failed")
		default:
			// Status 显式为非 error 时仍记录 Err，但不影响状态
			if result.Err != nil {
				s.span.RecordError(result.Err)
			}
			s.span.SetStatus(codes.Ok, "")
		}
		if len(result.Attrs) > 0 {
			s.span.SetAttributes(attrsToOTel(result.Attrs)...)
		}
		s.span.End()
		s.observer.diagnostics.Release(s.md)

		// 请求 ctx 已取消时指标仍需记录
		metricsCtx := context.WithoutCancel(s.ctx)
		attrs := metric.WithAttributes(metricAttrs(s.component, s.operation, status, s.md.IsSampled())...)
		s.observer.total.Add(metricsCtx, 1, attrs)
		s.observer.duration.Record(metricsCtx, time.Since(s.start).Seconds(), attrs)
	})
}

func resolveStatus(result Result) Status {
	if result.Status != "" {
		return result.Status
	}
	if result.Err != nil {
		return StatusError
	}
	return StatusOK
}

func mapSpanKind(kind Kind) trace.SpanKind {
	switch kind {
	case KindServer:
		return trace.SpanKindServer
	case KindClient:
		return trace.SpanKindClient
	case KindProducer:
		return trace.SpanKindProducer
	case KindConsumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}

func metricAttrs(component, operation string, status Status, sampled bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("component", component),
		attribute.String("operation", operation),
		attribute.String("status", string(status)),
		attribute.Bool(AttrSampled, sampled),
	}
}

func attrsToOTel(attrs []Attr) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	converted := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" || attr.Value == nil {
			continue
		}
		converted = append(converted, toKeyValue(attr))
	}
	return converted
}

func toKeyValue(attr Attr) attribute.KeyValue {
	switch v := attr.Value.(type) {
	case string:
		return attribute.String(attr.Key, v)
	case bool:
		return attribute.Bool(attr.Key, v)
	case int:
		return attribute.Int(attr.Key, v)
	case int64:
		return attribute.Int64(attr.Key, v)
	case uint64:
		if v <= math.MaxInt64 {
			return attribute.Int64(attr.Key, int64(v))
		}
		return attribute.String(attr.Key, fmt.Sprint(v))
	case float64:
		return attribute.Float64(attr.Key, v)
	case time.Duration:
		return attribute.Int64(attr.Key, v.Nanoseconds())
	case xmeta.Metadata:
		return attribute.String(attr.Key, v.String())
	default:
		return attribute.String(attr.Key, fmt.Sprint(v))
	}
}

// ensureParentSpan ctx 中没有有效 OTel 跨度时，用 X-Trace 元数据构造远程父跨度。
//
// 映射：task id 前 16 字节为 trace id，8 字节 op id 为 span id，sampled 位为 trace flags。
// task id 不足 16 字节或 op id 不是 8 字节时不构造。
func ensureParentSpan(ctx context.Context) context.Context {
	if trace.SpanContextFromContext(ctx).IsValid() {
		return ctx
	}
	sc, ok := SpanContextOf(xctx.TraceMetadata(ctx))
	if !ok {
		return ctx
	}
	return trace.ContextWithRemoteSpanContext(ctx, sc)
}

// SpanContextOf 把元数据映射为 OTel SpanContext，规则见 ensureParentSpan。
func SpanContextOf(md xmeta.Metadata) (trace.SpanContext, bool) {
	if !md.IsValid() || len(md.TaskID()) < len(trace.TraceID{}) || len(md.OpID()) != len(trace.SpanID{}) {
		return trace.SpanContext{}, false
	}
	var traceID trace.TraceID
	var spanID trace.SpanID
	copy(traceID[:], md.TaskID())
	copy(spanID[:], md.OpID())

	var flags trace.TraceFlags
	if md.IsSampled() {
		flags = trace.FlagsSampled
	}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	})
	return sc, sc.IsValid()
}
