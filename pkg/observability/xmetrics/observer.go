package xmetrics

import (
	"context"
	"strconv"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// Kind 观测跨度类型。
type Kind int

const (
	KindInternal Kind = iota
	KindServer
	KindClient
	KindProducer
	KindConsumer
)

// String 返回 Kind 的可读名称。
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "Internal"
	case KindServer:
		return "Server"
	case KindClient:
		return "Client"
	case KindProducer:
		return "Producer"
	case KindConsumer:
		return "Consumer"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Status 观测结果状态。
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Attr 观测属性。
type Attr struct {
	Key   string
	Value any
}

// SpanOptions 观测跨度的创建参数。
type SpanOptions struct {
	Component string
	Operation string
	Kind      Kind
	Attrs     []Attr
}

// Result 观测跨度结束时的结果。Status 为空时根据 Err 推导。
type Result struct {
	Status Status
	Err    error
	Attrs  []Attr
}

// Span 一次观测跨度，同时是一个携带 X-Trace 元数据的事件（xmeta.Carrier）。
type Span interface {
	xmeta.Carrier

	// End 结束观测并记录结果，可重复调用，只有第一次生效。
	End(result Result)
}

// Observer 统一观测接口。
//
// Start 为本次操作派生子元数据（保留 task id 与 sampled 位），
// 写入返回的 ctx，并由返回的 Span 携带。
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 不记录任何内容，也不派生元数据。
type NoopObserver struct{}

// Start 返回 ctx 和一个携带 ctx 当前元数据的空跨度。nil ctx 被替换为 context.Background()。
func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{Metadata: xctx.TraceMetadata(ctx)}
}

// NoopSpan 空跨度。
type NoopSpan struct {
	Metadata xmeta.Metadata
}

func (NoopSpan) End(Result) {}

// TraceMetadata 返回创建时携带的元数据。
func (s NoopSpan) TraceMetadata() xmeta.Metadata { return s.Metadata }

// Start 使用 observer 开始观测。
//
// 保证返回非 nil 的 ctx 与 Span：nil ctx 替换为 context.Background()，
// nil observer 或自定义 Observer 返回 nil 时兜底为 NoopSpan。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return NoopObserver{}.Start(ctx, opts)
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{Metadata: xctx.TraceMetadata(retCtx)}
	}
	return retCtx, span
}
