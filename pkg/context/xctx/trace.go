package xctx

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// =============================================================================
// 日志属性 Key 常量
// =============================================================================

const (
	KeyXTrace    = "x_trace"
	KeyTaskID    = "task_id"
	KeyOpID      = "op_id"
	KeySampled   = "sampled"
	KeyRequestID = "request_id"

	// traceFieldCount 追踪字段数量（用于 slog 属性预分配）
	traceFieldCount = 5
)

// =============================================================================
// TraceMetadata 操作
// =============================================================================

// WithTraceMetadata 将 X-Trace 元数据注入 context。
//
// 存入的是值的副本，之后修改 md 不会影响 context。
// 如果 ctx 为 nil，返回 ErrNilContext。
func WithTraceMetadata(ctx context.Context, md xmeta.Metadata) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyTraceMetadata, md), nil
}

// TraceMetadata 从 context 提取元数据，不存在返回 xmeta.Null。
func TraceMetadata(ctx context.Context) xmeta.Metadata {
	if ctx == nil {
		return xmeta.Null
	}
	if v, ok := ctx.Value(keyTraceMetadata).(xmeta.Metadata); ok {
		return v
	}
	return xmeta.Null
}

// RequireTraceMetadata 从 context 获取有效元数据。
//
// 缺失或无效时返回 ErrMissingTraceMetadata（包装 Validate 的原因）。
func RequireTraceMetadata(ctx context.Context) (xmeta.Metadata, error) {
	if ctx == nil {
		return xmeta.Null, ErrNilContext
	}
	md := TraceMetadata(ctx)
	if md.IsNull() {
		return xmeta.Null, ErrMissingTraceMetadata
	}
	if err := md.Validate(); err != nil {
		return xmeta.Null, errors.Join(ErrMissingTraceMetadata, err)
	}
	return md, nil
}

// EnsureTraceMetadata 确保 context 中存在有效元数据。
//
// 语义：已有有效值时原样返回；否则用 xmeta.Generate(opts...) 生成并注入。
// 适用于请求入口，使当前服务成为链路起点。
// 如果 ctx 为 nil，返回 ErrNilContext。
func EnsureTraceMetadata(ctx context.Context, opts ...xmeta.GenerateOption) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if TraceMetadata(ctx).IsValid() {
		return ctx, nil
	}
	return WithTraceMetadata(ctx, xmeta.Generate(opts...))
}

// Sampled 返回 context 中元数据的 sampled 位。没有有效元数据时 ok 为 false。
func Sampled(ctx context.Context) (sampled, ok bool) {
	md := TraceMetadata(ctx)
	if !md.IsValid() {
		return false, false
	}
	return md.IsSampled(), true
}

// =============================================================================
// Provider
// =============================================================================

// Provider 返回以 ctx 为后端的 xmeta.Provider。
//
// 每次 Current 调用都读取 ctx 中的最新快照；ctx 为 nil 或没有元数据时返回 xmeta.Null。
func Provider(ctx context.Context) xmeta.Provider {
	return xmeta.ProviderFunc(func() xmeta.Metadata {
		return TraceMetadata(ctx)
	})
}

// =============================================================================
// RequestID 操作
// =============================================================================

// WithRequestID 将 request ID 注入 context。
//
// 如果 ctx 为 nil，返回 ErrNilContext。
func WithRequestID(ctx context.Context, requestID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyRequestID, requestID), nil
}

// RequestID 从 context 提取 request ID，不存在返回空字符串。
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyRequestID).(string); ok {
		return v
	}
	return ""
}

// RequireRequestID 从 context 获取 request ID，不存在则返回 ErrMissingRequestID。
func RequireRequestID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	v := RequestID(ctx)
	if v == "" {
		return "", ErrMissingRequestID
	}
	return v, nil
}

// GenerateRequestID 生成 RequestID（UUID v4 字符串）。
//
// request id 属于业务层标识，与 X-Trace 元数据相互独立，
// 使用通用的 UUID 格式便于与网关、工单等外部系统对接。
func GenerateRequestID() string {
	return uuid.NewString()
}

// EnsureRequestID 确保 context 中存在 RequestID，有则沿用，无则生成。
func EnsureRequestID(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if RequestID(ctx) != "" {
		return ctx, nil
	}
	return WithRequestID(ctx, GenerateRequestID())
}

// =============================================================================
// Trace 结构体（批量模式）
// =============================================================================

// Trace 一次请求的追踪信息。
type Trace struct {
	Metadata  xmeta.Metadata
	RequestID string
}

// GetTrace 从 context 批量获取追踪信息，缺失字段为零值。
func GetTrace(ctx context.Context) Trace {
	return Trace{
		Metadata:  TraceMetadata(ctx),
		RequestID: RequestID(ctx),
	}
}

// IsComplete 元数据有效且 RequestID 非空时返回 true。
func (t Trace) IsComplete() bool {
	return t.Metadata.IsValid() && t.RequestID != ""
}

// WithTrace 将 Trace 中已设置的字段注入 context，Null 元数据和空 RequestID 被跳过，
// 因此父 context 中已有的字段不会被清空。
//
// 如果 ctx 为 nil，返回 ErrNilContext。
func WithTrace(ctx context.Context, tr Trace) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	var err error
	if !tr.Metadata.IsNull() {
		if ctx, err = WithTraceMetadata(ctx, tr.Metadata); err != nil {
			return nil, err
		}
	}
	if tr.RequestID != "" {
		if ctx, err = WithRequestID(ctx, tr.RequestID); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

// EnsureTrace 补全元数据和 RequestID，已存在的字段原样保留。
func EnsureTrace(ctx context.Context, opts ...xmeta.GenerateOption) (context.Context, error) {
	ctx, err := EnsureTraceMetadata(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return EnsureRequestID(ctx)
}
