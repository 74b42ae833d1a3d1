package xctx

import "errors"

// =============================================================================
// Context Key 类型定义
// =============================================================================

// 设计决策: contextKey 使用 string 而非 int+iota。包私有类型不会与其他包冲突，
// 字符串值在调试输出中可读。
type contextKey string

const (
	keyTraceMetadata = contextKey("xctx:trace_metadata")
	keyRequestID     = contextKey("xctx:request_id")
)

// =============================================================================
// 错误定义
// =============================================================================

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrMissingTraceMetadata context 中没有有效的 X-Trace 元数据
	ErrMissingTraceMetadata = errors.New("xctx: missing trace metadata")

	// ErrMissingRequestID request_id 缺失
	ErrMissingRequestID = errors.New("xctx: missing request_id")
)
