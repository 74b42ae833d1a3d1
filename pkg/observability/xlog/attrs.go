package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// 常用属性 Key
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyDuration  = "duration"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyMethod    = "method"
	KeyPath      = "path"

	// KeyRequestID 引用 xctx 保证跨包一致
	KeyRequestID = xctx.KeyRequestID

	// KeyXTrace 元数据连续形式
	KeyXTrace = xctx.KeyXTrace
)

// Err 创建错误属性，err 为 nil 时返回空属性（被 slog 忽略）。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 创建组件名属性。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性。
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Method 创建 HTTP/RPC 方法属性。
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Path 创建请求路径属性。
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// XTrace 以连续形式记录一条元数据；无法编码时记录为空字符串。
//
// 用于记录不在 ctx 中的元数据，例如被拒绝的入站值解析出的结果。
func XTrace(md xmeta.Metadata) slog.Attr {
	return slog.String(KeyXTrace, md.String())
}
