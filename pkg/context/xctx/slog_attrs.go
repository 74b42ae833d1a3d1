package xctx

import (
	"context"
	"encoding/hex"
	"log/slog"

	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// AppendTraceAttrs 将 context 中的追踪信息追加到现有切片。
// 只追加已设置的字段；元数据无效时不输出 x_trace 相关字段。
func AppendTraceAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}

	if md := TraceMetadata(ctx); md.IsValid() {
		var buf [xmeta.MaxPackLen]byte
		if n, err := md.FormatTo(buf[:], false); err == nil {
			attrs = append(attrs, slog.String(KeyXTrace, string(buf[:n])))
		}
		attrs = append(attrs,
			slog.String(KeyTaskID, hex.EncodeToString(md.TaskID())),
			slog.String(KeyOpID, hex.EncodeToString(md.OpID())),
			slog.Bool(KeySampled, md.IsSampled()),
		)
	}
	if v := RequestID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyRequestID, v))
	}
	return attrs
}

// TraceAttrs 从 context 提取追踪信息，转换为 slog.Attr 切片。
//
// 没有任何字段时返回 nil。每次调用会分配新切片，热路径建议使用 AppendTraceAttrs。
func TraceAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs := AppendTraceAttrs(make([]slog.Attr, 0, traceFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
