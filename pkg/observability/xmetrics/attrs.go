package xmetrics

import (
	"time"

	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// 元数据相关属性 key
const (
	AttrXTrace  = "x_trace"
	AttrSampled = "x_trace.sampled"
	AttrOrigin  = "x_trace.origin"
)

func String(key, value string) Attr { return Attr{Key: key, Value: value} }

func Bool(key string, value bool) Attr { return Attr{Key: key, Value: value} }

func Int(key string, value int) Attr { return Attr{Key: key, Value: value} }

func Int64(key string, value int64) Attr { return Attr{Key: key, Value: value} }

func Float64(key string, value float64) Attr { return Attr{Key: key, Value: value} }

// Duration 以纳秒整数记录，建议 key 带单位，例如 "duration_ns"。
func Duration(key string, value time.Duration) Attr { return Attr{Key: key, Value: value} }

func Any(key string, value any) Attr { return Attr{Key: key, Value: value} }

// XTrace 元数据连续形式属性；md 无效时返回 Value 为 nil 的属性（被忽略）。
func XTrace(md xmeta.Metadata) Attr {
	if !md.IsValid() {
		return Attr{Key: AttrXTrace}
	}
	return Attr{Key: AttrXTrace, Value: md.String()}
}
