package xtrace

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xlog"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
	"github.com/omeyang/xtracemeta/pkg/observability/xsampling"
)

// Origin 本次请求元数据的来源。
type Origin uint8

const (
	// OriginNone 入站没有可用值且未生成
	OriginNone Origin = iota
	// OriginInbound 沿用入站值（未派生）
	OriginInbound
	// OriginDerived 从入站值派生出新的 op id
	OriginDerived
	// OriginGenerated 入站缺失或无效，本服务新生成
	OriginGenerated
)

// String 返回来源名称，用于日志与指标标签。
func (o Origin) String() string {
	switch o {
	case OriginInbound:
		return "inbound"
	case OriginDerived:
		return "derived"
	case OriginGenerated:
		return "generated"
	default:
		return "none"
	}
}

// Propagator 负责 X-Trace 元数据在 HTTP/gRPC 边界上的提取与注入。
//
// 核心编解码在 xmeta 中且从不记录日志；入站值被拒绝时由 Propagator 以 Warn 级别记录。
// 可安全并发使用。持有后台缓存清理 goroutine，不再使用时调用 Close。
type Propagator struct {
	opts  options
	cache *parseCache
}

// New 创建 Propagator，nil 选项被忽略。
func New(opts ...Option) *Propagator {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Propagator{
		opts:  o,
		cache: newParseCache(o.cacheSize, o.cacheTTL),
	}
}

// Close 清空解析缓存并停止其清理 goroutine，可重复调用。Close 之后 Propagator 仍可用。
func (p *Propagator) Close() {
	p.cache.close()
}

// HTTPHeader 返回使用的 HTTP 头名称。
func (p *Propagator) HTTPHeader() string { return p.opts.httpHeader }

// GRPCKey 返回使用的 gRPC metadata key。
func (p *Propagator) GRPCKey() string { return p.opts.grpcKey }

// Diagnostics 返回生命周期计数器，可能为 nil。
func (p *Propagator) Diagnostics() *xmeta.Diagnostics { return p.opts.diagnostics }

// Parse 解析一个入站值，经过解析缓存。前后空白被忽略。
func (p *Propagator) Parse(raw string) (xmeta.Metadata, error) {
	return p.cache.parse(strings.TrimSpace(raw))
}

// Accept 处理一个入站值并把结果注入 ctx，同时确保 ctx 中有 request id。
//
// 规则：
//   - 有效：按 WithDerive 决定沿用或派生子 op id，sampled 位保持上游决策
//   - 无效：记录 Warn 日志后按缺失处理
//   - 缺失：AutoGenerate 时生成新的元数据并交给采样器决策
//
// 返回值中的 Origin 为 OriginNone 时 ctx 中没有元数据。
// 调用方负责在请求结束时调用 Finish。
func (p *Propagator) Accept(ctx context.Context, raw string) (context.Context, xmeta.Metadata, Origin) {
	if ctx == nil {
		ctx = context.Background()
	}
	md, origin := p.resolve(ctx, strings.TrimSpace(raw))

	if origin != OriginNone {
		var err error
		if ctx, err = xctx.WithTraceMetadata(ctx, p.opts.diagnostics.Track(md)); err != nil {
			p.warn(ctx, "xtrace: failed to inject metadata", xlog.Err(err))
		}
	}
	if scoped, err := xctx.EnsureRequestID(ctx); err == nil {
		ctx = scoped
	}
	return ctx, md, origin
}

// Finish 登记 Accept 得到的元数据已不再使用。
func (p *Propagator) Finish(md xmeta.Metadata, origin Origin) {
	if origin != OriginNone {
		p.opts.diagnostics.Release(md)
	}
}

func (p *Propagator) resolve(ctx context.Context, raw string) (xmeta.Metadata, Origin) {
	if raw != "" {
		parent, err := p.cache.parse(raw)
		if err == nil {
			if !p.opts.derive {
				return parent, OriginInbound
			}
			return p.derive(parent), OriginDerived
		}
		p.warn(ctx, "xtrace: invalid x-trace value, discarding",
			slog.String("value", truncate(raw)), xlog.Err(err))
	}
	if !p.opts.autoGenerate {
		return xmeta.Null, OriginNone
	}
	return xsampling.Decide(ctx, p.opts.sampler, p.generate()), OriginGenerated
}

func (p *Propagator) generate() xmeta.Metadata {
	if p.opts.generator != nil {
		return p.opts.generator.Generate()
	}
	return xmeta.Generate()
}

func (p *Propagator) derive(parent xmeta.Metadata) xmeta.Metadata {
	if p.opts.generator != nil {
		return p.opts.generator.Derive(parent)
	}
	return xmeta.Derive(parent)
}

// Outbound 返回 ctx 中元数据的出站连续形式；没有有效元数据时返回空字符串。
func Outbound(ctx context.Context) string {
	md := xctx.TraceMetadata(ctx)
	if !md.IsValid() {
		return ""
	}
	return md.String()
}

func (p *Propagator) warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if p.opts.logger != nil {
		p.opts.logger.Warn(ctx, msg, attrs...)
		return
	}
	xlog.Warn(ctx, msg, attrs...)
}

// maxLoggedValue 日志中记录的入站值上限，防止恶意超长头刷爆日志
const maxLoggedValue = 128

// truncate 截断到 maxLoggedValue 字节以内，截断点落在 rune 边界上。
func truncate(s string) string {
	if len(s) <= maxLoggedValue {
		return s
	}
	cut := maxLoggedValue
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
