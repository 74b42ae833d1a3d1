package xtrace

import (
	"context"
	"net/http"
	"strings"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// HeaderRequestID 请求 ID 头，与 X-Trace 一同传播
const HeaderRequestID = "X-Request-ID"

// =============================================================================
// HTTP Header 提取与注入（默认头名称）
// =============================================================================

// ExtractFromHTTPHeader 解析 X-Trace 头。头缺失时返回 xmeta.ErrEmpty。
func ExtractFromHTTPHeader(h http.Header) (xmeta.Metadata, error) {
	if h == nil {
		return xmeta.Null, xmeta.ErrEmpty
	}
	return xmeta.Parse(strings.TrimSpace(h.Get(HeaderXTrace)))
}

// InjectToHeader 以连续形式写入 X-Trace 头。md 无效时不写入并返回 false。
func InjectToHeader(h http.Header, md xmeta.Metadata) bool {
	return injectHeader(h, HeaderXTrace, md)
}

// InjectToRequest 将 ctx 中的元数据与 request id 写入出站请求头。
func InjectToRequest(ctx context.Context, req *http.Request) {
	injectRequest(ctx, req, HeaderXTrace)
}

func injectHeader(h http.Header, name string, md xmeta.Metadata) bool {
	if h == nil || !md.IsValid() {
		return false
	}
	s, err := md.Format(false)
	if err != nil {
		return false
	}
	h.Set(name, s)
	return true
}

func injectRequest(ctx context.Context, req *http.Request, name string) {
	if req == nil {
		return
	}
	// 防止调用方构造 &http.Request{} 导致 nil Header panic
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	injectHeader(req.Header, name, xctx.TraceMetadata(ctx))
	if id := xctx.RequestID(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}
}

// =============================================================================
// HTTP 中间件与客户端
// =============================================================================

// HTTPMiddleware 返回服务端中间件。
//
// 从请求头提取元数据（见 Accept），注入 request context；
// 启用 ResponseHeader 时在调用 next 之前写入响应头，保证流式响应同样带有该头。
func (p *Propagator) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := strings.TrimSpace(r.Header.Get(HeaderRequestID)); id != "" {
				if scoped, err := xctx.WithRequestID(ctx, id); err == nil {
					ctx = scoped
				}
			}

			ctx, md, origin := p.Accept(ctx, r.Header.Get(p.opts.httpHeader))
			defer p.Finish(md, origin)

			if p.opts.responseHeader {
				injectHeader(w.Header(), p.opts.httpHeader, md)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectToRequest 使用本 Propagator 的头名称写入出站请求。
func (p *Propagator) InjectToRequest(ctx context.Context, req *http.Request) {
	injectRequest(ctx, req, p.opts.httpHeader)
}

// Transport 返回在每个出站请求上注入元数据的 RoundTripper，base 为 nil 时使用 http.DefaultTransport。
func (p *Propagator) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{p: p, base: base}
}

type transport struct {
	p    *Propagator
	base http.RoundTripper
}

// RoundTrip 按 RoundTripper 契约不修改原请求，在副本上注入。
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	t.p.InjectToRequest(req.Context(), out)
	return t.base.RoundTrip(out)
}
