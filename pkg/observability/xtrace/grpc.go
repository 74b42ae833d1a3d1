package xtrace

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// MetaRequestID 请求 ID metadata key
const MetaRequestID = "x-request-id"

// =============================================================================
// gRPC Metadata 提取与注入（默认 key）
// =============================================================================

// ExtractFromMetadata 解析 x-trace key 的第一个值。缺失时返回 xmeta.ErrEmpty。
func ExtractFromMetadata(md metadata.MD) (xmeta.Metadata, error) {
	return xmeta.Parse(firstValue(md, MetaXTrace))
}

// ExtractFromIncomingContext 从 incoming context 解析元数据。
func ExtractFromIncomingContext(ctx context.Context) (xmeta.Metadata, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	return ExtractFromMetadata(md)
}

// InjectToOutgoingContext 将 ctx 中的元数据与 request id 写入 outgoing metadata。
func InjectToOutgoingContext(ctx context.Context) context.Context {
	return injectOutgoing(ctx, MetaXTrace)
}

func firstValue(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func injectOutgoing(ctx context.Context, key string) context.Context {
	trace := xctx.TraceMetadata(ctx)
	requestID := xctx.RequestID(ctx)
	if !trace.IsValid() && requestID == "" {
		return ctx
	}

	// 复制现有 metadata，避免修改调用方持有的 MD
	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.New(nil)
	}

	// Set 覆盖而非追加，多次注入不会产生重复值
	if trace.IsValid() {
		md.Set(key, trace.String())
	}
	if requestID != "" {
		md.Set(MetaRequestID, requestID)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

// =============================================================================
// 服务端拦截器
// =============================================================================

// acceptIncoming 服务端公共逻辑：先采纳入站 request id，再处理 x-trace。
func (p *Propagator) acceptIncoming(ctx context.Context) (context.Context, xmeta.Metadata, Origin) {
	md, _ := metadata.FromIncomingContext(ctx)
	if id := firstValue(md, MetaRequestID); id != "" {
		if scoped, err := xctx.WithRequestID(ctx, id); err == nil {
			ctx = scoped
		}
	}
	return p.Accept(ctx, firstValue(md, p.opts.grpcKey))
}

// UnaryServerInterceptor 返回一元服务端拦截器，规则同 Accept。
func (p *Propagator) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, md, origin := p.acceptIncoming(ctx)
		defer p.Finish(md, origin)
		return handler(ctx, req)
	}
}

// StreamServerInterceptor 返回流式服务端拦截器。
func (p *Propagator) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, md, origin := p.acceptIncoming(ss.Context())
		defer p.Finish(md, origin)
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

// wrappedServerStream 覆盖 Context
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

// =============================================================================
// 客户端拦截器
// =============================================================================

// InjectToOutgoingContext 使用本 Propagator 的 key 写入 outgoing metadata。
func (p *Propagator) InjectToOutgoingContext(ctx context.Context) context.Context {
	return injectOutgoing(ctx, p.opts.grpcKey)
}

// UnaryClientInterceptor 返回一元客户端拦截器。
func (p *Propagator) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		return invoker(p.InjectToOutgoingContext(ctx), method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor 返回流式客户端拦截器。
func (p *Propagator) StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		return streamer(p.InjectToOutgoingContext(ctx), desc, cc, method, opts...)
	}
}
