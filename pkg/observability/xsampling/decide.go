package xsampling

import (
	"context"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// Decide 对新生成的元数据做采样决策，返回设置好 sampled 位的副本。
//
// 决策时 md 会先注入 ctx，使 KeyBasedSampler 可以读取 task id。
// s 为 nil 时 md 原样返回。
func Decide(ctx context.Context, s Sampler, md xmeta.Metadata) xmeta.Metadata {
	if s == nil {
		return md
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if scoped, err := xctx.WithTraceMetadata(ctx, md); err == nil {
		ctx = scoped
	}
	md.SetSampled(s.ShouldSample(ctx))
	return md
}
