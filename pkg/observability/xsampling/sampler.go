package xsampling

import "context"

//go:generate mockgen -source=sampler.go -destination=mock_sampler.go -package=xsampling

// Sampler 采样策略接口。
//
// 在入口处为新生成的 X-Trace 元数据决定 sampled 位。
// 返回 true 表示置位（采样），false 表示清除。
type Sampler interface {
	// ShouldSample 判断是否应该采样。
	//
	// ctx 中通常已经注入了待决策的元数据，KeyBasedSampler 可以据此做一致性采样。
	// ctx 不得为 nil；如需占位请使用 context.TODO()。
	ShouldSample(ctx context.Context) bool
}

// ResettableSampler 可重置到初始状态的有状态采样器，如 CountSampler。
type ResettableSampler interface {
	Sampler
	Reset()
}
