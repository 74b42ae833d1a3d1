package xsampling

import (
	"context"
	"sync/atomic"
)

// =============================================================================
// 固定策略
// =============================================================================

type constSampler bool

func (s constSampler) ShouldSample(context.Context) bool { return bool(s) }

// Always 返回全采样策略，所有新生成的元数据都置 sampled 位。适用于调试环境。
func Always() Sampler { return constSampler(true) }

// Never 返回不采样策略。
func Never() Sampler { return constSampler(false) }

// =============================================================================
// 比率采样
// =============================================================================

// RateSampler 按固定比率随机采样，rate=0.1 表示约 10% 的链路被采样。
//
// 设计决策: 返回具体类型而非 Sampler 接口，便于通过 Rate() 自省。
type RateSampler struct {
	rate float64
}

// NewRateSampler 创建固定比率采样器。
//
// rate=0 等同 Never()，rate=1 等同 Always()。超出 [0, 1] 或为 NaN 时返回 ErrInvalidRate。
func NewRateSampler(rate float64) (*RateSampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	return &RateSampler{rate: rate}, nil
}

func (s *RateSampler) ShouldSample(context.Context) bool {
	switch {
	case s.rate <= 0:
		return false
	case s.rate >= 1:
		return true
	default:
		return randomFloat64() < s.rate
	}
}

// Rate 返回采样比率。
func (s *RateSampler) Rate() float64 { return s.rate }

// =============================================================================
// 计数采样
// =============================================================================

// CountSampler 每 n 条链路采样 1 条：第 1、n+1、2n+1... 条被采样。
//
// 计数器为 atomic.Uint64，自然溢出后无符号取模仍保持周期。
type CountSampler struct {
	n       int
	counter atomic.Uint64
}

// NewCountSampler 创建计数采样器。n < 1 时返回 ErrInvalidCount。
func NewCountSampler(n int) (*CountSampler, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}
	return &CountSampler{n: n}, nil
}

func (s *CountSampler) ShouldSample(context.Context) bool {
	if s.n <= 0 {
		// 未经构造的零值按全采样处理，避免除零
		return true
	}
	count := s.counter.Add(1)
	return (count-1)%uint64(s.n) == 0
}

// Reset 重置计数器。
func (s *CountSampler) Reset() { s.counter.Store(0) }

// N 返回采样间隔。
func (s *CountSampler) N() int { return s.n }

var (
	_ Sampler           = constSampler(false)
	_ Sampler           = (*RateSampler)(nil)
	_ ResettableSampler = (*CountSampler)(nil)
)
