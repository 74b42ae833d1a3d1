package xsampling

import (
	"context"
	"encoding/hex"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
)

// KeyFunc 从上下文中提取采样 key。
//
// 相同 key 在相同 rate 下总是得到相同的决策。返回空字符串时回退到随机采样。
type KeyFunc func(ctx context.Context) string

// TaskIDKey 以 context 中元数据的 task id（十六进制）作为采样 key。
//
// 同一 task id 在所有进程中得到相同的采样决策，
// 即使上游丢失了 sampled 位，下游重新决策的结果也保持一致。
// 没有有效元数据时返回空字符串。
func TaskIDKey(ctx context.Context) string {
	md := xctx.TraceMetadata(ctx)
	if !md.IsValid() {
		return ""
	}
	return hex.EncodeToString(md.TaskID())
}

// KeyBasedOption KeyBasedSampler 可选参数。
type KeyBasedOption func(*KeyBasedSampler)

// WithOnEmptyKey 设置空 key 回调，在回退随机采样前调用。
//
// 用于计数上下文传播断裂的次数。回调应当轻量，panic 会直接传播给调用方。
// nil 回调被忽略。
func WithOnEmptyKey(fn func()) KeyBasedOption {
	return func(s *KeyBasedSampler) {
		if fn != nil {
			s.onEmptyKey = fn
		}
	}
}

// KeyBasedSampler 基于 key 的一致性采样，哈希算法为 xxhash。
type KeyBasedSampler struct {
	rate       float64
	keyFunc    KeyFunc
	onEmptyKey func()
}

// NewKeyBasedSampler 创建一致性采样器。
//
// rate 非法返回 ErrInvalidRate，keyFunc 为 nil 返回 ErrNilKeyFunc，nil option 返回 ErrNilOption。
//
//	sampler, err := xsampling.NewKeyBasedSampler(0.1, xsampling.TaskIDKey)
func NewKeyBasedSampler(rate float64, keyFunc KeyFunc, opts ...KeyBasedOption) (*KeyBasedSampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	if keyFunc == nil {
		return nil, ErrNilKeyFunc
	}
	s := &KeyBasedSampler{
		rate:    rate,
		keyFunc: keyFunc,
	}
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		opt(s)
	}
	return s, nil
}

// NewTaskIDSampler 等同于 NewKeyBasedSampler(rate, TaskIDKey, opts...)。
func NewTaskIDSampler(rate float64, opts ...KeyBasedOption) (*KeyBasedSampler, error) {
	return NewKeyBasedSampler(rate, TaskIDKey, opts...)
}

func (s *KeyBasedSampler) ShouldSample(ctx context.Context) bool {
	if s.rate <= 0 {
		return false
	}
	if s.rate >= 1 {
		return true
	}

	var key string
	if ctx != nil {
		key = s.keyFunc(ctx)
	}
	if key == "" {
		if s.onEmptyKey != nil {
			s.onEmptyKey()
		}
		return randomFloat64() < s.rate
	}

	// hash == MaxUint64 时 normalized 可能为 1.0，rate < 1 下不会误判为采样
	normalized := float64(xxhash.Sum64String(key)) / float64(math.MaxUint64)
	return normalized < s.rate
}

// Rate 返回采样比率。
func (s *KeyBasedSampler) Rate() float64 { return s.rate }

var _ Sampler = (*KeyBasedSampler)(nil)
