package xsampling

import "errors"

var (
	// ErrInvalidRate 采样比率不在 [0.0, 1.0] 范围内或为 NaN
	ErrInvalidRate = errors.New("xsampling: rate must be in [0.0, 1.0]")

	// ErrNilKeyFunc KeyBasedSampler 的 keyFunc 为 nil
	ErrNilKeyFunc = errors.New("xsampling: keyFunc must not be nil")

	// ErrNilOption 传入了 nil 选项
	ErrNilOption = errors.New("xsampling: option must not be nil")

	// ErrInvalidCount CountSampler 的采样间隔必须 >= 1
	ErrInvalidCount = errors.New("xsampling: count n must be >= 1")

	// ErrInvalidMode CompositeSampler 的组合模式不是 ModeAND / ModeOR
	ErrInvalidMode = errors.New("xsampling: invalid CompositeMode, must be ModeAND or ModeOR")

	// ErrNilSampler 子采样器为 nil
	ErrNilSampler = errors.New("xsampling: sampler must not be nil")
)
