package xsampling

import (
	"context"
	"slices"
)

// CompositeMode 组合模式。
type CompositeMode int

const (
	// ModeAND 所有子采样器通过才采样，空列表返回 true
	ModeAND CompositeMode = iota
	// ModeOR 任一子采样器通过即采样，空列表返回 false
	ModeOR
)

func (m CompositeMode) String() string {
	switch m {
	case ModeAND:
		return "AND"
	case ModeOR:
		return "OR"
	default:
		return "Unknown"
	}
}

// CompositeSampler 按 AND/OR 组合多个采样器，短路求值。
//
// 有状态的子采样器（如 CountSampler）只在被实际求值时推进状态，
// 因此排列顺序会影响它们的行为。
type CompositeSampler struct {
	samplers []Sampler
	mode     CompositeMode
}

// NewCompositeSampler 创建组合采样器。
// 非法 mode 返回 ErrInvalidMode，nil 子采样器返回 ErrNilSampler。
func NewCompositeSampler(mode CompositeMode, samplers ...Sampler) (*CompositeSampler, error) {
	if mode != ModeAND && mode != ModeOR {
		return nil, ErrInvalidMode
	}
	if slices.Contains(samplers, nil) {
		return nil, ErrNilSampler
	}
	return &CompositeSampler{
		samplers: slices.Clone(samplers),
		mode:     mode,
	}, nil
}

func (s *CompositeSampler) ShouldSample(ctx context.Context) bool {
	// AND 找第一个 false，OR 找第一个 true；都找不到时返回各自的恒等元
	stopOn := s.mode == ModeOR
	for _, sampler := range s.samplers {
		if sampler.ShouldSample(ctx) == stopOn {
			return stopOn
		}
	}
	return !stopOn
}

// Reset 重置所有可重置的子采样器。
func (s *CompositeSampler) Reset() {
	for _, sampler := range s.samplers {
		if r, ok := sampler.(ResettableSampler); ok {
			r.Reset()
		}
	}
}

// Mode 返回组合模式。
func (s *CompositeSampler) Mode() CompositeMode { return s.mode }

// Samplers 返回子采样器列表的副本。
func (s *CompositeSampler) Samplers() []Sampler { return slices.Clone(s.samplers) }

// All 等同于 NewCompositeSampler(ModeAND, samplers...)。
func All(samplers ...Sampler) (*CompositeSampler, error) {
	return NewCompositeSampler(ModeAND, samplers...)
}

// Any 等同于 NewCompositeSampler(ModeOR, samplers...)。
func Any(samplers ...Sampler) (*CompositeSampler, error) {
	return NewCompositeSampler(ModeOR, samplers...)
}

var _ ResettableSampler = (*CompositeSampler)(nil)
