package xmeta

import (
	"crypto/rand"
	"io"
	"sync"
)

// =============================================================================
// 生成器
// =============================================================================

// maxRedraw 随机 id 全零时的最大重抽次数。
// 正常熵源连续抽到全零的概率可以忽略，超过次数视为熵源故障。
const maxRedraw = 8

// Generator 随机元数据生成器，可安全并发使用。
//
// 默认使用 crypto/rand；通过 WithRandReader 注入的 reader 以互斥锁串行访问，
// 因此注入非并发安全的 reader（如测试用的确定性序列）也是安全的。
type Generator struct {
	taskLen int
	opLen   int

	mu   sync.Mutex
	rand io.Reader
}

// GeneratorOption 生成器配置选项。
type GeneratorOption func(*generatorOptions)

type generatorOptions struct {
	taskLen int
	opLen   int
	rand    io.Reader
}

// WithIDLengths 设置生成的 task id / op id 长度。
// 长度必须分别属于 {4, 8, 12, 16, 20} 和 {4, 8}，否则 NewGenerator 返回 ErrInvalidLength。
func WithIDLengths(taskLen, opLen int) GeneratorOption {
	return func(o *generatorOptions) {
		o.taskLen = taskLen
		o.opLen = opLen
	}
}

// WithRandReader 替换随机源。nil 保持默认的 crypto/rand。
func WithRandReader(r io.Reader) GeneratorOption {
	return func(o *generatorOptions) {
		if r != nil {
			o.rand = r
		}
	}
}

// NewGenerator 创建生成器。
func NewGenerator(opts ...GeneratorOption) (*Generator, error) {
	o := generatorOptions{
		taskLen: DefaultTaskIDLen,
		opLen:   DefaultOpIDLen,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if !validTaskIDLen(o.taskLen) || !validOpIDLen(o.opLen) {
		return nil, ErrInvalidLength
	}
	return &Generator{
		taskLen: o.taskLen,
		opLen:   o.opLen,
		rand:    o.rand,
	}, nil
}

// TaskIDLen 返回生成的 task id 长度。
func (g *Generator) TaskIDLen() int { return g.taskLen }

// OpIDLen 返回生成的 op id 长度。
func (g *Generator) OpIDLen() int { return g.opLen }

// GenerateOption 单次生成选项。
type GenerateOption func(*generateOptions)

type generateOptions struct {
	sampled    bool
	sampledSet bool
}

// WithSampled 控制生成结果的 sampled 位。未指定时 sampled 位为 0。
func WithSampled(on bool) GenerateOption {
	return func(o *generateOptions) {
		o.sampled = on
		o.sampledSet = true
	}
}

// Generate 生成版本号为 Version、id 随机且非全零的元数据。
//
// 结果恒满足 IsValid()。随机源读取失败时 panic。
func (g *Generator) Generate(opts ...GenerateOption) Metadata {
	o := applyGenerateOptions(opts)

	m := Metadata{
		version: Version,
		taskLen: uint8(g.taskLen),
		opLen:   uint8(g.opLen),
	}
	g.fill(m.taskID[:g.taskLen])
	g.fill(m.opID[:g.opLen])
	m.SetSampled(o.sampled)
	return m
}

// Derive 基于 parent 派生子元数据：保留版本号、task id 与 flags，重新抽取 op id。
//
// parent 无效时等价于 Generate。opts 中的 WithSampled 会覆盖继承的 sampled 位。
func (g *Generator) Derive(parent Metadata, opts ...GenerateOption) Metadata {
	if !parent.IsValid() {
		return g.Generate(opts...)
	}
	child := parent
	clear(child.opID[:])
	g.fill(child.opID[:child.opLen])
	if o := applyGenerateOptions(opts); o.sampledSet {
		child.SetSampled(o.sampled)
	}
	return child
}

func applyGenerateOptions(opts []GenerateOption) generateOptions {
	var o generateOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// fill 用随机字节填满 b，全零时重抽。
func (g *Generator) fill(b []byte) {
	for range maxRedraw {
		g.read(b)
		if !allZero(b) {
			return
		}
	}
	panic("xmeta: random source returned only zero bytes")
}

func (g *Generator) read(b []byte) {
	if g.rand == nil {
		// crypto/rand 失败表示系统熵源不可用，快速失败
		if _, err := rand.Read(b); err != nil {
			panic("xmeta: crypto/rand.Read failed: " + err.Error())
		}
		return
	}
	g.mu.Lock()
	_, err := io.ReadFull(g.rand, b)
	g.mu.Unlock()
	if err != nil {
		panic("xmeta: random source read failed: " + err.Error())
	}
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// =============================================================================
// 默认生成器
// =============================================================================

var defaultGenerator = &Generator{
	taskLen: DefaultTaskIDLen,
	opLen:   DefaultOpIDLen,
}

// Generate 使用默认生成器（20 字节 task id、8 字节 op id、crypto/rand）生成元数据。
func Generate(opts ...GenerateOption) Metadata {
	return defaultGenerator.Generate(opts...)
}

// Derive 使用默认生成器派生子元数据，见 Generator.Derive。
func Derive(parent Metadata, opts ...GenerateOption) Metadata {
	return defaultGenerator.Derive(parent, opts...)
}
