package xtrace

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/omeyang/xtracemeta/pkg/observability/xlog"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
	"github.com/omeyang/xtracemeta/pkg/observability/xsampling"
)

// 传输层字段名
const (
	// HeaderXTrace HTTP 请求/响应头
	HeaderXTrace = "X-Trace"

	// MetaXTrace gRPC metadata key（gRPC 要求小写）
	MetaXTrace = "x-trace"
)

// 默认解析缓存参数
const (
	DefaultCacheSize = 4096
	DefaultCacheTTL  = 5 * time.Minute
)

// ErrInvalidConfig 配置值非法
var ErrInvalidConfig = errors.New("xtrace: invalid config")

// =============================================================================
// Config（可由 xconf 加载）
// =============================================================================

// Config 传播层配置，字段 tag 与 xconf 的 koanf 解码约定一致。
type Config struct {
	// HTTPHeader 入站/出站 HTTP 头名称，空表示 HeaderXTrace
	HTTPHeader string `koanf:"http_header" json:"http_header" yaml:"http_header"`

	// GRPCKey gRPC metadata key，空表示 MetaXTrace
	GRPCKey string `koanf:"grpc_key" json:"grpc_key" yaml:"grpc_key"`

	// AutoGenerate 入站缺失或无效时是否生成新的元数据
	AutoGenerate bool `koanf:"auto_generate" json:"auto_generate" yaml:"auto_generate"`

	// Derive 入站有效时是否为本服务派生新的 op id
	Derive bool `koanf:"derive" json:"derive" yaml:"derive"`

	// ResponseHeader 是否在 HTTP 响应中回写 X-Trace
	ResponseHeader bool `koanf:"response_header" json:"response_header" yaml:"response_header"`

	// SampleRate 新生成元数据的采样率 [0, 1]
	SampleRate float64 `koanf:"sample_rate" json:"sample_rate" yaml:"sample_rate"`

	// KeyBased 为 true 时按 task id 哈希采样，同一 task 在各进程决策一致
	KeyBased bool `koanf:"key_based" json:"key_based" yaml:"key_based"`

	// CacheSize 入站解析缓存条目数，0 表示关闭缓存
	CacheSize int `koanf:"cache_size" json:"cache_size" yaml:"cache_size"`

	// CacheTTL 缓存条目过期时间
	CacheTTL time.Duration `koanf:"cache_ttl" json:"cache_ttl" yaml:"cache_ttl"`
}

// DefaultConfig 返回默认配置：自动生成、派生子 op id、回写响应头、全采样。
func DefaultConfig() Config {
	return Config{
		HTTPHeader:     HeaderXTrace,
		GRPCKey:        MetaXTrace,
		AutoGenerate:   true,
		Derive:         true,
		ResponseHeader: true,
		SampleRate:     1,
		CacheSize:      DefaultCacheSize,
		CacheTTL:       DefaultCacheTTL,
	}
}

// Validate 校验配置。
func (c Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("%w: sample_rate %v out of [0, 1]", ErrInvalidConfig, c.SampleRate)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size %d", ErrInvalidConfig, c.CacheSize)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache_ttl %v", ErrInvalidConfig, c.CacheTTL)
	}
	if strings.ContainsAny(c.HTTPHeader, " :\t\r\n") {
		return fmt.Errorf("%w: http_header %q", ErrInvalidConfig, c.HTTPHeader)
	}
	if c.GRPCKey != strings.ToLower(c.GRPCKey) {
		return fmt.Errorf("%w: grpc_key %q must be lowercase", ErrInvalidConfig, c.GRPCKey)
	}
	return nil
}

// Sampler 按配置构建采样器。SampleRate 为 1 且非 KeyBased 时返回 xsampling.Always。
func (c Config) Sampler() (xsampling.Sampler, error) {
	switch {
	case c.KeyBased:
		return xsampling.NewTaskIDSampler(c.SampleRate)
	case c.SampleRate >= 1:
		return xsampling.Always(), nil
	case c.SampleRate <= 0:
		return xsampling.Never(), nil
	default:
		return xsampling.NewRateSampler(c.SampleRate)
	}
}

// NewFromConfig 按配置创建 Propagator，opts 在配置之后应用。
func NewFromConfig(cfg Config, opts ...Option) (*Propagator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sampler, err := cfg.Sampler()
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithHTTPHeader(cfg.HTTPHeader),
		WithGRPCKey(cfg.GRPCKey),
		WithAutoGenerate(cfg.AutoGenerate),
		WithDerive(cfg.Derive),
		WithResponseHeader(cfg.ResponseHeader),
		WithSampler(sampler),
		WithParseCache(cfg.CacheSize, cfg.CacheTTL),
	}
	return New(append(base, opts...)...), nil
}

// =============================================================================
// 选项（HTTP 和 gRPC 共用）
// =============================================================================

// Option Propagator 选项。
type Option func(*options)

type options struct {
	httpHeader     string
	grpcKey        string
	autoGenerate   bool
	derive         bool
	responseHeader bool
	sampler        xsampling.Sampler
	generator      *xmeta.Generator
	diagnostics    *xmeta.Diagnostics
	logger         xlog.Logger
	cacheSize      int
	cacheTTL       time.Duration
}

func defaultOptions() options {
	cfg := DefaultConfig()
	return options{
		httpHeader:     cfg.HTTPHeader,
		grpcKey:        cfg.GRPCKey,
		autoGenerate:   cfg.AutoGenerate,
		derive:         cfg.Derive,
		responseHeader: cfg.ResponseHeader,
		sampler:        xsampling.Always(),
		diagnostics:    xmeta.DefaultDiagnostics(),
		cacheSize:      cfg.CacheSize,
		cacheTTL:       cfg.CacheTTL,
	}
}

// WithHTTPHeader 设置 HTTP 头名称，空字符串被忽略。
func WithHTTPHeader(name string) Option {
	return func(o *options) {
		if name != "" {
			o.httpHeader = http.CanonicalHeaderKey(name)
		}
	}
}

// WithGRPCKey 设置 gRPC metadata key，空字符串被忽略。
func WithGRPCKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.grpcKey = strings.ToLower(key)
		}
	}
}

// WithAutoGenerate 设置入站缺失或无效时是否生成新的元数据。
//
// 默认为 true。设置为 false 时，缺失的元数据保持缺失，无效值直接丢弃。
func WithAutoGenerate(enabled bool) Option {
	return func(o *options) { o.autoGenerate = enabled }
}

// WithDerive 设置入站有效时是否派生新的 op id（保留 task id 与 flags）。默认为 true。
func WithDerive(enabled bool) Option {
	return func(o *options) { o.derive = enabled }
}

// WithResponseHeader 设置 HTTP 中间件是否回写响应头。默认为 true。
func WithResponseHeader(enabled bool) Option {
	return func(o *options) { o.responseHeader = enabled }
}

// WithSampler 设置新生成元数据的采样器，nil 被忽略。
//
// 入站带来的 sampled 位总是被保留，采样器只对本服务生成的元数据生效。
func WithSampler(s xsampling.Sampler) Option {
	return func(o *options) {
		if s != nil {
			o.sampler = s
		}
	}
}

// WithGenerator 设置元数据生成器，nil 表示包级默认生成器。
func WithGenerator(g *xmeta.Generator) Option {
	return func(o *options) { o.generator = g }
}

// WithDiagnostics 设置生命周期计数器，nil 表示不计数。默认为 xmeta.DefaultDiagnostics()。
func WithDiagnostics(d *xmeta.Diagnostics) Option {
	return func(o *options) { o.diagnostics = d }
}

// WithLogger 设置告警日志输出，nil 表示 xlog 全局 Logger。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithParseCache 设置入站解析缓存，size 为 0 关闭缓存。
func WithParseCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}
