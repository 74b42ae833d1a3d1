package xtrace

import (
	"reflect"
	"sync"
	"time"
	"unsafe"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// parsed 一次入站解析的结果，失败结果同样缓存，避免重复解析同一个坏值。
type parsed struct {
	md  xmeta.Metadata
	err error
}

// parseCache 入站字符串到解析结果的 TTL LRU 缓存。
//
// 同一请求链路上的下游服务会反复收到相同的 X-Trace 值（批量扇出、重试），
// 缓存命中时省去十六进制解码。nil 接收者表示不缓存。
type parseCache struct {
	lru       *expirable.LRU[string, parsed]
	closeOnce sync.Once
}

func newParseCache(size int, ttl time.Duration) *parseCache {
	if size <= 0 {
		return nil
	}
	return &parseCache{lru: expirable.NewLRU[string, parsed](size, nil, ttl)}
}

// parse 查缓存，未命中时调用 xmeta.Parse 并写回。超长输入不进入缓存。
func (c *parseCache) parse(s string) (xmeta.Metadata, error) {
	if c == nil || len(s) > xmeta.MaxPackLen {
		return xmeta.Parse(s)
	}
	if r, ok := c.lru.Get(s); ok {
		return r.md, r.err
	}
	md, err := xmeta.Parse(s)
	c.lru.Add(s, parsed{md: md, err: err})
	return md, err
}

func (c *parseCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// close 清空缓存并停止后台过期清理 goroutine，可重复调用。
func (c *parseCache) close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.lru.Purge()
		stopCleanupGoroutine(c.lru)
	})
}

// stopCleanupGoroutine 关闭 expirable.LRU 内部的 done 通道。
//
// golang-lru/v2@v2.0.7 在 TTL > 0 时启动清理 goroutine，但没有公开的停止方法。
// 依赖未导出字段 done（chan struct{}）；结构变化时返回 false，goroutine 随进程存活。
// 升级 golang-lru 后若上游提供 Close，应直接改用。
func stopCleanupGoroutine(lru any) (stopped bool) {
	defer func() {
		if r := recover(); r != nil {
			stopped = false
		}
	}()

	v := reflect.ValueOf(lru)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	done := v.Elem().FieldByName("done")
	if !done.IsValid() || done.IsNil() || done.Type() != reflect.TypeOf(make(chan struct{})) {
		return false
	}
	ch := *(*chan struct{})(unsafe.Pointer(done.UnsafeAddr())) //nolint:gosec // 有意访问内部字段
	close(ch)
	return true
}
