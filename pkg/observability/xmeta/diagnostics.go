package xmeta

import "sync/atomic"

// Stats 诊断计数快照。JSON 字段名与既有运维工具保持一致。
type Stats struct {
	// Active 已登记且尚未释放的元数据数量
	Active int64 `json:"active"`
	// FreedBytes 累计释放的字节数（按 RecordSize 计）
	FreedBytes int64 `json:"freedBytes"`
	// FreedCount 累计释放次数
	FreedCount int64 `json:"freedCount"`
}

// Diagnostics 元数据生命周期计数器，可安全并发使用。
//
// 计数是显式的：持有方在接管一个值时调用 Track，不再使用时调用 Release。
// 零值可直接使用；nil 接收者上的所有方法均为空操作。
type Diagnostics struct {
	active     atomic.Int64
	freedBytes atomic.Int64
	freedCount atomic.Int64
}

// NewDiagnostics 创建独立的计数器，通常用于测试或多租户隔离。
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

var defaultDiagnostics Diagnostics

// DefaultDiagnostics 返回进程级计数器。
func DefaultDiagnostics() *Diagnostics {
	return &defaultDiagnostics
}

// Track 登记一个存活值并原样返回，便于写成 md := d.Track(xmeta.Generate())。
func (d *Diagnostics) Track(m Metadata) Metadata {
	if d != nil {
		d.active.Add(1)
	}
	return m
}

// Release 登记一次释放：active 减 1，freedBytes 增加 RecordSize，freedCount 加 1。
func (d *Diagnostics) Release(Metadata) {
	if d == nil {
		return
	}
	d.active.Add(-1)
	d.freedBytes.Add(RecordSize)
	d.freedCount.Add(1)
}

// Snapshot 返回当前计数。三个字段分别原子读取，彼此之间不保证一致。
func (d *Diagnostics) Snapshot() Stats {
	if d == nil {
		return Stats{}
	}
	return Stats{
		Active:     d.active.Load(),
		FreedBytes: d.freedBytes.Load(),
		FreedCount: d.freedCount.Load(),
	}
}

// Reset 清零所有计数。仅用于测试。
func (d *Diagnostics) Reset() {
	if d == nil {
		return
	}
	d.active.Store(0)
	d.freedBytes.Store(0)
	d.freedCount.Store(0)
}
