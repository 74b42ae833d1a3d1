package xrotate

import "io"

// Rotator 日志轮转器，可直接作为 xlog 的输出目标。
//
// 实现必须并发安全；Close 之后 Write 与 Rotate 返回 ErrClosed。
type Rotator interface {
	io.WriteCloser

	// Rotate 手动触发轮转：关闭当前文件，重命名为备份并创建新文件。
	Rotate() error
}
