package xmeta

import "bytes"

// =============================================================================
// 格式常量
// =============================================================================

const (
	// Version 当前唯一支持的元数据版本号（4 bit）。
	Version = 2

	// MaxTaskIDLen task id 最大字节数。
	MaxTaskIDLen = 20

	// MaxOpIDLen op id 最大字节数。
	MaxOpIDLen = 8

	// MaxPackLen 格式允许的最大编码长度（字节），同时作为文本缓冲区容量上限。
	//
	// 当前格式下合法值最多打包为 30 字节、文本最长 63 字符，远低于此上限；
	// 与之比较的 ErrPackTooLong / ErrBufferTooSmall 分支只在格式扩展
	// （更长的 id）后才可能触发，用于保证缓冲区永不越界。
	MaxPackLen = 512

	// DefaultTaskIDLen 生成器默认 task id 长度，与现有 X-Trace 生态保持一致。
	DefaultTaskIDLen = 20

	// DefaultOpIDLen 生成器默认 op id 长度。
	DefaultOpIDLen = 8

	// RecordSize 单个 Metadata 值在内存中的固定大小（字节），用于诊断计数。
	RecordSize = 4 + MaxTaskIDLen + MaxOpIDLen

	// maxVersion 4 bit 版本号上限。
	maxVersion = 0x0f
)

// =============================================================================
// Metadata 值类型
// =============================================================================

// Metadata 链路追踪上下文元数据。
//
// 固定容量的值类型：task id / op id 存放在定长数组中，通过赋值即可完成深拷贝，
// 实例之间不共享任何可变状态。零值即 Null（两个 id 长度均为 0），表示"没有元数据"。
//
// 未使用的数组尾部始终为零，因此两个 Metadata 可以直接用 == 比较。
type Metadata struct {
	version uint8
	taskLen uint8
	opLen   uint8
	flags   uint8
	taskID  [MaxTaskIDLen]byte
	opID    [MaxOpIDLen]byte
}

// Null 空元数据哨兵值，IsValid() 恒为 false。
var Null Metadata

// New 使用当前版本号构造元数据。
//
// 只检查容量（task id 不超过 MaxTaskIDLen，op id 不超过 MaxOpIDLen），
// 不检查长度是否属于合法集合；合法性由 Validate/IsValid 判断。
func New(taskID, opID []byte, flags byte) (Metadata, error) {
	return NewWithVersion(Version, taskID, opID, flags)
}

// NewWithVersion 使用指定版本号构造元数据。version 超过 4 bit 时返回 ErrVersionOverflow。
func NewWithVersion(version uint8, taskID, opID []byte, flags byte) (Metadata, error) {
	if version > maxVersion {
		return Null, ErrVersionOverflow
	}
	if len(taskID) > MaxTaskIDLen {
		return Null, ErrTaskIDTooLong
	}
	if len(opID) > MaxOpIDLen {
		return Null, ErrOpIDTooLong
	}
	m := Metadata{
		version: version,
		taskLen: uint8(len(taskID)),
		opLen:   uint8(len(opID)),
		flags:   flags,
	}
	copy(m.taskID[:], taskID)
	copy(m.opID[:], opID)
	return m, nil
}

// Version 返回版本号。
func (m Metadata) Version() uint8 { return m.version }

// TaskID 返回 task id 的副本。
func (m Metadata) TaskID() []byte {
	return bytes.Clone(m.taskID[:m.taskLen])
}

// OpID 返回 op id 的副本。
func (m Metadata) OpID() []byte {
	return bytes.Clone(m.opID[:m.opLen])
}

// TaskIDLen 返回 task id 长度。
func (m Metadata) TaskIDLen() int { return int(m.taskLen) }

// OpIDLen 返回 op id 长度。
func (m Metadata) OpIDLen() int { return int(m.opLen) }

// IsNull 判断是否为空元数据（两个 id 均为空）。
func (m Metadata) IsNull() bool {
	return m.taskLen == 0 && m.opLen == 0
}

// Copy 返回独立副本。与直接赋值等价，便于在调用链中显式表达"拷贝"语义。
func (m Metadata) Copy() Metadata { return m }

// Equal 逐字节比较版本、task id、op id 与 flags。
func (m Metadata) Equal(o Metadata) bool {
	return m == o
}

// PackedLen 返回二进制打包长度：描述字节 + task id + op id + flags。
func (m Metadata) PackedLen() int {
	return 1 + int(m.taskLen) + int(m.opLen) + 1
}
