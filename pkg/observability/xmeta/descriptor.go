package xmeta

import "strconv"

// =============================================================================
// 描述字节（descriptor byte）
//
// 布局：vvvv o ttt
//   - 高 4 bit：版本号
//   - bit 3：op id 长度编码，(opLen/4)-1，即 4 -> 0，8 -> 1
//   - 低 3 bit：task id 长度编码，(taskLen/4)-1，结果为 4 时钳制为 3
//
// 设计决策: task id 长度 16 与 20 都编码为 3。这是线上格式的兼容约束，
// 不做修正；解码时 3 按 20 处理，长度恰为 16 的输入同样接受（见 Parse）。
// =============================================================================

const (
	versionShift = 4
	opCodeShift  = 3
	opCodeMask   = 0x01
	taskCodeMask = 0x07

	// maxTaskCode task 长度编码上限
	maxTaskCode = 3

	// collidingTaskIDLen 与 MaxTaskIDLen 共用 task 编码 3 的长度
	collidingTaskIDLen = 16
)

// Descriptor 描述字节解包结果，不做任何校验。
type Descriptor struct {
	Version  uint8
	TaskCode uint8
	OpCode   uint8
}

// PackDescriptor 将版本号和 id 长度打包成描述字节。
//
// 调用方必须先完成校验：version 在 [0, 15]，taskLen ∈ {4, 8, 12, 16, 20}，
// opLen ∈ {4, 8}。越界输入属于编程错误，直接 panic。
func PackDescriptor(version, taskLen, opLen int) byte {
	if version < 0 || version > maxVersion {
		panic("xmeta: PackDescriptor version out of range: " + strconv.Itoa(version))
	}
	if !validTaskIDLen(taskLen) {
		panic("xmeta: PackDescriptor invalid task id length: " + strconv.Itoa(taskLen))
	}
	if !validOpIDLen(opLen) {
		panic("xmeta: PackDescriptor invalid op id length: " + strconv.Itoa(opLen))
	}

	taskCode := taskLen/4 - 1
	if taskCode > maxTaskCode {
		taskCode = maxTaskCode
	}
	opCode := opLen/4 - 1
	return byte(version<<versionShift | opCode<<opCodeShift | taskCode)
}

// UnpackDescriptor 按位拆分描述字节。
func UnpackDescriptor(b byte) Descriptor {
	return Descriptor{
		Version:  b >> versionShift,
		TaskCode: b & taskCodeMask,
		OpCode:   (b >> opCodeShift) & opCodeMask,
	}
}

// TaskIDLen 返回编码对应的 task id 长度。编码 3 对应 20 字节（线上规范长度）。
//
// 编码 4~7 不是合法取值，按公式 (code+1)*4 返回，Parse 会直接拒绝。
func (d Descriptor) TaskIDLen() int {
	if d.TaskCode == maxTaskCode {
		return MaxTaskIDLen
	}
	return (int(d.TaskCode) + 1) * 4
}

// OpIDLen 返回编码对应的 op id 长度。
func (d Descriptor) OpIDLen() int {
	return (int(d.OpCode) + 1) * 4
}

// Descriptor 返回当前值的描述字节。长度不可编码时返回 ErrInvalidLength。
func (m Metadata) Descriptor() (byte, error) {
	if !m.encodable() {
		return 0, ErrInvalidLength
	}
	return PackDescriptor(int(m.version), int(m.taskLen), int(m.opLen)), nil
}

// encodable 判断 id 长度能否安全打包。
func (m Metadata) encodable() bool {
	return m.version <= maxVersion && validTaskIDLen(int(m.taskLen)) && validOpIDLen(int(m.opLen))
}

func validTaskIDLen(n int) bool {
	return n >= 4 && n <= MaxTaskIDLen && n%4 == 0
}

func validOpIDLen(n int) bool {
	return n == 4 || n == MaxOpIDLen
}
