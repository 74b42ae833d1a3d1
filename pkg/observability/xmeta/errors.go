package xmeta

import "errors"

// 构造相关错误
var (
	// ErrVersionOverflow 版本号超出 4 bit 范围
	ErrVersionOverflow = errors.New("xmeta: version exceeds 4 bits")

	// ErrTaskIDTooLong task id 超出固定容量
	ErrTaskIDTooLong = errors.New("xmeta: task id exceeds capacity")

	// ErrOpIDTooLong op id 超出固定容量
	ErrOpIDTooLong = errors.New("xmeta: op id exceeds capacity")
)

// 校验相关错误
var (
	// ErrUnsupportedVersion 版本号不是 Version
	ErrUnsupportedVersion = errors.New("xmeta: unsupported version")

	// ErrInvalidTaskIDLen task id 长度不在 {4, 8, 12, 16, 20} 中
	ErrInvalidTaskIDLen = errors.New("xmeta: invalid task id length")

	// ErrInvalidOpIDLen op id 长度不在 {4, 8} 中
	ErrInvalidOpIDLen = errors.New("xmeta: invalid op id length")

	// ErrPackTooLong 打包长度超过 MaxPackLen（当前格式的合法值不会触发，见 MaxPackLen）
	ErrPackTooLong = errors.New("xmeta: packed length exceeds maximum")
)

// 编解码相关错误
var (
	// ErrEmpty 输入为空字符串
	ErrEmpty = errors.New("xmeta: empty input")

	// ErrMalformed 输入包含非十六进制字符或不完整的字节
	ErrMalformed = errors.New("xmeta: malformed hex input")

	// ErrLengthMismatch 输入长度与描述字节声明的长度不一致
	ErrLengthMismatch = errors.New("xmeta: length does not match descriptor")

	// ErrBufferTooSmall 输出缓冲区容量不足
	ErrBufferTooSmall = errors.New("xmeta: output buffer too small")

	// ErrInvalidLength id 长度无法打包为描述字节
	ErrInvalidLength = errors.New("xmeta: id length cannot be encoded")
)

// 来源解析相关错误
var (
	// ErrNilSource Source 为 nil 或 EventSource 未携带事件
	ErrNilSource = errors.New("xmeta: nil source")

	// ErrNilCreator EventCreator 为 nil
	ErrNilCreator = errors.New("xmeta: nil event creator")
)
