package xmeta

// =============================================================================
// 文本编码
//
// 连续形式（规范形式，用于比较和跨系统传输）：
//   2b 1111...11 2222222222222222 01  -> "2b1111...11222222222222222201"
// 冒号形式（仅供阅读）：
//   "2b:1111...11:2222222222222222:01"
//
// 输出统一小写；解析时大小写不敏感，并跳过字节之间的冒号。
// =============================================================================

const (
	hexDigits = "0123456789abcdef"

	// separatorCount 冒号形式中的分隔符数量
	separatorCount = 3

	// maxRawLen 合法输入解码后的最大字节数
	maxRawLen = 1 + MaxTaskIDLen + MaxOpIDLen + 1
)

// TextLen 返回编码后文本的字符数（不含结束符）。
func (m Metadata) TextLen(humanReadable bool) int {
	n := 2 * m.PackedLen()
	if humanReadable {
		n += separatorCount
	}
	return n
}

// EncodedLen 返回编码所需的缓冲区容量：文本长度加 1 字节结束符。
//
// 结束符保证写入 FormatTo 的缓冲区可以直接交给以 NUL 结尾的 C 风格消费方。
func (m Metadata) EncodedLen(humanReadable bool) int {
	return m.TextLen(humanReadable) + 1
}

// Format 编码为文本。humanReadable 为 true 时输出冒号形式，否则输出连续形式。
//
// 所需容量超过 MaxPackLen 返回 ErrBufferTooSmall；
// id 长度无法打包返回 ErrInvalidLength。失败时不返回任何部分结果。
func (m Metadata) Format(humanReadable bool) (string, error) {
	var buf [MaxPackLen]byte
	n, err := m.FormatTo(buf[:], humanReadable)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// FormatTo 将文本写入调用方提供的缓冲区，并在文本之后写入 NUL 结束符。
//
// 返回写入的文本字符数（不含结束符）。容量不足时返回 ErrBufferTooSmall，
// 且不修改 buf 的任何字节。
func (m Metadata) FormatTo(buf []byte, humanReadable bool) (int, error) {
	desc, err := m.Descriptor()
	if err != nil {
		return 0, err
	}
	need := m.EncodedLen(humanReadable)
	if need > len(buf) || need > MaxPackLen {
		return 0, ErrBufferTooSmall
	}

	out := m.appendText(buf[:0], desc, humanReadable)
	buf[len(out)] = 0
	return len(out), nil
}

// AppendFormat 将文本追加到 dst 并返回扩展后的切片。
//
// 与 Format 使用相同的容量规则；失败时返回原始 dst。
func (m Metadata) AppendFormat(dst []byte, humanReadable bool) ([]byte, error) {
	desc, err := m.Descriptor()
	if err != nil {
		return dst, err
	}
	if m.EncodedLen(humanReadable) > MaxPackLen {
		return dst, ErrBufferTooSmall
	}
	return m.appendText(dst, desc, humanReadable), nil
}

// String 返回连续形式；无法编码时返回空字符串。
func (m Metadata) String() string {
	s, err := m.Format(false)
	if err != nil {
		return ""
	}
	return s
}

// MarshalText 实现 encoding.TextMarshaler，输出连续形式。
func (m Metadata) MarshalText() ([]byte, error) {
	return m.AppendFormat(make([]byte, 0, m.TextLen(false)), false)
}

// UnmarshalText 实现 encoding.TextUnmarshaler。失败时不修改接收者。
func (m *Metadata) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// appendText 调用方保证容量与长度已校验。
func (m Metadata) appendText(dst []byte, desc byte, humanReadable bool) []byte {
	dst = appendHexByte(dst, desc)
	if humanReadable {
		dst = append(dst, ':')
	}
	for _, b := range m.taskID[:m.taskLen] {
		dst = appendHexByte(dst, b)
	}
	if humanReadable {
		dst = append(dst, ':')
	}
	for _, b := range m.opID[:m.opLen] {
		dst = appendHexByte(dst, b)
	}
	if humanReadable {
		dst = append(dst, ':')
	}
	return appendHexByte(dst, m.flags)
}

func appendHexByte(dst []byte, b byte) []byte {
	return append(dst, hexDigits[b>>4], hexDigits[b&0x0f])
}

// =============================================================================
// 文本解码
// =============================================================================

// Parse 解析文本形式的元数据，接受连续形式和冒号形式。
//
// 解析步骤：
//  1. 逐对解析十六进制字节，字节之间的 ':' 被跳过
//  2. 从描述字节恢复版本号与 id 长度
//  3. 剩余字节数必须恰好等于 task + op + 1（flags）
//  4. 版本号必须为 Version
//
// 任何失败都返回 Null 和对应的哨兵错误，不会 panic，也不会返回部分填充的值。
func Parse(s string) (Metadata, error) {
	if s == "" {
		return Null, ErrEmpty
	}

	var raw [maxRawLen]byte
	n := 0
	for i := 0; i < len(s); {
		if s[i] == ':' {
			i++
			continue
		}
		if i+1 >= len(s) {
			return Null, ErrMalformed
		}
		hi, ok := fromHexChar(s[i])
		if !ok {
			return Null, ErrMalformed
		}
		lo, ok := fromHexChar(s[i+1])
		if !ok {
			return Null, ErrMalformed
		}
		if n == len(raw) {
			// 超过任何合法组合的最大长度
			return Null, ErrLengthMismatch
		}
		raw[n] = hi<<4 | lo
		n++
		i += 2
	}
	if n == 0 {
		return Null, ErrMalformed
	}

	d := UnpackDescriptor(raw[0])
	if d.TaskCode > maxTaskCode {
		return Null, ErrLengthMismatch
	}
	taskLen := d.TaskIDLen()
	opLen := d.OpIDLen()
	remaining := n - 1
	if remaining != taskLen+opLen+1 {
		// 编码 3 同时覆盖 16 与 20 字节的 task id
		if d.TaskCode != maxTaskCode || remaining != collidingTaskIDLen+opLen+1 {
			return Null, ErrLengthMismatch
		}
		taskLen = collidingTaskIDLen
	}
	if d.Version != Version {
		return Null, ErrUnsupportedVersion
	}

	m := Metadata{
		version: d.Version,
		taskLen: uint8(taskLen),
		opLen:   uint8(opLen),
	}
	copy(m.taskID[:], raw[1:1+taskLen])
	copy(m.opID[:], raw[1+taskLen:1+taskLen+opLen])
	m.flags = raw[1+taskLen+opLen]
	return m, nil
}

// TryParse 与 Parse 相同，以 bool 表示成功与否。
func TryParse(s string) (Metadata, bool) {
	m, err := Parse(s)
	return m, err == nil
}

// MustParse 解析失败时 panic，仅用于常量初始化和测试。
func MustParse(s string) Metadata {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func fromHexChar(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
