package xmeta

// Validate 按顺序检查版本号、task id 长度、op id 长度和打包长度，
// 返回第一个不满足条件对应的哨兵错误。
func (m Metadata) Validate() error {
	if m.version != Version {
		return ErrUnsupportedVersion
	}
	if !validTaskIDLen(int(m.taskLen)) {
		return ErrInvalidTaskIDLen
	}
	if !validOpIDLen(int(m.opLen)) {
		return ErrInvalidOpIDLen
	}
	if m.PackedLen() > MaxPackLen {
		return ErrPackTooLong
	}
	return nil
}

// IsValid 当且仅当 Validate 返回 nil 时为 true。Null 恒为 false。
func (m Metadata) IsValid() bool {
	return m.Validate() == nil
}
