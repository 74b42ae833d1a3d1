package xmeta

// SampledFlag flags 中表示"已采样"的位。
const SampledFlag byte = 0x01

// IsSampled 判断 sampled 位是否置位。
func (m Metadata) IsSampled() bool {
	return m.flags&SampledFlag != 0
}

// SetSampled 设置或清除 sampled 位，返回修改前的状态。
//
// 只修改 bit 0，其余 flag 位保持不变。重复以相同参数调用是幂等的。
func (m *Metadata) SetSampled(on bool) (previous bool) {
	previous = m.IsSampled()
	if on {
		m.flags |= SampledFlag
	} else {
		m.flags &^= SampledFlag
	}
	return previous
}

// Flags 返回完整的 flags 字节。
func (m Metadata) Flags() byte { return m.flags }

// SetFlags 整体替换 flags 字节。
func (m *Metadata) SetFlags(b byte) { m.flags = b }
