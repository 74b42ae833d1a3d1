package xsampling

import (
	"crypto/rand"
	"encoding/binary"
)

const (
	floatBits  = 53
	floatScale = 1.0 / (1 << floatBits)
)

// randomFloat64 返回 [0.0, 1.0) 范围内的随机浮点数。
//
// crypto/rand 失败表示系统熵源不可用，与 xmeta 生成器一致选择 panic。
func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("xsampling: crypto/rand.Read failed: " + err.Error())
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) * floatScale
}

func validateRate(rate float64) error {
	// NaN 与任何值比较都为 false，这里的写法同时拒绝 NaN
	if !(rate >= 0 && rate <= 1) {
		return ErrInvalidRate
	}
	return nil
}
