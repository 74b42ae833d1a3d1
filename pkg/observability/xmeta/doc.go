// Package xmeta 实现 X-Trace 链路元数据的值类型与编解码。
//
// # 格式
//
// 一条元数据由描述字节、task id、op id 和 flags 组成：
//
//	desc(1) | task id(4/8/12/16/20) | op id(4/8) | flags(1)
//
// 描述字节布局为 vvvv o ttt：高 4 bit 为版本号（当前为 2），
// bit 3 为 op id 长度编码，低 3 bit 为 task id 长度编码。
// flags 的 bit 0 为 sampled 位。
//
// 文本形式为小写十六进制，分连续形式和冒号形式：
//
//	2b<40 hex><16 hex>01
//	2b:<40 hex>:<16 hex>:01
//
// # 使用方式
//
//	md := xmeta.Generate(xmeta.WithSampled(true))
//	s := md.String()
//
//	parsed, err := xmeta.Parse(s)
//	if err != nil {
//	    // errors.Is(err, xmeta.ErrUnsupportedVersion) ...
//	}
//
// # 并发
//
// Metadata 是定长值类型，赋值即深拷贝，不共享可变状态。
// Generator 与 Diagnostics 可安全并发使用。
//
// 本包不记录日志、不重试，所有失败通过哨兵错误返回，
// 回退策略由 xtrace 等调用方决定。
package xmeta
