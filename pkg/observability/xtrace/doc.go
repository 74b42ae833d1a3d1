// Package xtrace 负责 X-Trace 元数据在 HTTP/gRPC 边界上的传播。
//
// # 设计理念
//
// 元数据的编解码在 xmeta 中完成，存储在 xctx 中，xtrace 只做传输层适配：
// 从入站请求提取、决定沿用/派生/生成、注入 context，出站时再写回传输层。
//
// # 协议
//
// HTTP Header:
//   - X-Trace: 元数据连续十六进制形式（入站同样接受冒号分隔形式）
//   - X-Request-ID: 请求 ID
//
// gRPC Metadata:
//   - x-trace
//   - x-request-id
//
// 出站总是写连续形式（小写）。
//
// # 入站规则
//
// Propagator.Accept 对入站值的处理：
//   - 有效：默认派生新的 op id（保留 task id 与 sampled 位）；WithDerive(false) 时原样沿用
//   - 无效：以 Warn 级别记录（值截断到 128 字节）后按缺失处理
//   - 缺失：默认生成新的元数据，sampled 位由采样器决定；WithAutoGenerate(false) 时保持缺失
//
// 上游的采样决策总是被尊重，采样器只作用于本服务新生成的元数据。
//
// # 使用方式
//
//	p, err := xtrace.NewFromConfig(cfg)
//	defer p.Close()
//
//	http.Handle("/", p.HTTPMiddleware()(handler))
//	client := &http.Client{Transport: p.Transport(nil)}
//
//	grpc.NewServer(grpc.ChainUnaryInterceptor(p.UnaryServerInterceptor()))
//	grpc.NewClient(addr, grpc.WithChainUnaryInterceptor(p.UnaryClientInterceptor()))
//
// # 解析缓存
//
// 入站值经过一个带 TTL 的 LRU 缓存（hashicorp/golang-lru expirable），
// 失败结果同样缓存。WithParseCache(0, 0) 关闭缓存。
//
// # 生命周期计数
//
// 每个被采纳的元数据在请求开始时 Track、结束时 Release 到 xmeta.Diagnostics，
// 默认使用 xmeta.DefaultDiagnostics()，可通过 xmetrics 导出为指标。
package xtrace
