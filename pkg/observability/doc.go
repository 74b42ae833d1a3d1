// Package observability 提供 X-Trace 元数据及其可观测性相关的子包。
//
// 子包列表：
//   - xmeta: X-Trace 元数据的类型、编解码、生成与生命周期计数
//   - xsampling: 采样策略，决定新元数据的 sampled 位
//   - xtrace: HTTP/gRPC 边界上的 X-Trace 提取与注入
//   - xmetrics: 基于 OpenTelemetry 的观测跨度与诊断指标
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xrotate: 日志文件轮转
//
// 设计原则：
//   - xmeta 不依赖其他子包，也从不记录日志
//   - 自动从 context 中提取元数据注入日志
//   - X-Trace 与 OpenTelemetry 链路按 task id / op id 对齐
package observability
