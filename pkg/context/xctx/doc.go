// Package xctx 提供请求上下文中 X-Trace 元数据与 request id 的存取。
//
// # 核心功能
//
//   - trace metadata : X-Trace 元数据（xmeta.Metadata 值）
//   - request_id     : 请求标识（UUID，业务层面）
//
// 并为日志系统提供属性提取（x_trace、task_id、op_id、sampled、request_id）。
//
// # 命名约定
//
//	WithXxx(ctx, value)    - 注入：将 value 写入 context
//	Xxx(ctx)               - 读取：缺失时返回零值
//	RequireXxx(ctx)        - 强制读取：缺失时返回错误
//	EnsureXxx(ctx)         - 确保存在：已存在则返回，否则自动生成
//	GetTrace(ctx)          - 批量读取：返回结构体
//
// # 与 xmeta 的关系
//
// xctx 只做存取，不解析也不编码。Provider(ctx) 把 context 适配为 xmeta.Provider，
// 供只依赖 xmeta 接口的组件读取当前元数据。
//
// EnsureTraceMetadata 会把无效的元数据视为缺失并重新生成；
// 其他读取函数不做校验，原样返回存入的值。
package xctx
