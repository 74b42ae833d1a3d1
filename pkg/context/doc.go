// Package context 提供上下文相关的子包。
//
// 子包列表：
//   - xctx: 在 context.Context 中传递 X-Trace 元数据与 request id
//
// 所有上下文信息通过 context.Context 传递，不使用全局变量。
package context
