// Package xmetrics 把 X-Trace 元数据接入 OpenTelemetry（metrics + tracing）。
//
// # 设计理念
//
// 业务代码只依赖 Observer/Span/Attr 接口，默认实现基于 OpenTelemetry。
// 每个 Span 同时是一个携带 X-Trace 元数据的事件（xmeta.Carrier）：
// Start 从 ctx 中的元数据派生子 op id，写回 ctx，保证下游传播的是本次操作。
//
// # 使用示例
//
//	obs, _ := xmetrics.NewOTelObserver(xmetrics.WithDiagnostics(xmeta.DefaultDiagnostics()))
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "billing",
//		Operation: "charge",
//		Kind:      xmetrics.KindClient,
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// OTelObserver 实现 xmeta.EventCreator，可直接交给 xmeta.CreateEvent 记录瞬时事件。
//
// # OTel 链路对齐
//
// ctx 中没有 OTel 父跨度时，以元数据构造远程父跨度：task id 前 16 字节作为 trace id，
// 8 字节 op id 作为 span id，sampled 位映射为 trace flags。
//
// # 指标
//
//   - xtracemeta.operation.total / xtracemeta.operation.duration
//     属性 component / operation / status / x_trace.sampled
//   - xtracemeta.metadata.active / freed_bytes / freed_count（RegisterDiagnostics）
package xmetrics
