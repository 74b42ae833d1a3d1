// Package xlog 基于 log/slog 的结构化日志。
//
// # 创建 Logger
//
//	logger, cleanup, err := xlog.New().
//	    SetLevel(xlog.LevelInfo).
//	    SetFormat("json").
//	    SetRotation("/var/log/app.log").
//	    Build()
//	defer cleanup()
//
// # X-Trace 字段
//
// 默认启用 EnrichHandler：ctx 中有有效元数据时，每条日志追加
// x_trace、task_id、op_id、sampled，以及 request_id（如有）。
//
// # 全局 Logger
//
// Default / SetDefault / Debug / Info / Warn / Error 面向 CLI 等简单场景。
package xlog
