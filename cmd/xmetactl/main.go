// xmetactl 是 X-Trace 元数据的命令行工具。
//
// 用法:
//
//	xmetactl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      配置文件（.yaml/.yml/.json）
//	    --log-level   日志级别 debug/info/warn/error（覆盖配置文件）
//	    --log-file    日志文件，按大小轮转（覆盖配置文件）
//
// 命令:
//
//	generate          生成元数据
//	parse <value>     解析并以 JSON 输出各字段
//	format <value>    规范化输出（连续或冒号形式）
//	sample <value>    查看或修改 sampled 位
//	validate <value>  校验，任一无效时退出码为 1
//	stats             输出生命周期计数（JSON）
//	serve             启动演示 HTTP 服务，传播 X-Trace 并导出计数
//
// 退出码:
//
//	0: 成功
//	1: 命令失败或校验不通过
//	2: 参数错误
//
// 示例:
//
//	xmetactl generate --sampled --count 3
//	xmetactl parse 2b:1111...:2222...:01
//	xmetactl format --human 2b1111...01
//	xmetactl sample --set=false 2b1111...01
//	xmetactl -c xmetactl.yaml serve --addr :8080
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
