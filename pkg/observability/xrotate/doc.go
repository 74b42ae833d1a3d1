// Package xrotate 提供日志文件轮转，底层为 gopkg.in/natefinch/lumberjack.v2。
//
//	r, err := xrotate.NewLumberjack("/var/log/xmetactl/app.log",
//	    xrotate.WithMaxSize(50),
//	    xrotate.WithMaxBackups(3),
//	)
//	logger, cleanup, err := xlog.New().SetOutput(r).Build()
package xrotate
