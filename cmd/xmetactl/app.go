package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xtracemeta/pkg/config/xconf"
	"github.com/omeyang/xtracemeta/pkg/observability/xlog"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
	"github.com/omeyang/xtracemeta/pkg/observability/xrotate"
)

// exitError 表示输出已完成、只需设置非零退出码的场景。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// app 持有一次命令执行期间的共享状态，由根命令的 Before 初始化。
type app struct {
	stdout io.Writer
	stderr io.Writer

	settings settings
	cfg      xconf.Config // 未指定 --config 时为 nil
	logger   xlog.LoggerWithLevel
	cleanup  func() error
	gen      *xmeta.Generator
	diag     *xmeta.Diagnostics
}

// run 执行命令行并返回退出码，stdout/stderr 可替换以便测试。
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, diag: xmeta.NewDiagnostics()}
	err := a.command().Run(ctx, args)
	if a.cleanup != nil {
		if cerr := a.cleanup(); cerr != nil {
			fmt.Fprintf(stderr, "关闭日志失败: %v\n", cerr)
		}
	}
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "xmetactl",
		Usage:     "X-Trace 元数据生成、解析与诊断工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json）",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 debug/info/warn/error，覆盖配置文件",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 text/json，覆盖配置文件",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件，按大小轮转；默认输出到 stderr",
			},
		},
		Before:       a.before,
		Commands:     a.commands(),
		OnUsageError: onUsageError,
		// 由 run 统一映射退出码，不让框架直接 os.Exit。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, _ error) {},
	}
}

// onUsageError 将框架的 flag 解析错误转换为 usageError。
func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return &usageError{msg: err.Error()}
}

// before 加载配置并初始化日志与生成器。命令行 flag 优先于配置文件。
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	s, cfg, err := loadSettings(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	if v := cmd.String("log-level"); v != "" {
		s.Log.Level = v
	}
	if v := cmd.String("log-format"); v != "" {
		s.Log.Format = v
	}
	if v := cmd.String("log-file"); v != "" {
		s.Log.File = v
	}
	if _, err := xlog.ParseLevel(s.Log.Level); err != nil {
		return ctx, usagef("无效的日志级别 %q", s.Log.Level)
	}
	if err := s.Trace.Validate(); err != nil {
		return ctx, err
	}

	gen, err := s.newGenerator()
	if err != nil {
		return ctx, fmt.Errorf("生成器配置: %w", err)
	}

	logger, cleanup, err := a.newLogger(s.Log)
	if err != nil {
		return ctx, err
	}
	xlog.SetDefault(logger)

	a.settings = s
	a.cfg = cfg
	a.gen = gen
	a.logger = logger
	a.cleanup = cleanup
	return ctx, nil
}

func (a *app) newLogger(ls logSettings) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().
		SetOutput(a.stderr).
		SetLevelString(ls.Level).
		SetFormat(ls.Format).
		SetAttrs(slog.String("service", "xmetactl"))
	if ls.File != "" {
		b.SetRotation(ls.File,
			xrotate.WithMaxSize(ls.MaxSizeMB),
			xrotate.WithMaxBackups(ls.MaxBackups),
			xrotate.WithMaxAge(ls.MaxAgeDays),
			xrotate.WithCompress(ls.Compress),
		)
	}
	return b.Build()
}
