package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xtracemeta/pkg/observability/xlog"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
	"github.com/omeyang/xtracemeta/pkg/observability/xsampling"
)

// maxGenerateCount generate --count 上限
const maxGenerateCount = 10000

func (a *app) commands() []*cli.Command {
	return []*cli.Command{
		a.generateCommand(),
		a.parseCommand(),
		a.formatCommand(),
		a.sampleCommand(),
		a.validateCommand(),
		a.statsCommand(),
		a.serveCommand(),
	}
}

// =============================================================================
// generate
// =============================================================================

func (a *app) generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "生成新的 X-Trace 元数据",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "sampled",
				Usage: "显式设置 sampled 位；未指定时按配置的采样策略决定",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "生成数量",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:  "human",
				Usage: "以冒号分隔的可读形式输出",
			},
		},
		OnUsageError: onUsageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			n := cmd.Int("count")
			if n < 1 || n > maxGenerateCount {
				return usagef("--count 必须在 1~%d 之间，得到 %d", maxGenerateCount, n)
			}

			var sampler xsampling.Sampler
			if !cmd.IsSet("sampled") {
				s, err := a.settings.Trace.Sampler()
				if err != nil {
					return err
				}
				sampler = s
			}

			human := cmd.Bool("human")
			for range n {
				var md xmeta.Metadata
				if sampler == nil {
					md = a.gen.Generate(xmeta.WithSampled(cmd.Bool("sampled")))
				} else {
					md = xsampling.Decide(ctx, sampler, a.gen.Generate())
				}
				text, err := md.Format(human)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, text)
			}
			xlog.Debug(ctx, "generated x-trace metadata",
				xlog.Operation("generate"), xlog.Component("xmetactl"))
			return nil
		},
	}
}

// =============================================================================
// parse
// =============================================================================

// parsedView parse 命令的 JSON 输出。
type parsedView struct {
	Input      string `json:"input"`
	Version    uint8  `json:"version"`
	Descriptor string `json:"descriptor"`
	TaskID     string `json:"task_id"`
	TaskIDLen  int    `json:"task_id_len"`
	OpID       string `json:"op_id"`
	OpIDLen    int    `json:"op_id_len"`
	Flags      string `json:"flags"`
	Sampled    bool   `json:"sampled"`
	PackedLen  int    `json:"packed_len"`
	Canonical  string `json:"canonical"`
	Human      string `json:"human"`
}

func newParsedView(input string, md xmeta.Metadata) (parsedView, error) {
	desc, err := md.Descriptor()
	if err != nil {
		return parsedView{}, err
	}
	canonical, err := md.Format(false)
	if err != nil {
		return parsedView{}, err
	}
	human, err := md.Format(true)
	if err != nil {
		return parsedView{}, err
	}
	return parsedView{
		Input:      input,
		Version:    md.Version(),
		Descriptor: fmt.Sprintf("%02x", desc),
		TaskID:     hex.EncodeToString(md.TaskID()),
		TaskIDLen:  md.TaskIDLen(),
		OpID:       hex.EncodeToString(md.OpID()),
		OpIDLen:    md.OpIDLen(),
		Flags:      fmt.Sprintf("%02x", md.Flags()),
		Sampled:    md.IsSampled(),
		PackedLen:  md.PackedLen(),
		Canonical:  canonical,
		Human:      human,
	}, nil
}

func (a *app) parseCommand() *cli.Command {
	return &cli.Command{
		Name:         "parse",
		Usage:        "解析 X-Trace 文本并以 JSON 输出各字段",
		ArgsUsage:    "<value>",
		OnUsageError: onUsageError,
		Action: func(_ context.Context, cmd *cli.Command) error {
			input, err := singleArg(cmd)
			if err != nil {
				return err
			}
			md, err := xmeta.Parse(input)
			if err != nil {
				return fmt.Errorf("解析 %q: %w", input, err)
			}
			view, err := newParsedView(input, md)
			if err != nil {
				return err
			}
			return a.writeJSON(view)
		},
	}
}

// =============================================================================
// format
// =============================================================================

func (a *app) formatCommand() *cli.Command {
	return &cli.Command{
		Name:      "format",
		Usage:     "规范化 X-Trace 文本（连续或冒号形式）",
		ArgsUsage: "<value>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "human", Usage: "以冒号分隔的可读形式输出"},
		},
		OnUsageError: onUsageError,
		Action: func(_ context.Context, cmd *cli.Command) error {
			input, err := singleArg(cmd)
			if err != nil {
				return err
			}
			md, err := xmeta.Parse(input)
			if err != nil {
				return fmt.Errorf("解析 %q: %w", input, err)
			}
			text, err := md.Format(cmd.Bool("human"))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, text)
			return nil
		},
	}
}

// =============================================================================
// sample
// =============================================================================

func (a *app) sampleCommand() *cli.Command {
	return &cli.Command{
		Name:      "sample",
		Usage:     "查看 sampled 位；指定 --set 时输出修改后的文本",
		ArgsUsage: "<value>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "set", Usage: "要设置的 sampled 值（--set 或 --set=false）"},
			&cli.BoolFlag{Name: "human", Usage: "以冒号分隔的可读形式输出"},
		},
		OnUsageError: onUsageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			input, err := singleArg(cmd)
			if err != nil {
				return err
			}
			md, err := xmeta.Parse(input)
			if err != nil {
				return fmt.Errorf("解析 %q: %w", input, err)
			}
			if !cmd.IsSet("set") {
				fmt.Fprintln(a.stdout, md.IsSampled())
				return nil
			}
			prev := md.SetSampled(cmd.Bool("set"))
			text, err := md.Format(cmd.Bool("human"))
			if err != nil {
				return err
			}
			if prev != md.IsSampled() {
				xlog.Debug(ctx, "sampled flag changed",
					xlog.Operation("sample"), xlog.XTrace(md))
			}
			fmt.Fprintln(a.stdout, text)
			return nil
		},
	}
}

// =============================================================================
// validate
// =============================================================================

func (a *app) validateCommand() *cli.Command {
	return &cli.Command{
		Name:         "validate",
		Usage:        "校验一个或多个 X-Trace 文本，任一无效时退出码为 1",
		ArgsUsage:    "<value>...",
		OnUsageError: onUsageError,
		// 命令没有 flag；跳过解析后空字符串参数不会截断参数列表，按 xmeta.ErrEmpty 报告。
		SkipFlagParsing: true,
		Action: func(_ context.Context, cmd *cli.Command) error {
			values := cmd.Args().Slice()
			if len(values) == 0 {
				return usagef("至少需要一个参数")
			}
			failed := 0
			for _, v := range values {
				if _, err := xmeta.Parse(v); err != nil {
					failed++
					fmt.Fprintf(a.stdout, "invalid\t%s\t%v\n", v, err)
					continue
				}
				fmt.Fprintf(a.stdout, "ok\t%s\n", v)
			}
			if failed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}

// =============================================================================
// stats
// =============================================================================

func (a *app) statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "输出元数据生命周期计数（JSON）",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "simulate",
				Usage: "先生成并释放 N 个元数据",
			},
			&cli.IntFlag{
				Name:  "hold",
				Usage: "在 simulate 之外额外保留 N 个未释放的元数据",
			},
		},
		OnUsageError: onUsageError,
		Action: func(_ context.Context, cmd *cli.Command) error {
			simulate, hold := cmd.Int("simulate"), cmd.Int("hold")
			if simulate < 0 || hold < 0 {
				return usagef("--simulate 与 --hold 不能为负数")
			}
			for range simulate {
				a.diag.Release(a.diag.Track(a.gen.Generate()))
			}
			for range hold {
				a.diag.Track(a.gen.Generate())
			}
			return a.writeJSON(a.diag.Snapshot())
		},
	}
}

// =============================================================================
// 辅助函数
// =============================================================================

func singleArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", usagef("需要且只需要一个参数，得到 %d 个", cmd.Args().Len())
	}
	return cmd.Args().First(), nil
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
