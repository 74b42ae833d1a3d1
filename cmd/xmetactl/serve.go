package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xtracemeta/pkg/config/xconf"
	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xlog"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
	"github.com/omeyang/xtracemeta/pkg/observability/xmetrics"
	"github.com/omeyang/xtracemeta/pkg/observability/xtrace"
)

const (
	instrumentationName = "github.com/omeyang/xtracemeta/cmd/xmetactl"
	shutdownTimeout     = 5 * time.Second
	readHeaderTimeout   = 5 * time.Second
)

func (a *app) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "启动演示 HTTP 服务：传播 X-Trace，/stats 输出生命周期计数",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "监听地址，覆盖配置文件 serve.addr"},
		},
		OnUsageError: onUsageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			addr := a.settings.Serve.Addr
			if v := cmd.String("addr"); v != "" {
				addr = v
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return a.serve(ctx, ln)
		},
	}
}

// serve 在 ln 上提供服务直到 ctx 取消，随后优雅关闭。
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	p, err := xtrace.NewFromConfig(a.settings.Trace,
		xtrace.WithGenerator(a.gen),
		xtrace.WithDiagnostics(a.diag),
		xtrace.WithLogger(a.logger),
	)
	if err != nil {
		return errors.Join(err, ln.Close())
	}
	defer p.Close()

	observer, err := xmetrics.NewOTelObserver(
		xmetrics.WithInstrumentationName(instrumentationName),
		xmetrics.WithGenerator(a.gen),
		xmetrics.WithDiagnostics(a.diag),
	)
	if err != nil {
		return errors.Join(err, ln.Close())
	}
	reg, err := xmetrics.RegisterDiagnostics(otel.GetMeterProvider().Meter(instrumentationName), a.diag)
	if err != nil {
		return errors.Join(err, ln.Close())
	}
	defer func() {
		if uerr := reg.Unregister(); uerr != nil {
			xlog.Warn(ctx, "unregister diagnostics", xlog.Err(uerr))
		}
	}()

	if stop := a.watchConfig(ctx); stop != nil {
		defer stop()
	}

	srv := &http.Server{
		Handler:           newServeHandler(p, observer, a.diag),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		xlog.Info(ctx, "serving", xlog.Component("xmetactl"), slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = g.Wait()
	xlog.Info(ctx, "server stopped", xlog.Component("xmetactl"))
	return err
}

// watchConfig 在配置文件变更时重新应用日志级别，未指定配置文件时返回 nil。
func (a *app) watchConfig(ctx context.Context) func() {
	if a.cfg == nil {
		return nil
	}
	w, err := xconf.Watch(a.cfg, func(cfg xconf.Config, err error) {
		if err != nil {
			xlog.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		a.applyReload(ctx, cfg)
	})
	if err != nil {
		xlog.Warn(ctx, "config watch disabled", xlog.Err(err))
		return nil
	}
	w.Start()
	return func() {
		if err := w.Stop(); err != nil {
			xlog.Warn(ctx, "stop config watcher", xlog.Err(err))
		}
	}
}

// applyReload 只热更新日志级别，其余字段需重启生效。
func (a *app) applyReload(ctx context.Context, cfg xconf.Config) {
	s := defaultSettings()
	if err := cfg.Unmarshal("", &s); err != nil {
		xlog.Warn(ctx, "config reload: decode", xlog.Err(err))
		return
	}
	level, err := xlog.ParseLevel(s.Log.Level)
	if err != nil {
		xlog.Warn(ctx, "config reload: log level", xlog.Err(err))
		return
	}
	a.logger.SetLevel(level)
	xlog.Info(ctx, "log level reloaded", slog.String("level", level.String()))
}

// newServeHandler 组装演示服务的路由，外层由 Propagator 中间件处理 X-Trace。
//
//	GET /trace    返回本次请求的元数据（JSON）
//	GET /stats    返回 Diagnostics 快照（JSON）
//	GET /healthz  返回 ok
func newServeHandler(p *xtrace.Propagator, observer xmetrics.Observer, diag *xmeta.Diagnostics) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /trace", func(w http.ResponseWriter, r *http.Request) {
		ctx, span := xmetrics.Start(r.Context(), observer, xmetrics.SpanOptions{
			Component: "xmetactl",
			Operation: "trace",
			Kind:      xmetrics.KindServer,
		})
		err := writeJSONResponse(w, traceResponse(ctx, span.TraceMetadata()))
		span.End(xmetrics.Result{Err: err})
	})
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		if err := writeJSONResponse(w, diag.Snapshot()); err != nil {
			xlog.Warn(r.Context(), "write stats", xlog.Err(err))
		}
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return p.HTTPMiddleware()(mux)
}

// traceView /trace 的响应体。
type traceView struct {
	XTrace    string `json:"x_trace"`
	Child     string `json:"child"`
	Sampled   bool   `json:"sampled"`
	RequestID string `json:"request_id"`
}

func traceResponse(ctx context.Context, child xmeta.Metadata) traceView {
	return traceView{
		XTrace:    xctx.TraceMetadata(ctx).String(),
		Child:     child.String(),
		Sampled:   child.IsSampled(),
		RequestID: xctx.RequestID(ctx),
	}
}

func writeJSONResponse(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}
