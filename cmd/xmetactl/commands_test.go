package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xtracemeta/pkg/config/xconf"
	"github.com/omeyang/xtracemeta/pkg/observability/xlog"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
	"github.com/omeyang/xtracemeta/pkg/observability/xmetrics"
	"github.com/omeyang/xtracemeta/pkg/observability/xtrace"
)

const (
	sampledValue   = "2b1111111111111111111111111111111111111111222222222222222201"
	unsampledValue = "2b1111111111111111111111111111111111111111222222222222222200"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	t.Cleanup(xlog.ResetDefault)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"xmetactl"}, args...), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// =============================================================================
// generate
// =============================================================================

func TestGenerate_Default(t *testing.T) {
	r := runCLI(t, "generate")
	require.Equal(t, 0, r.code, r.stderr)

	out := lines(r.stdout)
	require.Len(t, out, 1)
	md, err := xmeta.Parse(out[0])
	require.NoError(t, err)
	assert.Equal(t, xmeta.DefaultTaskIDLen, md.TaskIDLen())
	assert.Equal(t, xmeta.DefaultOpIDLen, md.OpIDLen())
	// 默认配置全采样
	assert.True(t, md.IsSampled())
}

func TestGenerate_ExplicitSampled(t *testing.T) {
	r := runCLI(t, "generate", "--sampled=false", "--count", "3", "--human")
	require.Equal(t, 0, r.code, r.stderr)

	out := lines(r.stdout)
	require.Len(t, out, 3)
	seen := make(map[string]bool)
	for _, v := range out {
		assert.Contains(t, v, ":")
		md, err := xmeta.Parse(v)
		require.NoError(t, err)
		assert.False(t, md.IsSampled())
		seen[string(md.TaskID())] = true
	}
	assert.Len(t, seen, 3, "task id 不应重复")
}

func TestGenerate_InvalidCount(t *testing.T) {
	for _, n := range []string{"0", "-1", "10001"} {
		t.Run(n, func(t *testing.T) {
			r := runCLI(t, "generate", "--count", n)
			assert.Equal(t, 2, r.code)
			assert.Contains(t, r.stderr, "--count")
		})
	}
}

func TestGenerate_ConfigLengthsAndRate(t *testing.T) {
	path := writeFile(t, "xmetactl.yaml", `
generator:
  task_id_len: 12
  op_id_len: 4
trace:
  sample_rate: 0
`)
	r := runCLI(t, "-c", path, "generate", "-n", "5")
	require.Equal(t, 0, r.code, r.stderr)

	for _, v := range lines(r.stdout) {
		md, err := xmeta.Parse(v)
		require.NoError(t, err)
		assert.Equal(t, 12, md.TaskIDLen())
		assert.Equal(t, 4, md.OpIDLen())
		assert.False(t, md.IsSampled(), "sample_rate 0 不应采样")
	}
}

// =============================================================================
// parse / format / sample / validate
// =============================================================================

func TestParse(t *testing.T) {
	r := runCLI(t, "parse", "2b:11111111:11111111:11111111:11111111:11111111:22222222:22222222:01")
	require.Equal(t, 0, r.code, r.stderr)

	var view parsedView
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &view))
	assert.Equal(t, uint8(2), view.Version)
	assert.Equal(t, "2b", view.Descriptor)
	assert.Equal(t, strings.Repeat("11", 20), view.TaskID)
	assert.Equal(t, 20, view.TaskIDLen)
	assert.Equal(t, strings.Repeat("22", 8), view.OpID)
	assert.Equal(t, 8, view.OpIDLen)
	assert.Equal(t, "01", view.Flags)
	assert.True(t, view.Sampled)
	assert.Equal(t, 30, view.PackedLen)
	assert.Equal(t, sampledValue, view.Canonical)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"无参数", []string{"parse"}, 2},
		{"多个参数", []string{"parse", sampledValue, sampledValue}, 2},
		{"非法十六进制", []string{"parse", "2bzz"}, 1},
		{"长度不匹配", []string{"parse", "2b1111"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, tt.args...)
			assert.Equal(t, tt.code, r.code)
			assert.Empty(t, r.stdout)
			assert.NotEmpty(t, r.stderr)
		})
	}
}

func TestFormat(t *testing.T) {
	r := runCLI(t, "format", "--human", sampledValue)
	require.Equal(t, 0, r.code, r.stderr)
	human := strings.TrimSpace(r.stdout)
	assert.True(t, strings.HasPrefix(human, "2b:"))

	r = runCLI(t, "format", human)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, sampledValue, strings.TrimSpace(r.stdout))
}

func TestSample(t *testing.T) {
	r := runCLI(t, "sample", sampledValue)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "true", strings.TrimSpace(r.stdout))

	r = runCLI(t, "sample", "--set=false", sampledValue)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, unsampledValue, strings.TrimSpace(r.stdout))

	r = runCLI(t, "sample", "--set", unsampledValue)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, sampledValue, strings.TrimSpace(r.stdout))
}

func TestValidate(t *testing.T) {
	r := runCLI(t, "validate", sampledValue, unsampledValue)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Len(t, lines(r.stdout), 2)

	r = runCLI(t, "validate", sampledValue, "", "2b00")
	assert.Equal(t, 1, r.code)
	out := lines(r.stdout)
	require.Len(t, out, 3)
	assert.True(t, strings.HasPrefix(out[0], "ok\t"))
	assert.True(t, strings.HasPrefix(out[1], "invalid\t"))
	assert.True(t, strings.HasPrefix(out[2], "invalid\t"))

	r = runCLI(t, "validate")
	assert.Equal(t, 2, r.code)
}

func TestValidate_EmptyValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"空值在中间", []string{sampledValue, "", "2b00"}, []string{"ok", "invalid", "invalid"}},
		{"空值在最前", []string{"", "2b00"}, []string{"invalid", "invalid"}},
		{"只有空值", []string{""}, []string{"invalid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, append([]string{"validate"}, tt.args...)...)
			assert.Equal(t, 1, r.code, r.stderr)

			out := lines(r.stdout)
			require.Len(t, out, len(tt.want))
			for i, status := range tt.want {
				fields := strings.Split(out[i], "\t")
				assert.Equal(t, status, fields[0], out[i])
				assert.Equal(t, tt.args[i], fields[1], out[i])
			}
			for i, v := range tt.args {
				if v == "" {
					assert.Contains(t, out[i], xmeta.ErrEmpty.Error())
				}
			}
		})
	}
}

// =============================================================================
// stats
// =============================================================================

func TestStats(t *testing.T) {
	r := runCLI(t, "stats", "--simulate", "3", "--hold", "2")
	require.Equal(t, 0, r.code, r.stderr)

	var s xmeta.Stats
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &s))
	assert.Equal(t, int64(2), s.Active)
	assert.Equal(t, int64(3), s.FreedCount)
	assert.Equal(t, int64(3*xmeta.RecordSize), s.FreedBytes)
	assert.Contains(t, r.stdout, `"freedBytes"`)

	r = runCLI(t, "stats", "--simulate", "-1")
	assert.Equal(t, 2, r.code)
}

// =============================================================================
// 全局选项
// =============================================================================

func TestGlobalFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"非法日志级别", []string{"--log-level", "verbose", "generate"}, 2},
		{"未知 flag", []string{"generate", "--no-such-flag"}, 2},
		{"配置文件不存在", []string{"-c", "/nonexistent/xmetactl.yaml", "generate"}, 1},
		{"不支持的配置格式", []string{"-c", "xmetactl.toml", "generate"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, tt.args...)
			assert.Equal(t, tt.code, r.code, r.stderr)
		})
	}
}

func TestGlobalFlags_InvalidTraceConfig(t *testing.T) {
	path := writeFile(t, "xmetactl.json", `{"trace": {"sample_rate": 2}}`)
	r := runCLI(t, "--config", path, "generate")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "xtrace")
}

func TestGlobalFlags_LogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "xmetactl.log")
	r := runCLI(t, "--log-level", "debug", "--log-format", "json", "--log-file", logFile, "generate")
	require.Equal(t, 0, r.code, r.stderr)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"generated x-trace metadata"`)
	assert.Contains(t, string(data), `"service":"xmetactl"`)
	assert.Empty(t, r.stderr)
}

// =============================================================================
// serve
// =============================================================================

func newTestApp(t *testing.T) *app {
	t.Helper()
	t.Cleanup(xlog.ResetDefault)
	var stderr bytes.Buffer
	a := &app{stdout: &bytes.Buffer{}, stderr: &stderr, diag: xmeta.NewDiagnostics()}
	a.settings = defaultSettings()
	gen, err := a.settings.newGenerator()
	require.NoError(t, err)
	a.gen = gen
	logger, cleanup, err := a.newLogger(a.settings.Log)
	require.NoError(t, err)
	a.logger = logger
	t.Cleanup(func() { _ = cleanup() })
	return a
}

func TestServeHandler(t *testing.T) {
	diag := xmeta.NewDiagnostics()
	p := xtrace.New(xtrace.WithDiagnostics(diag))
	t.Cleanup(p.Close)
	h := newServeHandler(p, xmetrics.NoopObserver{}, diag)

	t.Run("沿用并派生入站值", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/trace", nil)
		req.Header.Set(xtrace.HeaderXTrace, sampledValue)
		req.Header.Set(xtrace.HeaderRequestID, "req-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var view traceView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.True(t, view.Sampled)
		assert.Equal(t, "req-1", view.RequestID)

		md, err := xmeta.Parse(view.XTrace)
		require.NoError(t, err)
		parent := xmeta.MustParse(sampledValue)
		assert.Equal(t, parent.TaskID(), md.TaskID())
		assert.NotEqual(t, parent.OpID(), md.OpID(), "应派生新的 op id")
		assert.Equal(t, view.XTrace, rec.Header().Get(xtrace.HeaderXTrace))
	})

	t.Run("缺失时生成", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trace", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		_, err := xmeta.Parse(rec.Header().Get(xtrace.HeaderXTrace))
		assert.NoError(t, err)
	})

	t.Run("stats", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var s xmeta.Stats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
		// /stats 本身持有一个元数据
		assert.Equal(t, int64(1), s.Active)
		assert.Equal(t, int64(2), s.FreedCount)
	})

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, "ok\n", rec.Body.String())
	})
}

func TestServe_GracefulShutdown(t *testing.T) {
	a := newTestApp(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(xtrace.HeaderXTrace))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestApplyReload(t *testing.T) {
	a := newTestApp(t)
	cfg, err := xconf.NewFromBytes([]byte("log:\n  level: error\n"), xconf.FormatYAML)
	require.NoError(t, err)

	a.applyReload(context.Background(), cfg)
	assert.Equal(t, xlog.LevelError, a.logger.GetLevel())

	bad, err := xconf.NewFromBytes([]byte("log:\n  level: loud\n"), xconf.FormatYAML)
	require.NoError(t, err)
	a.applyReload(context.Background(), bad)
	assert.Equal(t, xlog.LevelError, a.logger.GetLevel(), "无效级别不应生效")
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "exit status 3", (&exitError{code: 3}).Error())
	assert.Equal(t, "bad", (&usageError{msg: "bad"}).Error())
}
