package xlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xlog"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
	"github.com/omeyang/xtracemeta/pkg/observability/xrotate"
)

func newJSONLogger(t *testing.T, buf *bytes.Buffer) xlog.LoggerWithLevel {
	t.Helper()
	logger, cleanup, err := xlog.New().SetOutput(buf).SetFormat("json").SetLevel(xlog.LevelDebug).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)
	ctx := context.Background()

	logger.Debug(ctx, "d")
	logger.Info(ctx, "i")
	logger.Warn(ctx, "w")
	logger.Error(ctx, "e", xlog.Err(errors.New("boom")))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 4)
	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.Equal(t, "ERROR", lines[3]["level"])
	assert.Equal(t, "boom", lines[3][xlog.KeyError])

	buf.Reset()
	logger.SetLevel(xlog.LevelWarn)
	assert.Equal(t, xlog.LevelWarn, logger.GetLevel())
	assert.False(t, logger.Enabled(ctx, xlog.LevelInfo))
	logger.Info(ctx, "dropped")
	assert.Empty(t, buf.String())
}

func TestLogger_EnrichesTraceMetadata(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	md := xmeta.Generate(xmeta.WithSampled(true))
	ctx, err := xctx.WithTrace(context.Background(), xctx.Trace{Metadata: md, RequestID: "req-9"})
	require.NoError(t, err)

	logger.Info(ctx, "hello")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, md.String(), lines[0][xctx.KeyXTrace])
	assert.Equal(t, true, lines[0][xctx.KeySampled])
	assert.Equal(t, "req-9", lines[0][xctx.KeyRequestID])
	assert.Len(t, lines[0][xctx.KeyTaskID], 40)
	assert.Len(t, lines[0][xctx.KeyOpID], 16)
}

func TestLogger_EnrichDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&buf).SetFormat("json").SetEnrich(false).Build()
	require.NoError(t, err)

	ctx, err := xctx.EnsureTrace(context.Background())
	require.NoError(t, err)
	logger.Info(ctx, "plain")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], xctx.KeyXTrace)
}

func TestLogger_WithAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	child := logger.With(xlog.Component("xtrace")).WithGroup("req")
	child.Info(context.Background(), "m", xlog.Method("GET"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "xtrace", lines[0][xlog.KeyComponent])
	assert.Equal(t, map[string]any{"method": "GET"}, lines[0]["req"])

	// 空参数返回自身
	assert.Same(t, logger, logger.With())
	assert.Same(t, logger, logger.WithGroup(""))
}

func TestLogger_Stack(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	logger.Stack(context.Background(), "panic recovered")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0][xlog.KeyStack], "TestLogger_Stack")
}

func TestLogger_AddSource(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&buf).SetFormat("json").SetAddSource(true).Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "where")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	src, ok := lines[0][slog.SourceKey].(map[string]any)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(src["file"].(string), "xlog_test.go"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestLogger_OnError(t *testing.T) {
	var got []error
	logger, _, err := xlog.New().
		SetOutput(failingWriter{}).
		SetOnError(func(err error) { got = append(got, err) }).
		Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "lost")
	require.Len(t, got, 1)
	assert.EqualError(t, got[0], "disk full")
	assert.Equal(t, uint64(1), xlog.ErrorCount(logger))
	assert.Equal(t, uint64(1), xlog.ErrorCount(logger.With(xlog.Path("/x"))))
}

func TestBuilder_Errors(t *testing.T) {
	_, _, err := xlog.New().SetFormat("xml").Build()
	assert.Error(t, err)

	_, _, err = xlog.New().SetLevelString("loud").Build()
	assert.Error(t, err)

	_, _, err = xlog.New().SetRotation("").Build()
	assert.ErrorIs(t, err, xrotate.ErrEmptyFilename)

	// first error wins
	_, _, err = xlog.New().SetFormat("xml").SetLevelString("loud").Build()
	assert.ErrorContains(t, err, "format")
}

func TestBuilder_Rotation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	logger, cleanup, err := xlog.New().
		SetRotation(file, xrotate.WithCompress(false)).
		SetAttrs(slog.String("service", "xmetactl")).
		Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "to file")
	require.NoError(t, cleanup())
	assert.NoError(t, cleanup(), "cleanup is idempotent")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, string(data), "service=xmetactl")
}

func TestReplaceAttr(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := xlog.New().
		SetOutput(&buf).
		SetReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}).
		Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "msg")
	assert.NotContains(t, buf.String(), "time=")
}

func TestXTraceAttr(t *testing.T) {
	md := xmeta.MustParse("20:01020304:05060708:01")
	a := xlog.XTrace(md)
	assert.Equal(t, xlog.KeyXTrace, a.Key)
	assert.Equal(t, "20010203040506070801", a.Value.String())

	assert.Equal(t, "", xlog.XTrace(xmeta.Null).Value.String())
	assert.Equal(t, slog.Attr{}, xlog.Err(nil))
}

// =============================================================================
// 全局 Logger
// =============================================================================

func TestGlobal(t *testing.T) {
	t.Cleanup(xlog.ResetDefault)

	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)
	xlog.SetDefault(logger)
	xlog.SetDefault(nil)
	assert.Same(t, logger, xlog.Default())

	ctx := context.Background()
	xlog.Debug(ctx, "d")
	xlog.Info(ctx, "i")
	xlog.Warn(ctx, "w")
	xlog.Error(ctx, "e")
	assert.Len(t, decodeLines(t, &buf), 4)

	xlog.ResetDefault()
	assert.NotNil(t, xlog.Default())
}

// =============================================================================
// 级别
// =============================================================================

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want xlog.Level
		ok   bool
	}{
		{"debug", xlog.LevelDebug, true},
		{" INFO ", xlog.LevelInfo, true},
		{"warning", xlog.LevelWarn, true},
		{"Error", xlog.LevelError, true},
		{"info+2", xlog.LevelInfo + 2, true},
		{"trace", xlog.LevelInfo, false},
		{"", xlog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := xlog.ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, err == nil, tt.in)
	}
}

func TestLevel_Text(t *testing.T) {
	var l xlog.Level
	require.NoError(t, l.UnmarshalText([]byte("warn")))
	assert.Equal(t, xlog.LevelWarn, l)
	text, err := l.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "WARN", string(text))
	assert.Error(t, l.UnmarshalText([]byte("nope")))
	assert.Equal(t, "INFO+2", (xlog.LevelInfo + 2).String())
}

// =============================================================================
// EnrichHandler
// =============================================================================

func TestNewEnrichHandler_Nil(t *testing.T) {
	_, err := xlog.NewEnrichHandler(nil)
	assert.ErrorIs(t, err, xlog.ErrNilHandler)
}

func TestEnrichHandler_NoTraceNoClone(t *testing.T) {
	var buf bytes.Buffer
	h, err := xlog.NewEnrichHandler(slog.NewTextHandler(&buf, nil))
	require.NoError(t, err)

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("a", "b")}).WithGroup("g"))
	logger.InfoContext(context.Background(), "m", "k", "v")
	assert.Contains(t, buf.String(), "a=b")
	assert.Contains(t, buf.String(), "g.k=v")
	assert.NotContains(t, buf.String(), xctx.KeyXTrace)
}

func BenchmarkLogger_Info(b *testing.B) {
	logger, _, _ := xlog.New().SetOutput(discard{}).Build()
	ctx, _ := xctx.EnsureTrace(context.Background())
	b.ReportAllocs()
	for b.Loop() {
		logger.Info(ctx, "bench")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
