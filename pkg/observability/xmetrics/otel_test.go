package xmetrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// ============================================================================
// 测试辅助函数
// ============================================================================

func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exporter
}

func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

// sampledParent 20 字节 task id，8 字节 op id，已采样
var sampledParent = xmeta.MustParse("2b:0102030405060708090a0b0c0d0e0f1011121314:a1a2a3a4a5a6a7a8:01")

// ============================================================================
// Start / End
// ============================================================================

func TestOTelObserver_StartDerivesMetadata(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	ctx, err := xctx.WithTraceMetadata(context.Background(), sampledParent)
	require.NoError(t, err)

	childCtx, span := obs.Start(ctx, SpanOptions{Component: "billing", Operation: "charge", Kind: KindClient})
	child := span.TraceMetadata()

	assert.Equal(t, sampledParent.TaskID(), child.TaskID())
	assert.NotEqual(t, sampledParent.OpID(), child.OpID())
	assert.True(t, child.IsSampled())
	assert.True(t, child.Equal(xctx.TraceMetadata(childCtx)))
	assert.True(t, sampledParent.Equal(xctx.TraceMetadata(ctx)), "parent ctx untouched")

	span.End(Result{})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "charge", s.Name)
	assert.Equal(t, trace.SpanKindClient, s.SpanKind)

	v, ok := spanAttr(s.Attributes, AttrXTrace)
	require.True(t, ok)
	assert.Equal(t, child.String(), v.AsString())

	// 远程父跨度来自元数据
	assert.True(t, s.Parent.IsRemote())
	assert.Equal(t, trace.TraceID(sampledParent.TaskID()[:16]), s.Parent.TraceID())
	assert.Equal(t, trace.SpanID(sampledParent.OpID()), s.Parent.SpanID())
	assert.True(t, s.SpanContext.IsSampled())
	assert.Equal(t, s.Parent.TraceID(), s.SpanContext.TraceID())
}

func TestOTelObserver_StartWithoutMetadata(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	//nolint:staticcheck // 测试 nil ctx
	ctx, span := obs.Start(nil, SpanOptions{})
	require.NotNil(t, ctx)
	md := span.TraceMetadata()
	assert.True(t, md.IsValid())
	assert.False(t, md.IsSampled())
	span.End(Result{})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, unknownOperation, spans[0].Name)
	assert.False(t, spans[0].Parent.IsValid())
}

func TestOTelObserver_ExistingOTelParentKept(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "root")
	ctx, err = xctx.WithTraceMetadata(ctx, sampledParent)
	require.NoError(t, err)

	_, span := obs.Start(ctx, SpanOptions{Operation: "child"})
	span.End(Result{})
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent.SpanID())
}

func TestOTelSpan_EndStatus(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		result Result
		code   codes.Code
		events int
	}{
		{"ok", Result{}, codes.Ok, 0},
		{"err", Result{Err: boom}, codes.Error, 1},
		{"explicit error", Result{Status: StatusError}, codes.Error, 0},
		{"err with ok status", Result{Status: StatusOK, Err: boom}, codes.Ok, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, exporter := newTestTracerProvider(t)
			obs, err := NewOTelObserver(WithTracerProvider(tp))
			require.NoError(t, err)

			_, span := obs.Start(context.Background(), SpanOptions{Operation: "op"})
			span.End(tt.result)
			span.End(Result{Err: boom}) // 幂等

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.code, spans[0].Status.Code)
			assert.Len(t, spans[0].Events, tt.events)
		})
	}
}

func TestOTelSpan_Metrics(t *testing.T) {
	tp, _ := newTestTracerProvider(t)
	mp, reader := newTestMeterProvider(t)
	diag := xmeta.NewDiagnostics()
	obs, err := NewOTelObserver(WithTracerProvider(tp), WithMeterProvider(mp), WithDiagnostics(diag))
	require.NoError(t, err)

	ctx, err := xctx.WithTraceMetadata(context.Background(), sampledParent)
	require.NoError(t, err)

	_, span := obs.Start(ctx, SpanOptions{Component: "c", Operation: "o", Attrs: []Attr{Int("n", 1)}})
	assert.Equal(t, int64(1), diag.Snapshot().Active)
	span.End(Result{Attrs: []Attr{Duration("wait_ns", time.Millisecond)}})
	span.End(Result{})
	assert.Equal(t, xmeta.Stats{FreedBytes: xmeta.RecordSize, FreedCount: 1}, diag.Snapshot())

	metrics := collect(t, reader)
	total, ok := metrics[metricOperationTotal].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 1)
	dp := total.DataPoints[0]
	assert.Equal(t, int64(1), dp.Value)
	status, _ := dp.Attributes.Value("status")
	assert.Equal(t, "ok", status.AsString())
	sampled, _ := dp.Attributes.Value(AttrSampled)
	assert.True(t, sampled.AsBool())

	hist, ok := metrics[metricOperationDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

// ============================================================================
// EventCreator
// ============================================================================

func TestOTelObserver_CreateEvent(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	event, err := xmeta.CreateEvent(obs, sampledParent)
	require.NoError(t, err)

	md := event.TraceMetadata()
	assert.Equal(t, sampledParent.TaskID(), md.TaskID())
	assert.True(t, md.IsSampled())

	sampled, ok := xmeta.SampledOf(xmeta.EventSource{Event: event})
	assert.True(t, ok)
	assert.True(t, sampled)

	require.Len(t, exporter.GetSpans(), 1)
	assert.Equal(t, "event", exporter.GetSpans()[0].Name)

	_, err = xmeta.CreateEvent(obs, xmeta.Null)
	assert.Error(t, err)
}

// ============================================================================
// SpanContextOf
// ============================================================================

func TestSpanContextOf(t *testing.T) {
	sc, ok := SpanContextOf(sampledParent)
	require.True(t, ok)
	assert.True(t, sc.IsRemote())
	assert.True(t, sc.IsSampled())
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", sc.TraceID().String())
	assert.Equal(t, "a1a2a3a4a5a6a7a8", sc.SpanID().String())

	short := xmeta.MustParse("21:0102030405060708:a1a2a3a4:00")
	_, ok = SpanContextOf(short)
	assert.False(t, ok)

	_, ok = SpanContextOf(xmeta.Null)
	assert.False(t, ok)
}

func TestToKeyValue(t *testing.T) {
	tests := []struct {
		attr Attr
		want attribute.KeyValue
	}{
		{String("s", "v"), attribute.String("s", "v")},
		{Bool("b", true), attribute.Bool("b", true)},
		{Int("i", 3), attribute.Int("i", 3)},
		{Int64("i64", 4), attribute.Int64("i64", 4)},
		{Any("u", uint64(5)), attribute.Int64("u", 5)},
		{Any("big", uint64(1<<63)), attribute.String("big", "9223372036854775808")},
		{Float64("f", 1.5), attribute.Float64("f", 1.5)},
		{Duration("d", time.Second), attribute.Int64("d", int64(time.Second))},
		{Any("md", sampledParent), attribute.String("md", sampledParent.String())},
		{Any("x", struct{ A int }{1}), attribute.String("x", "{1}")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toKeyValue(tt.attr), tt.attr.Key)
	}

	got := attrsToOTel([]Attr{{Key: ""}, {Key: "nil"}, XTrace(xmeta.Null), XTrace(sampledParent)})
	require.Len(t, got, 1)
	assert.Equal(t, AttrXTrace, string(got[0].Key))
	assert.Nil(t, attrsToOTel(nil))
}
