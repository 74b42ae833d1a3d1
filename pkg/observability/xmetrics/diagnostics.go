package xmetrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// 诊断指标名称
const (
	MetricMetadataActive     = "xtracemeta.metadata.active"
	MetricMetadataFreedBytes = "xtracemeta.metadata.freed_bytes"
	MetricMetadataFreedCount = "xtracemeta.metadata.freed_count"
)

// RegisterDiagnostics 将 xmeta.Diagnostics 注册为可观测仪表，每次采集时读取一次 Snapshot。
//
// active 为 gauge，freed_bytes 与 freed_count 为单调 counter。
// 返回的 Registration 用于注销回调。
func RegisterDiagnostics(meter metric.Meter, d *xmeta.Diagnostics) (metric.Registration, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if d == nil {
		return nil, ErrNilDiagnostics
	}

	active, err := meter.Int64ObservableGauge(
		MetricMetadataActive,
		metric.WithDescription("tracked metadata values not yet released"),
		metric.WithUnit("{metadata}"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, MetricMetadataActive, err)
	}
	freedBytes, err := meter.Int64ObservableCounter(
		MetricMetadataFreedBytes,
		metric.WithDescription("bytes released by metadata values"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, MetricMetadataFreedBytes, err)
	}
	freedCount, err := meter.Int64ObservableCounter(
		MetricMetadataFreedCount,
		metric.WithDescription("metadata values released"),
		metric.WithUnit("{metadata}"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, MetricMetadataFreedCount, err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := d.Snapshot()
		o.ObserveInt64(active, s.Active)
		o.ObserveInt64(freedBytes, s.FreedBytes)
		o.ObserveInt64(freedCount, s.FreedCount)
		return nil
	}, active, freedBytes, freedCount)
}
