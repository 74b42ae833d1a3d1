package xmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

func TestRegisterDiagnostics(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	meter := mp.Meter("test")
	diag := xmeta.NewDiagnostics()

	reg, err := RegisterDiagnostics(meter, diag)
	require.NoError(t, err)

	a := diag.Track(xmeta.Generate())
	diag.Track(xmeta.Generate())
	diag.Release(a)

	metrics := collect(t, reader)

	active, ok := metrics[MetricMetadataActive].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(1), active.DataPoints[0].Value)

	freedBytes, ok := metrics[MetricMetadataFreedBytes].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.True(t, freedBytes.IsMonotonic)
	assert.Equal(t, int64(xmeta.RecordSize), freedBytes.DataPoints[0].Value)

	freedCount, ok := metrics[MetricMetadataFreedCount].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), freedCount.DataPoints[0].Value)

	require.NoError(t, reg.Unregister())
	assert.NotContains(t, collect(t, reader), MetricMetadataActive)
}

func TestRegisterDiagnostics_Nil(t *testing.T) {
	mp, _ := newTestMeterProvider(t)

	_, err := RegisterDiagnostics(nil, xmeta.NewDiagnostics())
	assert.ErrorIs(t, err, ErrNilMeter)

	_, err = RegisterDiagnostics(mp.Meter("test"), nil)
	assert.ErrorIs(t, err, ErrNilDiagnostics)
}
