package testutils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// NewMeterProvider returns a provider whose metrics are read on demand through reader
func NewMeterProvider() (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), reader
}

// FindMetric collects reader and returns the metric called name
func FindMetric(t testing.TB, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// SumInt64 returns the total of an int64 counter across all attribute sets, zero if absent
func SumInt64(t testing.TB, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()

	m, ok := FindMetric(t, reader, name)
	if !ok {
		return 0
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

// HistogramCount returns how many values a float64 histogram recorded, zero if absent
func HistogramCount(t testing.TB, reader *sdkmetric.ManualReader, name string) uint64 {
	t.Helper()

	m, ok := FindMetric(t, reader, name)
	if !ok {
		return 0
	}
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "metric %s is not a float64 histogram", name)

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	return count
}
