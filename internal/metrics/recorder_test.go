package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]metricdata.Sum[int64])
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				sums[m.Name] = sum
			}
		}
	}
	return sums
}

func total(sum metricdata.Sum[int64]) int64 {
	var n int64
	for _, dp := range sum.DataPoints {
		n += dp.Value
	}
	return n
}

func TestRecorder_Counts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r, err := NewRecorder(provider.Meter("test"))
	require.NoError(t, err)

	r.Fragment("SYSCALL")
	r.Fragment("PATH")
	r.Fragment("PATH")
	r.Completed()
	r.Flushed(ReasonDuplicate)
	r.Flushed(ReasonDrain)
	r.Flushed(ReasonDrain)
	r.Suppressed()
	r.Rejected(ReasonMalformed)

	sums := collect(t, reader)
	assert.Equal(t, int64(3), total(sums["auditdedup.fragments"]))
	assert.Equal(t, int64(1), total(sums["auditdedup.events.completed"]))
	assert.Equal(t, int64(3), total(sums["auditdedup.events.flushed"]))
	assert.Equal(t, int64(1), total(sums["auditdedup.events.suppressed"]))
	assert.Equal(t, int64(1), total(sums["auditdedup.fragments.rejected"]))

	for _, dp := range sums["auditdedup.events.flushed"].DataPoints {
		reason, ok := dp.Attributes.Value(attribute.Key("reason"))
		require.True(t, ok)
		switch reason.AsString() {
		case ReasonDrain:
			assert.Equal(t, int64(2), dp.Value)
		case ReasonDuplicate:
			assert.Equal(t, int64(1), dp.Value)
		default:
			t.Errorf("unexpected reason %q", reason.AsString())
		}
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Fragment("SYSCALL")
		r.Completed()
		r.Flushed(ReasonDrain)
		r.Suppressed()
		r.Rejected(ReasonExhausted)
	})
}
