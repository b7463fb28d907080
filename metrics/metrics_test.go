package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestObserveUpdatesGauges(t *testing.T) {
	c := NewCollector("blockgrid", "array")
	c.Observe(Snapshot{
		NumBlocks:               3,
		SizeBytes:               4096,
		DirtyBlocks:             1,
		AverageCompressionRatio: 2.5,
	})

	require.Equal(t, float64(3), gaugeValue(t, c.numBlocks))
	require.Equal(t, float64(4096), gaugeValue(t, c.sizeBytes))
	require.Equal(t, float64(1), gaugeValue(t, c.dirtyBlocks))
	require.Equal(t, 2.5, gaugeValue(t, c.compression))
}

func TestStartOperationRecordsLatency(t *testing.T) {
	c := NewCollector("", "")
	stop := c.StartOperation(ReadOperation)
	stop()

	require.GreaterOrEqual(t, c.ReadLatencyPercentile(50), time.Duration(0))
}
