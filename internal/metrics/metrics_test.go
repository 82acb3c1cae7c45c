package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReactorMetricsObserveFrozenAndRecovered(t *testing.T) {
	m := &ReactorMetrics{}
	m.ObserveFrozen(5)
	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.FrozenCount)
	require.Equal(t, uint64(5), snap.LastDelta)

	m.ObserveRecovered()
	snap = m.Snapshot()
	require.Equal(t, uint64(1), snap.RecoveredCount)
	require.Equal(t, uint64(0), snap.LastDelta)
}

func TestChildMetricsRecordReadAndWrite(t *testing.T) {
	m := &ChildMetrics{}
	m.RecordRead(512, 2_000, nil)
	m.RecordWrite(256, 50_000, nil)

	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.ReadOps)
	require.Equal(t, uint64(512), snap.ReadBytes)
	require.Equal(t, uint64(1), snap.WriteOps)
	require.Equal(t, uint64(256), snap.WriteBytes)
	require.Greater(t, snap.AvgLatencyNs, uint64(0))
}

func TestChildMetricsRecordsErrorsSeparately(t *testing.T) {
	m := &ChildMetrics{}
	m.RecordRead(0, 1_000, errors.New("boom"))

	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.ReadOps)
	require.Equal(t, uint64(0), snap.ReadBytes)
	require.Equal(t, uint64(1), snap.ReadErrors)
}

func TestChildMetricsFailFastResetsOnSuccess(t *testing.T) {
	m := &ChildMetrics{}
	m.RecordSubmitFailure()
	m.RecordSubmitFailure()
	require.Equal(t, uint64(2), m.Snapshot().FailFast)

	m.ResetFailFast()
	require.Equal(t, uint64(0), m.Snapshot().FailFast)
}

func TestChildMetricsLatencyHistogramBucketsAreCumulative(t *testing.T) {
	m := &ChildMetrics{}
	m.RecordRead(1, 500, nil) // falls in every bucket >= 1us

	snap := m.Snapshot()
	for _, count := range snap.LatencyHistogram {
		require.Equal(t, uint64(1), count)
	}
}
