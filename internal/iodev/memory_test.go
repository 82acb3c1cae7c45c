package iodev

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mayastor-io/io-engine-core/internal/metrics"
)

func TestMemoryDeviceOpenReturnsIndependentHandles(t *testing.T) {
	d := NewMemoryDevice("A", 4096)
	w, r, err := d.Open()
	require.NoError(t, err)
	require.Equal(t, "A", w.DeviceName())
	require.Equal(t, "A", r.DeviceName())

	_, err = w.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)

	buf := make([]byte, 5)
	n, err := r.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))
}

func TestMemoryDeviceClosingOneHandleLeavesSiblingUsable(t *testing.T) {
	d := NewMemoryDevice("A", 4096)
	w, r, err := d.Open()
	require.NoError(t, err)

	require.NoError(t, w.Close())
	_, err = w.WriteAt([]byte("x"), 0)
	require.Error(t, err)

	// The reader handle shares the buffer but is independently owned.
	_, err = r.ReadAt(make([]byte, 1), 0)
	require.NoError(t, err)
}

func TestMemoryDeviceWriteBeyondSizeErrors(t *testing.T) {
	d := NewMemoryDevice("A", 16)
	w, _, err := d.Open()
	require.NoError(t, err)

	_, err = w.WriteAt([]byte("x"), 100)
	require.Error(t, err)
}

func TestMemoryDeviceReadBeyondSizeReturnsZero(t *testing.T) {
	d := NewMemoryDevice("A", 16)
	_, r, err := d.Open()
	require.NoError(t, err)

	n, err := r.ReadAt(make([]byte, 4), 100)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestMemoryDeviceRecordsMetricsWhenAttached(t *testing.T) {
	d := NewMemoryDevice("A", 4096)
	d.Metrics = &metrics.ChildMetrics{}

	w, r, err := d.Open()
	require.NoError(t, err)

	_, err = w.WriteAt([]byte("hi"), 0)
	require.NoError(t, err)
	_, err = r.ReadAt(make([]byte, 2), 0)
	require.NoError(t, err)

	snap := d.Metrics.Snapshot()
	require.Equal(t, uint64(1), snap.WriteOps)
	require.Equal(t, uint64(1), snap.ReadOps)
}

func TestMemoryDeviceCrossesShardBoundary(t *testing.T) {
	d := NewMemoryDevice("A", memoryShardSize*3)
	w, r, err := d.Open()
	require.NoError(t, err)

	buf := make([]byte, 256)
	for i := range buf {
		buf[i] = byte(i)
	}
	off := int64(memoryShardSize - 64)
	_, err = w.WriteAt(buf, off)
	require.NoError(t, err)

	readBack := make([]byte, 256)
	_, err = r.ReadAt(readBack, off)
	require.NoError(t, err)
	require.Equal(t, buf, readBack)
}
