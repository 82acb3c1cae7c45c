// Package metrics provides atomic counters and latency histograms for
// reactor and nexus-child observability, in the same shape the teacher
// uses for device-level metrics: plain atomics plus a fixed set of
// latency buckets, snapshotted on demand rather than pushed anywhere.
package metrics

import "sync/atomic"

// LatencyBuckets are cumulative latency histogram boundaries in
// nanoseconds, from 1us to 10s.
var LatencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// ReactorMetrics tracks health-monitor observations for one reactor:
// how many times it has been marked frozen, how many times it has
// recovered, and the owed-heartbeat delta recorded at its most recent
// freeze (reset to zero on recovery).
type ReactorMetrics struct {
	FrozenCount    atomic.Uint64
	RecoveredCount atomic.Uint64
	LastDelta      atomic.Uint64
}

// ObserveFrozen records a freeze transition.
func (m *ReactorMetrics) ObserveFrozen(delta uint64) {
	m.FrozenCount.Add(1)
	m.LastDelta.Store(delta)
}

// ObserveRecovered records a recovery transition.
func (m *ReactorMetrics) ObserveRecovered() {
	m.RecoveredCount.Add(1)
	m.LastDelta.Store(0)
}

// ReactorSnapshot is a point-in-time read of a ReactorMetrics.
type ReactorSnapshot struct {
	FrozenCount    uint64
	RecoveredCount uint64
	LastDelta      uint64
}

// Snapshot reads every counter.
func (m *ReactorMetrics) Snapshot() ReactorSnapshot {
	return ReactorSnapshot{
		FrozenCount:    m.FrozenCount.Load(),
		RecoveredCount: m.RecoveredCount.Load(),
		LastDelta:      m.LastDelta.Load(),
	}
}

// ChildMetrics tracks I/O volume, errors, and latency for one nexus
// child's acquired handles.
type ChildMetrics struct {
	ReadOps  atomic.Uint64
	WriteOps atomic.Uint64

	ReadBytes  atomic.Uint64
	WriteBytes atomic.Uint64

	ReadErrors  atomic.Uint64
	WriteErrors atomic.Uint64

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	LatencyHistogram [numLatencyBuckets]atomic.Uint64

	FailFast atomic.Uint64
}

// RecordRead records one read of bytes taking latencyNs.
func (m *ChildMetrics) RecordRead(bytes uint64, latencyNs uint64, err error) {
	m.ReadOps.Add(1)
	if err != nil {
		m.ReadErrors.Add(1)
	} else {
		m.ReadBytes.Add(bytes)
	}
	m.recordLatency(latencyNs)
}

// RecordWrite records one write of bytes taking latencyNs.
func (m *ChildMetrics) RecordWrite(bytes uint64, latencyNs uint64, err error) {
	m.WriteOps.Add(1)
	if err != nil {
		m.WriteErrors.Add(1)
	} else {
		m.WriteBytes.Add(bytes)
	}
	m.recordLatency(latencyNs)
}

// RecordSubmitFailure bumps this child's consecutive-submission-failure
// counter and returns the new count. It is separate from the nexus
// channel's own fail-fast counter.
func (m *ChildMetrics) RecordSubmitFailure() uint64 {
	return m.FailFast.Add(1)
}

// ResetFailFast clears the consecutive-failure counter after a
// successful submission.
func (m *ChildMetrics) ResetFailFast() {
	m.FailFast.Store(0)
}

func (m *ChildMetrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyHistogram[i].Add(1)
		}
	}
}

// ChildSnapshot is a point-in-time read of a ChildMetrics.
type ChildSnapshot struct {
	ReadOps, WriteOps               uint64
	ReadBytes, WriteBytes           uint64
	ReadErrors, WriteErrors         uint64
	AvgLatencyNs                    uint64
	FailFast                        uint64
	LatencyHistogram [numLatencyBuckets]uint64
}

// Snapshot reads every counter and derives the average latency.
func (m *ChildMetrics) Snapshot() ChildSnapshot {
	snap := ChildSnapshot{
		ReadOps:     m.ReadOps.Load(),
		WriteOps:    m.WriteOps.Load(),
		ReadBytes:   m.ReadBytes.Load(),
		WriteBytes:  m.WriteBytes.Load(),
		ReadErrors:  m.ReadErrors.Load(),
		WriteErrors: m.WriteErrors.Load(),
		FailFast:    m.FailFast.Load(),
	}
	if opCount := m.OpCount.Load(); opCount > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / opCount
	}
	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyHistogram[i].Load()
	}
	return snap
}
