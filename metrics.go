package uringrt

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the completion-latency histogram buckets in
// nanoseconds, from 1us to 10s with logarithmic spacing.
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

// Metrics tracks the operational counters of a running Executor: task
// lifecycle events, dispatched completions, channel traffic and I/O bytes
// moved, plus a completion-latency histogram.
type Metrics struct {
	TasksSpawned          atomic.Uint64
	TasksCompleted        atomic.Uint64
	CompletionsDispatched atomic.Uint64

	ChannelSends atomic.Uint64
	ChannelRecvs atomic.Uint64

	ReadBytes  atomic.Uint64
	WriteBytes atomic.Uint64

	ReadErrors  atomic.Uint64
	WriteErrors atomic.Uint64

	TotalLatencyNs atomic.Uint64
	LatencyOpCount atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a zeroed Metrics with its start time stamped now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordRead records a completed read: its byte count (0 at end-of-stream
// counts as a success, not an error), latency and outcome.
func (m *Metrics) RecordRead(bytes uint64, latencyNs uint64, success bool) {
	if success {
		m.ReadBytes.Add(bytes)
	} else {
		m.ReadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordWrite records a completed write.
func (m *Metrics) RecordWrite(bytes uint64, latencyNs uint64, success bool) {
	if success {
		m.WriteBytes.Add(bytes)
	} else {
		m.WriteErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordChannelSend records a Sender.Send call.
func (m *Metrics) RecordChannelSend() {
	m.ChannelSends.Add(1)
}

// RecordChannelRecv records a Receiver.Recv resolving with a value.
func (m *Metrics) RecordChannelRecv() {
	m.ChannelRecvs.Add(1)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.LatencyOpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop stamps the stop time, fixing Snapshot's uptime computation at the
// moment Stop is called. Executor.Run does not call it.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of Metrics with derived rates.
type MetricsSnapshot struct {
	TasksSpawned          uint64
	TasksCompleted        uint64
	CompletionsDispatched uint64

	ChannelSends uint64
	ChannelRecvs uint64

	ReadBytes  uint64
	WriteBytes uint64

	ReadErrors  uint64
	WriteErrors uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	TotalOps   uint64
	TotalBytes uint64
	ErrorRate  float64
}

// Snapshot copies the current counters and computes derived statistics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		TasksSpawned:          m.TasksSpawned.Load(),
		TasksCompleted:        m.TasksCompleted.Load(),
		CompletionsDispatched: m.CompletionsDispatched.Load(),
		ChannelSends:          m.ChannelSends.Load(),
		ChannelRecvs:          m.ChannelRecvs.Load(),
		ReadBytes:             m.ReadBytes.Load(),
		WriteBytes:            m.WriteBytes.Load(),
		ReadErrors:            m.ReadErrors.Load(),
		WriteErrors:           m.WriteErrors.Load(),
	}

	snap.TotalOps = snap.CompletionsDispatched
	snap.TotalBytes = snap.ReadBytes + snap.WriteBytes

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.LatencyOpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	totalErrors := snap.ReadErrors + snap.WriteErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) by linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.LatencyOpCount.Load()
	if totalOps == 0 {
		return 0
	}
	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes every counter; useful between test cases.
func (m *Metrics) Reset() {
	m.TasksSpawned.Store(0)
	m.TasksCompleted.Store(0)
	m.CompletionsDispatched.Store(0)
	m.ChannelSends.Store(0)
	m.ChannelRecvs.Store(0)
	m.ReadBytes.Store(0)
	m.WriteBytes.Store(0)
	m.ReadErrors.Store(0)
	m.WriteErrors.Store(0)
	m.TotalLatencyNs.Store(0)
	m.LatencyOpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection independent of Metrics.
type Observer interface {
	ObserveRead(bytes uint64, latencyNs uint64, success bool)
	ObserveWrite(bytes uint64, latencyNs uint64, success bool)
	ObserveChannelSend()
	ObserveChannelRecv()
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveRead(uint64, uint64, bool) {}
func (NoOpObserver) ObserveWrite(uint64, uint64, bool) {}
func (NoOpObserver) ObserveChannelSend() {}
func (NoOpObserver) ObserveChannelRecv() {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveRead(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordRead(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveWrite(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordWrite(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveChannelSend() {
	o.metrics.RecordChannelSend()
}

func (o *MetricsObserver) ObserveChannelRecv() {
	o.metrics.RecordChannelRecv()
}

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
