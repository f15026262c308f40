// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"slices"
	"sync"
	"time"

	"github.com/pitwall-systems/pitwall/lib/clock"
)

// Service targets the pipeline is graded against. The final report and
// Snapshot.Healthy use these; both comparisons are strict.
const (
	// TargetP99 is the ceiling for 99th-percentile gate latency.
	TargetP99 = 10 * time.Millisecond

	// TargetLossPercent is the ceiling for dropped records as a
	// percentage of received.
	TargetLossPercent = 0.1
)

// Aggregator accumulates pipeline counters and recent gate latencies.
// The processor is the only writer; snapshot readers may call from any
// goroutine.
type Aggregator struct {
	clock clock.Clock

	mu        sync.Mutex
	received  uint64
	processed uint64
	dropped   uint64
	bytes     uint64
	window    *Window
	start     time.Time
}

// NewAggregator returns an Aggregator retaining windowSize latency
// samples. The clock sets the throughput epoch and must match the one
// the processor measures with.
func NewAggregator(windowSize int, clk clock.Clock) *Aggregator {
	return &Aggregator{
		clock:  clk,
		window: NewWindow(windowSize),
		start:  clk.Now(),
	}
}

// RecordReceived counts one inbound datagram of n bytes. Called
// exactly once per datagram, before any decode, regardless of the
// eventual decision.
func (a *Aggregator) RecordReceived(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.received++
	a.bytes += uint64(n)
}

// RecordProcessed counts one accepted record and its gate latency.
// Counter and sample move in one critical section so a concurrent
// snapshot never sees one without the other.
func (a *Aggregator) RecordProcessed(latency time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.processed++
	a.window.Add(latency.Microseconds())
}

// RecordDropped counts one record dropped before latency measurement
// began (decode or corruption failures). No sample enters the window.
func (a *Aggregator) RecordDropped() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dropped++
}

// RecordBudgetExceeded counts one record dropped by the latency gate.
// The measured latency still enters the window: over-budget records
// are exactly the tail the percentiles exist to expose.
func (a *Aggregator) RecordBudgetExceeded(latency time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dropped++
	a.window.Add(latency.Microseconds())
}

// Snapshot is a consistent copy of the aggregator with derived
// statistics. Latencies are durations with microsecond resolution;
// render in milliseconds at presentation edges.
type Snapshot struct {
	Received  uint64
	Processed uint64
	Dropped   uint64
	Bytes     uint64

	LatencyMean   time.Duration
	LatencyMedian time.Duration
	LatencyP99    time.Duration

	// Throughput is received records per second since the aggregator
	// was created.
	Throughput float64

	// LossRate is dropped as a percentage of received; exactly 0 when
	// nothing has been received.
	LossRate float64

	Elapsed time.Duration
}

// Healthy reports whether the snapshot meets the service targets:
// p99 under TargetP99 and loss under TargetLossPercent.
func (s Snapshot) Healthy() bool {
	return s.LatencyP99 < TargetP99 && s.LossRate < TargetLossPercent
}

// Snapshot copies the counters and window under the lock, then derives
// statistics from the copy.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	s := Snapshot{
		Received:  a.received,
		Processed: a.processed,
		Dropped:   a.dropped,
		Bytes:     a.bytes,
		Elapsed:   a.clock.Since(a.start),
	}
	samples := a.window.Samples()
	a.mu.Unlock()

	s.LatencyMean, s.LatencyMedian, s.LatencyP99 = LatencyStats(samples)
	if seconds := s.Elapsed.Seconds(); seconds > 0 {
		s.Throughput = float64(s.Received) / seconds
	}
	if s.Received > 0 {
		s.LossRate = 100 * float64(s.Dropped) / float64(s.Received)
	}
	return s
}

// LatencyStats derives mean, median, and p99 from microsecond samples,
// sorting the slice in place. The p99 index is min(floor(0.99·n), n−1)
// over the ascending sort, so a single sample is its own p99. Empty
// input derives all zeros.
func LatencyStats(samples []int64) (mean, median, p99 time.Duration) {
	n := len(samples)
	if n == 0 {
		return 0, 0, 0
	}
	slices.Sort(samples)

	var sum int64
	for _, v := range samples {
		sum += v
	}
	mean = time.Duration(sum) * time.Microsecond / time.Duration(n)

	if n%2 == 0 {
		median = time.Duration(samples[n/2-1]+samples[n/2]) * time.Microsecond / 2
	} else {
		median = time.Duration(samples[n/2]) * time.Microsecond
	}

	index := n * 99 / 100
	if index > n-1 {
		index = n - 1
	}
	p99 = time.Duration(samples[index]) * time.Microsecond
	return mean, median, p99
}
