// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics aggregates pipeline health: monotonic counters for
// received/processed/dropped records and bytes, plus a fixed-size
// window of recent gate latencies from which snapshots derive mean,
// median, p99, throughput, and loss rate.
//
// One goroutine (the processor) mutates the aggregator; any number of
// readers (reporter, dashboard, control socket, Prometheus scrapes)
// take snapshots concurrently. Every mutation is a single critical
// section, so a snapshot never observes a counter without its paired
// latency sample.
//
// Collector adapts snapshots to prometheus.Collector for scrape-time
// export; it holds no state of its own.
package metrics
