// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HubStats is the read side of the fan-out hub: subscriber count and
// monotonic publish/drop totals. Declared here so the collector can
// export hub counters without importing the fanout package.
type HubStats interface {
	Stats() (subscribers int, published, dropped uint64)
}

// Collector exports aggregator snapshots (and optionally hub stats)
// in Prometheus format. It holds no state: every scrape takes one
// fresh snapshot and emits const metrics from it, so the registry
// never sees torn counters.
type Collector struct {
	aggregator *Aggregator
	hub        HubStats

	received   *prometheus.Desc
	processed  *prometheus.Desc
	dropped    *prometheus.Desc
	bytes      *prometheus.Desc
	mean       *prometheus.Desc
	median     *prometheus.Desc
	p99        *prometheus.Desc
	loss       *prometheus.Desc
	throughput *prometheus.Desc

	subscribers     *prometheus.Desc
	fanoutPublished *prometheus.Desc
	fanoutDropped   *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a Collector reading from aggregator. hub may be
// nil when fan-out is disabled; the fan-out series are then omitted
// from scrapes entirely rather than exported as zeros.
func NewCollector(aggregator *Aggregator, hub HubStats) *Collector {
	return &Collector{
		aggregator: aggregator,
		hub:        hub,

		received: prometheus.NewDesc(
			"pitwall_records_received_total",
			"Datagrams received from the wire, before any decode.",
			nil, nil),
		processed: prometheus.NewDesc(
			"pitwall_records_processed_total",
			"Records accepted by the latency gate.",
			nil, nil),
		dropped: prometheus.NewDesc(
			"pitwall_records_dropped_total",
			"Records dropped: malformed, corrupted, or over budget.",
			nil, nil),
		bytes: prometheus.NewDesc(
			"pitwall_bytes_received_total",
			"Wire bytes received.",
			nil, nil),
		mean: prometheus.NewDesc(
			"pitwall_latency_mean_milliseconds",
			"Mean gate latency over the sample window.",
			nil, nil),
		median: prometheus.NewDesc(
			"pitwall_latency_median_milliseconds",
			"Median gate latency over the sample window.",
			nil, nil),
		p99: prometheus.NewDesc(
			"pitwall_latency_p99_milliseconds",
			"99th-percentile gate latency over the sample window.",
			nil, nil),
		loss: prometheus.NewDesc(
			"pitwall_loss_rate_percent",
			"Dropped records as a percentage of received.",
			nil, nil),
		throughput: prometheus.NewDesc(
			"pitwall_throughput_records_per_second",
			"Received records per second since startup.",
			nil, nil),

		subscribers: prometheus.NewDesc(
			"pitwall_fanout_subscribers",
			"Live dashboard subscriptions.",
			nil, nil),
		fanoutPublished: prometheus.NewDesc(
			"pitwall_fanout_published_total",
			"Observations offered to subscriber queues.",
			nil, nil),
		fanoutDropped: prometheus.NewDesc(
			"pitwall_fanout_dropped_total",
			"Observations evicted from full subscriber queues.",
			nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.received
	ch <- c.processed
	ch <- c.dropped
	ch <- c.bytes
	ch <- c.mean
	ch <- c.median
	ch <- c.p99
	ch <- c.loss
	ch <- c.throughput
	if c.hub != nil {
		ch <- c.subscribers
		ch <- c.fanoutPublished
		ch <- c.fanoutDropped
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.aggregator.Snapshot()

	millis := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

	ch <- prometheus.MustNewConstMetric(c.received, prometheus.CounterValue, float64(s.Received))
	ch <- prometheus.MustNewConstMetric(c.processed, prometheus.CounterValue, float64(s.Processed))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.CounterValue, float64(s.Bytes))
	ch <- prometheus.MustNewConstMetric(c.mean, prometheus.GaugeValue, millis(s.LatencyMean))
	ch <- prometheus.MustNewConstMetric(c.median, prometheus.GaugeValue, millis(s.LatencyMedian))
	ch <- prometheus.MustNewConstMetric(c.p99, prometheus.GaugeValue, millis(s.LatencyP99))
	ch <- prometheus.MustNewConstMetric(c.loss, prometheus.GaugeValue, s.LossRate)
	ch <- prometheus.MustNewConstMetric(c.throughput, prometheus.GaugeValue, s.Throughput)

	if c.hub != nil {
		subscribers, published, dropped := c.hub.Stats()
		ch <- prometheus.MustNewConstMetric(c.subscribers, prometheus.GaugeValue, float64(subscribers))
		ch <- prometheus.MustNewConstMetric(c.fanoutPublished, prometheus.CounterValue, float64(published))
		ch <- prometheus.MustNewConstMetric(c.fanoutDropped, prometheus.CounterValue, float64(dropped))
	}
}
