// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/pitwall-systems/pitwall/lib/config"
	"github.com/pitwall-systems/pitwall/lib/control"
	"github.com/pitwall-systems/pitwall/lib/fanout"
	"github.com/pitwall-systems/pitwall/lib/metrics"
)

// controlActions exposes running-service state over the control
// socket. Everything it reads is safe for concurrent access: the
// aggregator is mutex-guarded, hub stats are atomics, and the config
// is immutable after startup. The recency buffer is deliberately
// absent; it belongs to the ingestion goroutine alone.
type controlActions struct {
	cfg        *config.Config
	aggregator *metrics.Aggregator
	hub        *fanout.Hub
}

func (c *controlActions) register(server *control.Server) {
	server.Handle("status", c.handleStatus)
	server.Handle("config", c.handleConfig)
}

// statusResponse is the CBOR response for the "status" action.
// Latencies are rendered in milliseconds; raw durations are an
// internal representation.
type statusResponse struct {
	Received  uint64 `cbor:"records_received"`
	Processed uint64 `cbor:"records_processed"`
	Dropped   uint64 `cbor:"records_dropped"`
	Bytes     uint64 `cbor:"bytes_received"`

	LatencyMeanMS   float64 `cbor:"latency_mean_ms"`
	LatencyMedianMS float64 `cbor:"latency_median_ms"`
	LatencyP99MS    float64 `cbor:"latency_p99_ms"`

	ThroughputRPS float64 `cbor:"throughput_rps"`
	LossPercent   float64 `cbor:"loss_percent"`
	UptimeSeconds float64 `cbor:"uptime_seconds"`
	Healthy       bool    `cbor:"healthy"`

	Subscribers     int    `cbor:"fanout_subscribers"`
	FanoutPublished uint64 `cbor:"fanout_published"`
	FanoutDropped   uint64 `cbor:"fanout_dropped"`
}

func (c *controlActions) handleStatus(ctx context.Context, raw []byte) (any, error) {
	s := c.aggregator.Snapshot()
	subscribers, published, dropped := c.hub.Stats()

	return statusResponse{
		Received:        s.Received,
		Processed:       s.Processed,
		Dropped:         s.Dropped,
		Bytes:           s.Bytes,
		LatencyMeanMS:   millis(s.LatencyMean),
		LatencyMedianMS: millis(s.LatencyMedian),
		LatencyP99MS:    millis(s.LatencyP99),
		ThroughputRPS:   s.Throughput,
		LossPercent:     s.LossRate,
		UptimeSeconds:   s.Elapsed.Seconds(),
		Healthy:         s.Healthy(),
		Subscribers:     subscribers,
		FanoutPublished: published,
		FanoutDropped:   dropped,
	}, nil
}

// configResponse is the CBOR response for the "config" action: the
// effective configuration after file and flag overrides.
type configResponse struct {
	ListenAddr         string `cbor:"listen_addr"`
	MaxDatagramBytes   int    `cbor:"max_datagram_bytes"`
	LatencyBudgetMS    int    `cbor:"latency_budget_ms"`
	InactivityTimeoutS int    `cbor:"inactivity_timeout_s"`
	RecencyBufferSize  int    `cbor:"recency_buffer_size"`
	SampleEvery        int    `cbor:"sample_every"`
	LoadEnabled        bool   `cbor:"load_enabled"`
	MetricsWindowSize  int    `cbor:"metrics_window_size"`
	PrometheusAddr     string `cbor:"prometheus_addr"`
	FanoutQueueSize    int    `cbor:"fanout_queue_size"`
	KeepAliveS         int    `cbor:"keepalive_s"`
	DashboardAddr      string `cbor:"dashboard_addr"`
}

func (c *controlActions) handleConfig(ctx context.Context, raw []byte) (any, error) {
	return configResponse{
		ListenAddr:         c.cfg.Listen.Addr,
		MaxDatagramBytes:   c.cfg.Listen.MaxDatagramBytes,
		LatencyBudgetMS:    c.cfg.Pipeline.LatencyBudgetMS,
		InactivityTimeoutS: c.cfg.Pipeline.InactivityTimeoutS,
		RecencyBufferSize:  c.cfg.Pipeline.RecencyBufferSize,
		SampleEvery:        c.cfg.Pipeline.SampleEvery,
		LoadEnabled:        c.cfg.Load.Enabled,
		MetricsWindowSize:  c.cfg.Metrics.WindowSize,
		PrometheusAddr:     c.cfg.Metrics.PrometheusAddr,
		FanoutQueueSize:    c.cfg.Fanout.QueueSize,
		KeepAliveS:         c.cfg.Fanout.KeepAliveS,
		DashboardAddr:      c.cfg.Fanout.DashboardAddr,
	}, nil
}
