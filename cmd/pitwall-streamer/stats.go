// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"time"

	"github.com/pitwall-systems/pitwall/lib/clock"
	"github.com/pitwall-systems/pitwall/lib/metrics"
)

// statsInterval logs sender metrics every N attempted sends.
const statsInterval = 500

// sendWindowSize bounds the send-latency sample window, matching the
// receiver's latency window.
const sendWindowSize = 1000

// sendStats tracks sender-side delivery quality: how long each
// non-blocking send call took and how much made it onto the wire.
// Single-goroutine use only; the send loop owns it.
type sendStats struct {
	clock   clock.Clock
	start   time.Time
	sent    uint64
	dropped uint64
	bytes   uint64
	window  *metrics.Window
}

func newSendStats(clk clock.Clock) *sendStats {
	return &sendStats{
		clock:  clk,
		start:  clk.Now(),
		window: metrics.NewWindow(sendWindowSize),
	}
}

// record counts one delivered datagram of n bytes and its send-call
// latency.
func (s *sendStats) record(latency time.Duration, n int) {
	s.sent++
	s.bytes += uint64(n)
	s.window.Add(latency.Microseconds())
}

// drop counts one datagram the socket refused.
func (s *sendStats) drop() { s.dropped++ }

// attempts returns how many sends have been tried, delivered or not.
func (s *sendStats) attempts() uint64 { return s.sent + s.dropped }

// sendSummary is one derived stats snapshot.
type sendSummary struct {
	Sent        uint64
	Dropped     uint64
	RatePerSec  float64
	Mbps        float64
	SendMean    time.Duration
	SendP99     time.Duration
	LossPercent float64
	Elapsed     time.Duration
}

func (s *sendStats) summary() sendSummary {
	elapsed := s.clock.Since(s.start)
	sum := sendSummary{
		Sent:    s.sent,
		Dropped: s.dropped,
		Elapsed: elapsed,
	}
	if seconds := elapsed.Seconds(); seconds > 0 {
		sum.RatePerSec = float64(s.sent) / seconds
		sum.Mbps = float64(s.bytes*8) / (seconds * 1e6)
	}
	sum.SendMean, _, sum.SendP99 = metrics.LatencyStats(s.window.Samples())
	if attempts := s.attempts(); attempts > 0 {
		sum.LossPercent = 100 * float64(s.dropped) / float64(attempts)
	}
	return sum
}

func (s *sendStats) log(logger *slog.Logger) {
	sum := s.summary()
	logger.Info("sender stats",
		"sent", sum.Sent,
		"dropped", sum.Dropped,
		"rate_rps", int64(sum.RatePerSec),
		"mbps", sum.Mbps,
		"send_mean_us", sum.SendMean.Microseconds(),
		"send_p99_us", sum.SendP99.Microseconds(),
	)
}
