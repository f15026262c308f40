// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pitwall-systems/pitwall/lib/clock"
	"github.com/pitwall-systems/pitwall/lib/metrics"
)

// reportInterval is the periodic summary cadence.
const reportInterval = 2 * time.Second

// reporter logs a pipeline summary at a fixed interval while traffic
// is flowing. Before the first record arrives it stays silent so an
// idle service does not fill the log with zeros.
type reporter struct {
	metrics *metrics.Aggregator
	clock   clock.Clock
	logger  *slog.Logger
}

func (r *reporter) run(ctx context.Context) {
	ticker := r.clock.NewTicker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s := r.metrics.Snapshot()
		if s.Received == 0 {
			continue
		}

		r.logger.Info("pipeline summary",
			"received", s.Received,
			"processed", s.Processed,
			"dropped", s.Dropped,
			"throughput_rps", fmt.Sprintf("%.0f", s.Throughput),
			"latency_mean_ms", fmt.Sprintf("%.3f", millis(s.LatencyMean)),
			"latency_p99_ms", fmt.Sprintf("%.3f", millis(s.LatencyP99)),
			"loss_percent", fmt.Sprintf("%.3f", s.LossRate),
		)

		if s.LatencyP99 >= metrics.TargetP99 {
			r.logger.Warn("p99 latency above target",
				"p99_ms", fmt.Sprintf("%.3f", millis(s.LatencyP99)),
				"target_ms", fmt.Sprintf("%.0f", millis(metrics.TargetP99)))
		}
		if s.LossRate >= metrics.TargetLossPercent {
			r.logger.Warn("loss rate above target",
				"loss_percent", fmt.Sprintf("%.3f", s.LossRate),
				"target_percent", metrics.TargetLossPercent)
		}
	}
}

// millis renders a duration as fractional milliseconds for reports.
func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// writeFinalReport prints end-of-run totals, derived statistics, and
// the per-target verdict. This is the operator-facing summary on
// stdout; the structured log carries the same numbers over time.
func writeFinalReport(w io.Writer, s metrics.Snapshot) {
	fmt.Fprintf(w, "\n=== final statistics ===\n")
	fmt.Fprintf(w, "records:    %d received, %d processed, %d dropped\n",
		s.Received, s.Processed, s.Dropped)
	fmt.Fprintf(w, "bytes:      %d\n", s.Bytes)
	fmt.Fprintf(w, "throughput: %.0f records/s\n", s.Throughput)
	fmt.Fprintf(w, "latency:    mean %.3f ms, median %.3f ms, p99 %.3f ms\n",
		millis(s.LatencyMean), millis(s.LatencyMedian), millis(s.LatencyP99))
	fmt.Fprintf(w, "loss:       %.3f%%\n", s.LossRate)
	fmt.Fprintf(w, "runtime:    %.1f s\n", s.Elapsed.Seconds())

	fmt.Fprintf(w, "\n=== assessment ===\n")
	fmt.Fprintf(w, "%s  p99 latency %.3f ms (target < %.0f ms)\n",
		verdict(s.LatencyP99 < metrics.TargetP99),
		millis(s.LatencyP99), millis(metrics.TargetP99))
	fmt.Fprintf(w, "%s  record loss %.3f%% (target < %.1f%%)\n",
		verdict(s.LossRate < metrics.TargetLossPercent),
		s.LossRate, metrics.TargetLossPercent)
	if s.Healthy() {
		fmt.Fprintf(w, "all targets met\n")
	} else {
		fmt.Fprintf(w, "targets missed\n")
	}
}

func verdict(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
