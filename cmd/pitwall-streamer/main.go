// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// pitwall-streamer generates a synthetic driving session and streams
// MessagePack-encoded telemetry records over UDP at a fixed rate. It
// is the load source for pitwall-ingest: deterministic under --seed,
// so pipeline behavior is reproducible end to end.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/pitwall-systems/pitwall/lib/clock"
	"github.com/pitwall-systems/pitwall/lib/process"
	"github.com/pitwall-systems/pitwall/lib/version"
	"github.com/pitwall-systems/pitwall/lib/wire"
)

// lapSeconds is the nominal lap length driving the speed sinusoid.
const lapSeconds = 90

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("pitwall-streamer", pflag.ContinueOnError)
	target := flagSet.String("target", "127.0.0.1:20777", "UDP address records are sent to")
	rate := flagSet.Int("rate", 500, "records per second")
	count := flagSet.Uint64("count", 0, "stop after this many records (0 streams until interrupted)")
	seed := flagSet.Uint64("seed", 1, "drive model seed; equal seeds replay the same session")
	logLevel := flagSet.String("log-level", "info", "log level: debug, info, warn, or error")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match other Pitwall binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("pitwall-streamer")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	if *rate < 1 || *rate > 10000 {
		return fmt.Errorf("rate must be between 1 and 10000, got %d", *rate)
	}

	level, err := parseLogLevel(*logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return stream(ctx, *target, *rate, *count, *seed, logger)
}

// stream paces records onto the wire until count is reached or the
// context is cancelled. Send failures are counted and logged, never
// fatal: a restarting receiver must not kill the stream.
func stream(ctx context.Context, target string, rate int, count, seed uint64, logger *slog.Logger) error {
	conn, err := net.Dial("udp", target)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", target, err)
	}
	defer conn.Close()

	clk := clock.Real()
	model := newDriveModel(seed, uint64(rate)*lapSeconds)
	stats := newSendStats(clk)

	interval := time.Second / time.Duration(rate)
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("streaming telemetry",
		"target", target,
		"rate", rate,
		"interval", interval,
		"seed", seed,
		"count", count)

	base := uint64(clk.Now().UnixMilli())

	for count == 0 || stats.attempts() < count {
		select {
		case <-ctx.Done():
			logger.Info("stream interrupted", "sent", stats.sent, "dropped", stats.dropped)
			writeFinalCount(os.Stdout, stats.summary())
			return nil
		case <-ticker.C:
		}

		// Record timestamps advance on the model's schedule, not the
		// wall clock, so a lagging sender still produces a coherent
		// session.
		tick := stats.attempts()
		record := model.next(base + tick*1000/uint64(rate))
		data, err := wire.EncodeRecord(&record)
		if err != nil {
			return err
		}

		sendStart := clk.Now()
		if _, err := conn.Write(data); err != nil {
			stats.drop()
			logger.Warn("send failed", "record", record.RecordID, "error", err)
		} else {
			stats.record(clk.Since(sendStart), len(data))
		}

		if stats.attempts()%statsInterval == 0 {
			stats.log(logger)
		}
	}

	logger.Info("stream complete", "sent", stats.sent, "dropped", stats.dropped)
	writeFinalCount(os.Stdout, stats.summary())
	return nil
}

// writeFinalCount prints the end-of-run line to stdout.
func writeFinalCount(w io.Writer, sum sendSummary) {
	fmt.Fprintf(w, "sent %d records (%d dropped) in %.1f s\n",
		sum.Sent, sum.Dropped, sum.Elapsed.Seconds())
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn, or error)", s)
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Pitwall telemetry streamer — synthetic load source for pitwall-ingest.

Synthesizes a driving session (sinusoidal speed trace with correlated
throttle, brake, gear, rpm, temperatures, and energy channels) and
sends one MessagePack-encoded record per interval over UDP. The model
is deterministic for a given --seed and --rate.

Usage:
  pitwall-streamer [flags]

Examples:
  # Stream to a local pitwall-ingest at the default 500 Hz
  pitwall-streamer

  # A reproducible 10k-record run against a remote receiver
  pitwall-streamer --target 10.0.0.7:20777 --count 10000 --seed 42

Flags:
%s`, flagSet.FlagUsages())
}
