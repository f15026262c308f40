// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// pitwall-ingest is the telemetry ingestion daemon. It receives
// MessagePack-encoded car telemetry over UDP, gates each record
// against a fixed latency budget, keeps rolling statistics, and fans
// sampled observations out to dashboard websocket clients.
//
// The service runs until the stream goes idle (no datagram for the
// configured inactivity timeout) or SIGINT/SIGTERM arrives, then
// prints a final report with a per-target pass/fail verdict.
//
// Auxiliary surfaces, each enabled by configuration: an HTTP dashboard
// with a live websocket stream, a Prometheus /metrics endpoint, and a
// CBOR control socket for status queries.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/pitwall-systems/pitwall/lib/clock"
	"github.com/pitwall-systems/pitwall/lib/config"
	"github.com/pitwall-systems/pitwall/lib/control"
	"github.com/pitwall-systems/pitwall/lib/fanout"
	"github.com/pitwall-systems/pitwall/lib/httpserver"
	"github.com/pitwall-systems/pitwall/lib/metrics"
	"github.com/pitwall-systems/pitwall/lib/pipeline"
	"github.com/pitwall-systems/pitwall/lib/process"
	"github.com/pitwall-systems/pitwall/lib/telemetry"
	"github.com/pitwall-systems/pitwall/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("pitwall-ingest", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "YAML configuration file")
	listenAddr := flagSet.String("listen", "", "UDP listen address (overrides config)")
	noSimulation := flagSet.Bool("no-simulation", false, "disable the synthetic processing load")
	dashboardAddr := flagSet.String("dashboard-addr", "", "dashboard HTTP address (overrides config; empty disables)")
	metricsAddr := flagSet.String("metrics-addr", "", "Prometheus /metrics address (overrides config; empty disables)")
	controlSocket := flagSet.String("control-socket", "", "control socket path (overrides config; empty disables)")
	logLevel := flagSet.String("log-level", "info", "log level: debug, info, warn, or error")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match other Pitwall binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("pitwall-ingest")
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

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if flagSet.Changed("listen") {
		cfg.Listen.Addr = *listenAddr
	}
	if *noSimulation {
		cfg.Load.Enabled = false
	}
	if flagSet.Changed("dashboard-addr") {
		cfg.Fanout.DashboardAddr = *dashboardAddr
	}
	if flagSet.Changed("metrics-addr") {
		cfg.Metrics.PrometheusAddr = *metricsAddr
	}
	if flagSet.Changed("control-socket") {
		cfg.Control.SocketPath = *controlSocket
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := parseLogLevel(*logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger)
}

// serve assembles the pipeline and runs it alongside the auxiliary
// servers until the stream goes idle or a signal arrives. The final
// report goes to stdout after everything has drained.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	clk := clock.Real()

	aggregator := metrics.NewAggregator(cfg.Metrics.WindowSize, clk)
	buffer := pipeline.NewRecencyBuffer(cfg.Pipeline.RecencyBufferSize)
	hub := fanout.NewHub(cfg.Fanout.QueueSize)

	var load pipeline.LoadModel
	if cfg.Load.Enabled {
		load = pipeline.NewSimulatedLoad(clk, loadTiers(cfg.Load.TierDelaysUS))
		logger.Info("synthetic processing load enabled")
	}

	processor := pipeline.NewProcessor(pipeline.ProcessorConfig{
		Budget:  cfg.Pipeline.LatencyBudget(),
		Load:    load,
		Metrics: aggregator,
		Buffer:  buffer,
		Clock:   clk,
	})

	// runCtx links the lifetimes: a signal cancels the ingestion loop,
	// and the loop ending (idle stream) stops the auxiliary servers.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	source, err := listenUDP(runCtx, cfg.Listen.Addr, cfg.Listen.MaxDatagramBytes, cfg.Pipeline.InactivityTimeout())
	if err != nil {
		return err
	}
	defer source.Close()

	logger.Info("udp ingest listening",
		"addr", source.LocalAddr().String(),
		"budget", cfg.Pipeline.LatencyBudget(),
		"inactivity_timeout", cfg.Pipeline.InactivityTimeout())

	var background sync.WaitGroup
	serverErrs := make(chan error, 3)

	if cfg.Fanout.DashboardAddr != "" {
		dash := &dashboard{
			hub:       hub,
			keepAlive: cfg.Fanout.KeepAlive(),
			clock:     clk,
			logger:    logger,
		}
		server := httpserver.New(httpserver.Config{
			Address: cfg.Fanout.DashboardAddr,
			Handler: dash.routes(),
			Logger:  logger,
		})
		background.Add(1)
		go func() {
			defer background.Done()
			if err := server.Serve(runCtx); err != nil {
				serverErrs <- fmt.Errorf("dashboard server: %w", err)
				cancel()
			}
		}()
		logger.Info("dashboard enabled", "url", "http://"+cfg.Fanout.DashboardAddr)
	}

	if cfg.Metrics.PrometheusAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(metrics.NewCollector(aggregator, hub))
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := httpserver.New(httpserver.Config{
			Address: cfg.Metrics.PrometheusAddr,
			Handler: mux,
			Logger:  logger,
		})
		background.Add(1)
		go func() {
			defer background.Done()
			if err := server.Serve(runCtx); err != nil {
				serverErrs <- fmt.Errorf("metrics server: %w", err)
				cancel()
			}
		}()
		logger.Info("prometheus exporter enabled", "addr", cfg.Metrics.PrometheusAddr)
	}

	if cfg.Control.SocketPath != "" {
		controlServer := control.NewServer(cfg.Control.SocketPath, logger)
		actions := &controlActions{cfg: cfg, aggregator: aggregator, hub: hub}
		actions.register(controlServer)
		background.Add(1)
		go func() {
			defer background.Done()
			if err := controlServer.Serve(runCtx); err != nil {
				serverErrs <- fmt.Errorf("control server: %w", err)
				cancel()
			}
		}()
	}

	rep := &reporter{metrics: aggregator, clock: clk, logger: logger}
	background.Add(1)
	go func() {
		defer background.Done()
		rep.run(runCtx)
	}()

	pipe := pipeline.New(pipeline.Config{
		Source:      source,
		Processor:   processor,
		Publisher:   hub,
		SampleEvery: cfg.Pipeline.SampleEvery,
		Logger:      logger,
	})

	runErr := pipe.Run(runCtx)

	// Stop the auxiliary servers and let them drain before reporting,
	// so the final numbers are the last word.
	cancel()
	background.Wait()
	close(serverErrs)

	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	for err := range serverErrs {
		errs = append(errs, err)
	}

	writeFinalReport(os.Stdout, aggregator.Snapshot())

	return errors.Join(errs...)
}

// loadTiers converts configured microsecond ranges into the
// processor's per-priority cost tiers.
func loadTiers(tiers config.TierDelays) [3]pipeline.DelayRange {
	return [3]pipeline.DelayRange{
		telemetry.PriorityCritical: {Min: tiers.Critical.MinDuration(), Max: tiers.Critical.MaxDuration()},
		telemetry.PriorityHigh:     {Min: tiers.High.MinDuration(), Max: tiers.High.MaxDuration()},
		telemetry.PriorityLow:      {Min: tiers.Low.MinDuration(), Max: tiers.Low.MaxDuration()},
	}
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
	fmt.Fprintf(os.Stderr, `Pitwall ingestion daemon — receives car telemetry over UDP.

Each record is decoded selectively (record ID, priority, speed),
timed against a fixed latency budget, and dropped if the budget is
exceeded. Every Nth accepted record is fully decoded and fanned out
to dashboard websocket clients. The service exits when the stream
goes idle or on SIGINT/SIGTERM, printing a final report.

Configuration comes from built-in defaults, overlaid by --config (a
YAML file), overlaid by flags.

Usage:
  pitwall-ingest [flags]

Examples:
  # Run with defaults (listen 127.0.0.1:20777, dashboard :8080)
  pitwall-ingest

  # Production-style: config file plus a control socket
  pitwall-ingest --config /etc/pitwall/ingest.yaml --control-socket /run/pitwall/ingest.sock

  # Measure ideal pipeline performance without the synthetic load
  pitwall-ingest --no-simulation

Flags:
%s`, flagSet.FlagUsages())
}
