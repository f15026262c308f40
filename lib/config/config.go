// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full ingest service configuration.
type Config struct {
	// Listen configures the UDP ingest socket.
	Listen ListenConfig `yaml:"listen"`

	// Pipeline configures the processor and ingestion loop.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Load configures the synthetic load simulation.
	Load LoadConfig `yaml:"load"`

	// Metrics configures the aggregator and the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Fanout configures observation delivery to dashboards.
	Fanout FanoutConfig `yaml:"fanout"`

	// Control configures the diagnostic socket.
	Control ControlConfig `yaml:"control"`
}

// ListenConfig configures the UDP ingest socket.
type ListenConfig struct {
	// Addr is the UDP listen address.
	// Default: 127.0.0.1:20777
	Addr string `yaml:"addr"`

	// MaxDatagramBytes sizes the receive buffer. Larger datagrams are
	// truncated by the read and fail decode.
	// Default: 2048
	MaxDatagramBytes int `yaml:"max_datagram_bytes"`
}

// PipelineConfig configures the processor and ingestion loop.
type PipelineConfig struct {
	// LatencyBudgetMS is the gate ceiling in milliseconds.
	// Default: 10
	LatencyBudgetMS int `yaml:"latency_budget_ms"`

	// InactivityTimeoutS ends ingestion after this many seconds
	// without traffic.
	// Default: 5
	InactivityTimeoutS int `yaml:"inactivity_timeout_s"`

	// RecencyBufferSize is the accepted-datagram retention count.
	// Default: 1000
	RecencyBufferSize int `yaml:"recency_buffer_size"`

	// SampleEvery publishes every Nth accepted record to the fan-out
	// hub.
	// Default: 10
	SampleEvery int `yaml:"sample_every"`
}

// LatencyBudget returns the gate ceiling as a duration.
func (c PipelineConfig) LatencyBudget() time.Duration {
	return time.Duration(c.LatencyBudgetMS) * time.Millisecond
}

// InactivityTimeout returns the idle shutdown window as a duration.
func (c PipelineConfig) InactivityTimeout() time.Duration {
	return time.Duration(c.InactivityTimeoutS) * time.Second
}

// LoadConfig configures the synthetic load simulation.
type LoadConfig struct {
	// Enabled turns the simulation on. The --no-simulation flag
	// forces it off.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// TierDelaysUS are the per-priority processing cost ranges in
	// microseconds.
	TierDelaysUS TierDelays `yaml:"tier_delays_us"`
}

// TierDelays holds one cost range per priority level.
type TierDelays struct {
	Critical DelayRangeUS `yaml:"critical"`
	High     DelayRangeUS `yaml:"high"`
	Low      DelayRangeUS `yaml:"low"`
}

// DelayRangeUS is a half-open [Min, Max) interval in microseconds.
type DelayRangeUS struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// MinDuration returns the lower bound as a duration.
func (d DelayRangeUS) MinDuration() time.Duration {
	return time.Duration(d.Min) * time.Microsecond
}

// MaxDuration returns the upper bound as a duration.
func (d DelayRangeUS) MaxDuration() time.Duration {
	return time.Duration(d.Max) * time.Microsecond
}

// MetricsConfig configures the aggregator and the Prometheus endpoint.
type MetricsConfig struct {
	// WindowSize is the latency sample window capacity.
	// Default: 1000
	WindowSize int `yaml:"window_size"`

	// PrometheusAddr is the HTTP listen address for /metrics. Empty
	// disables the exporter.
	// Default: "" (disabled)
	PrometheusAddr string `yaml:"prometheus_addr"`
}

// FanoutConfig configures observation delivery to dashboards.
type FanoutConfig struct {
	// QueueSize bounds each subscriber queue.
	// Default: 100
	QueueSize int `yaml:"queue_size"`

	// KeepAliveS is the idle seconds before a session keep-alive.
	// Default: 30
	KeepAliveS int `yaml:"keepalive_s"`

	// DashboardAddr is the HTTP listen address for the dashboard and
	// its websocket. Empty disables the dashboard.
	// Default: 127.0.0.1:8080
	DashboardAddr string `yaml:"dashboard_addr"`
}

// KeepAlive returns the keep-alive interval as a duration.
func (c FanoutConfig) KeepAlive() time.Duration {
	return time.Duration(c.KeepAliveS) * time.Second
}

// ControlConfig configures the diagnostic socket.
type ControlConfig struct {
	// SocketPath is the Unix socket path for the control server.
	// Empty disables the socket.
	// Default: "" (disabled)
	SocketPath string `yaml:"socket_path"`
}

// Default returns the built-in configuration. A file and flags
// override it; the service runs on defaults alone.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			Addr:             "127.0.0.1:20777",
			MaxDatagramBytes: 2048,
		},
		Pipeline: PipelineConfig{
			LatencyBudgetMS:    10,
			InactivityTimeoutS: 5,
			RecencyBufferSize:  1000,
			SampleEvery:        10,
		},
		Load: LoadConfig{
			Enabled: true,
			TierDelaysUS: TierDelays{
				Critical: DelayRangeUS{Min: 50, Max: 200},
				High:     DelayRangeUS{Min: 100, Max: 500},
				Low:      DelayRangeUS{Min: 200, Max: 800},
			},
		},
		Metrics: MetricsConfig{
			WindowSize:     1000,
			PrometheusAddr: "",
		},
		Fanout: FanoutConfig{
			QueueSize:     100,
			KeepAliveS:    30,
			DashboardAddr: "127.0.0.1:8080",
		},
		Control: ControlConfig{
			SocketPath: "",
		},
	}
}

// Load reads the YAML file at path over the defaults. The result is
// not validated: flags may still override fields, so callers validate
// the final assembly.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the assembled configuration and returns every
// problem joined, not just the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen.Addr == "" {
		errs = append(errs, errors.New("listen.addr is required"))
	}
	if c.Listen.MaxDatagramBytes <= 0 {
		errs = append(errs, fmt.Errorf("listen.max_datagram_bytes must be positive, got %d", c.Listen.MaxDatagramBytes))
	}

	if c.Pipeline.LatencyBudgetMS <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.latency_budget_ms must be positive, got %d", c.Pipeline.LatencyBudgetMS))
	}
	if c.Pipeline.InactivityTimeoutS <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.inactivity_timeout_s must be positive, got %d", c.Pipeline.InactivityTimeoutS))
	}
	if c.Pipeline.RecencyBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.recency_buffer_size must be positive, got %d", c.Pipeline.RecencyBufferSize))
	}
	if c.Pipeline.SampleEvery <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.sample_every must be positive, got %d", c.Pipeline.SampleEvery))
	}

	if c.Load.Enabled {
		for name, tier := range map[string]DelayRangeUS{
			"critical": c.Load.TierDelaysUS.Critical,
			"high":     c.Load.TierDelaysUS.High,
			"low":      c.Load.TierDelaysUS.Low,
		} {
			if tier.Min < 0 || tier.Min >= tier.Max {
				errs = append(errs, fmt.Errorf("load.tier_delays_us.%s must satisfy 0 <= min < max, got [%d, %d)", name, tier.Min, tier.Max))
			}
		}
	}

	if c.Metrics.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("metrics.window_size must be positive, got %d", c.Metrics.WindowSize))
	}

	if c.Fanout.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("fanout.queue_size must be positive, got %d", c.Fanout.QueueSize))
	}
	if c.Fanout.KeepAliveS <= 0 {
		errs = append(errs, fmt.Errorf("fanout.keepalive_s must be positive, got %d", c.Fanout.KeepAliveS))
	}

	return errors.Join(errs...)
}
