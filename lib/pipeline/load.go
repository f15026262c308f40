// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"math/rand/v2"
	"time"

	"github.com/pitwall-systems/pitwall/lib/clock"
	"github.com/pitwall-systems/pitwall/lib/telemetry"
)

// Load simulation constants, modeled on observed pit-wall compute
// behavior: most records are cheap, a few spike, and sustained high
// speed costs more to analyze.
const (
	// CorruptionProbability is the fraction of datagrams flagged as
	// corrupted in transit before any decode.
	CorruptionProbability = 0.001

	// SpikeProbability is the fraction of records whose processing
	// cost spikes by SpikeFactor.
	SpikeProbability = 0.05

	// SpikeFactor multiplies the cost of a spiking record.
	SpikeFactor = 10

	// HighSpeedThreshold is the speed in km/h above which processing
	// cost doubles.
	HighSpeedThreshold = 300

	// MaintenanceStall is how long the maintenance pause occupies the
	// ingestion goroutine.
	MaintenanceStall = 500 * time.Microsecond

	// MaintenanceInterval is the accepted-record cadence of the
	// maintenance pause.
	MaintenanceInterval = 10_000
)

// DelayRange is a half-open interval [Min, Max) of synthetic
// processing cost.
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// DefaultTiers are the per-priority cost ranges, indexed by
// telemetry.Priority: critical telemetry takes the fast path,
// low-priority channels may wait.
var DefaultTiers = [3]DelayRange{
	telemetry.PriorityCritical: {Min: 50 * time.Microsecond, Max: 200 * time.Microsecond},
	telemetry.PriorityHigh:     {Min: 100 * time.Microsecond, Max: 500 * time.Microsecond},
	telemetry.PriorityLow:      {Min: 200 * time.Microsecond, Max: 800 * time.Microsecond},
}

// LoadModel injects the synthetic failure and cost behavior the gate
// is graded under. The processor consults it inline on the ingestion
// goroutine; implementations that stall must busy-wait rather than
// yield, because occupying the goroutine is the point.
type LoadModel interface {
	// Corrupt reports whether the next datagram is lost to transit
	// corruption.
	Corrupt() bool

	// Cost occupies the goroutine for one record's synthetic
	// processing time.
	Cost(priority telemetry.Priority, speed uint16)

	// MaintenancePause occupies the goroutine for one periodic
	// maintenance stall.
	MaintenancePause()
}

// SimulatedLoad is the production LoadModel: uniform per-tier delays
// with occasional spikes, doubled above HighSpeedThreshold, spun on
// the injected clock.
type SimulatedLoad struct {
	clock clock.Clock
	tiers [3]DelayRange
}

// NewSimulatedLoad returns a SimulatedLoad with the given per-priority
// cost tiers (DefaultTiers for the standard profile). Every tier must
// satisfy 0 <= Min < Max.
func NewSimulatedLoad(clk clock.Clock, tiers [3]DelayRange) *SimulatedLoad {
	for _, tier := range tiers {
		if tier.Min < 0 || tier.Min >= tier.Max {
			panic("pipeline: load tier must satisfy 0 <= Min < Max")
		}
	}
	return &SimulatedLoad{clock: clk, tiers: tiers}
}

// Corrupt implements LoadModel.
func (l *SimulatedLoad) Corrupt() bool {
	return rand.Float64() < CorruptionProbability
}

// Cost implements LoadModel. Priorities outside the defined levels
// take the low tier.
func (l *SimulatedLoad) Cost(priority telemetry.Priority, speed uint16) {
	tier := l.tiers[telemetry.PriorityLow]
	if int(priority) < len(l.tiers) {
		tier = l.tiers[priority]
	}

	delay := tier.Min + time.Duration(rand.Int64N(int64(tier.Max-tier.Min)))
	if speed > HighSpeedThreshold {
		delay *= 2
	}
	if rand.Float64() < SpikeProbability {
		delay *= SpikeFactor
	}
	l.spin(delay)
}

// MaintenancePause implements LoadModel.
func (l *SimulatedLoad) MaintenancePause() {
	l.spin(MaintenanceStall)
}

// spin busy-waits for d. A sleep would release the goroutine to the
// scheduler and understate the gate latency the simulation exists to
// produce.
func (l *SimulatedLoad) spin(d time.Duration) {
	start := l.clock.Now()
	for l.clock.Since(start) < d {
	}
}
