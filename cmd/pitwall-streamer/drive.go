// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"math"
	"math/rand/v2"

	"github.com/pitwall-systems/pitwall/lib/telemetry"
)

// Speed trace over one nominal lap: a sinusoid between the slowest
// corner and the end of the main straight.
const (
	baseSpeedKPH  = 170.0
	speedSwingKPH = 130.0

	// drsSpeedKPH opens DRS on the fast stretch while still
	// accelerating.
	drsSpeedKPH = 250.0

	// criticalWaterTempC escalates record priority when the cooling
	// circuit runs past it.
	criticalWaterTempC = 120.0
)

// gearThresholds are upshift speeds; below the first is first gear,
// above the last is eighth.
var gearThresholds = []float64{60, 100, 140, 180, 220, 260, 290}

// driveModel synthesizes one car's sensor frames. The speed trace is a
// sinusoid over a nominal lap; every other channel derives from it the
// way the real sensors correlate: throttle on rising speed, brake on
// falling, gear and rpm from speed bands, temperatures from sustained
// throttle with seeded sensor noise.
//
// Single-goroutine use; the send loop owns it.
type driveModel struct {
	rng         *rand.Rand
	ticksPerLap uint64
	tick        uint64
}

// newDriveModel returns a deterministic model: equal seeds and tick
// rates replay the identical session.
func newDriveModel(seed uint64, ticksPerLap uint64) *driveModel {
	if ticksPerLap == 0 {
		panic("streamer: ticksPerLap must be positive")
	}
	return &driveModel{
		rng:         rand.New(rand.NewPCG(seed, seed)),
		ticksPerLap: ticksPerLap,
	}
}

// next produces the frame for the current tick and advances the model.
func (m *driveModel) next(timestamp uint64) telemetry.Record {
	phase := 2 * math.Pi * float64(m.tick%m.ticksPerLap) / float64(m.ticksPerLap)
	speed := baseSpeedKPH + speedSwingKPH*math.Sin(phase)

	// The speed slope splits the lap into drive phases: accelerating
	// out of the corner, lifting and braking into the next one.
	slope := math.Cos(phase)
	throttle := clamp01(1.4 * slope)
	brake := clamp01(-1.8 * slope)

	gear := gearFor(speed)
	rpm := rpmFor(speed, gear)
	drs := slope > 0 && speed > drsSpeedKPH

	oilTemp := 90 + throttle*20 + m.rng.NormFloat64()*2
	waterTemp := 85 + throttle*25 + m.rng.NormFloat64()*2
	ersStored := 4e6 * (0.5 + 0.5*math.Sin(float64(m.tick)/100))
	var mgukPower float64
	if drs {
		mgukPower = throttle * 120000
	}

	// Tyre surface temperature follows speed-induced load; the fronts
	// also take the brake work.
	speedFactor := speed / 350
	front := int16(80 + speedFactor*20 + brake*30)
	rear := int16(80 + speedFactor*15)

	priority := telemetry.PriorityHigh
	if waterTemp > criticalWaterTempC {
		priority = telemetry.PriorityCritical
	}

	record := telemetry.Record{
		Timestamp:     timestamp,
		RecordID:      uint32(m.tick),
		Priority:      priority,
		Speed:         uint16(speed),
		Throttle:      float32(throttle),
		Brake:         float32(brake),
		Steering:      0,
		Gear:          gear,
		RPM:           uint16(rpm),
		DRS:           drs,
		OilPressure:   float32(4.0 + (rpm/15000)*2.0),
		OilTemp:       int16(oilTemp),
		WaterTemp:     int16(waterTemp),
		TyrePressures: []float32{23.0, 23.0, 21.0, 21.0},
		TyreTemps:     []int16{front, front, rear, rear},
		ERSStored:     float32(ersStored),
		MGUKRecovery:  float32(mgukPower),
		FuelFlow:      float32(throttle * 100),
	}

	m.tick++
	return record
}

// gearFor maps speed onto the gear bands.
func gearFor(speed float64) int8 {
	gear := int8(1)
	for _, threshold := range gearThresholds {
		if speed < threshold {
			break
		}
		gear++
	}
	return gear
}

// rpmFor places engine speed within the gear's band: fresh upshifts
// land near 6000, the top of the band near the 12000 limiter.
func rpmFor(speed float64, gear int8) float64 {
	low := 0.0
	if gear >= 2 {
		low = gearThresholds[gear-2]
	}
	high := gearThresholds[len(gearThresholds)-1] + 30
	if int(gear)-1 < len(gearThresholds) {
		high = gearThresholds[gear-1]
	}
	return 6000 + clamp01((speed-low)/(high-low))*6000
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
