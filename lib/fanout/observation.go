// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"github.com/pitwall-systems/pitwall/lib/telemetry"
)

// Identity placeholders until the stream source carries vehicle and
// driver metadata.
// TODO: plumb identity from the stream source instead of hardcoding.
const (
	placeholderCarNumber = 81
	placeholderDriver    = "PIA"
)

// Observation is the reduced telemetry snapshot delivered to
// observers. Field names follow the dashboard wire contract; the
// struct marshals directly to the websocket JSON payload.
type Observation struct {
	Timestamp uint64  `json:"timestamp"`
	Speed     uint16  `json:"speed"`
	Throttle  float32 `json:"throttle"`
	Brake     float32 `json:"brake"`
	Gear      int8    `json:"gear"`
	RPM       uint16  `json:"rpm"`
	DRS       bool    `json:"drs"`
	FuelFlow  float32 `json:"fuel_flow"`

	// EngineTemp is the water temperature; observers treat it as the
	// headline engine health number.
	EngineTemp int16   `json:"engine_temp"`
	TyreTemps  []int16 `json:"tyre_temps"`

	// LapDistance is not present in inbound records; it stays zero
	// rather than being synthesized.
	LapDistance float32 `json:"lap_distance"`

	CarNumber uint8  `json:"car_number"`
	Driver    string `json:"driver"`
}

// ObservationFromRecord maps a fully decoded record onto the observer
// snapshot. Tyre temps are copied so the observation stays valid after
// the record's buffers are reused.
func ObservationFromRecord(record *telemetry.Record) Observation {
	temps := make([]int16, len(record.TyreTemps))
	copy(temps, record.TyreTemps)

	return Observation{
		Timestamp:  record.Timestamp,
		Speed:      record.Speed,
		Throttle:   record.Throttle,
		Brake:      record.Brake,
		Gear:       record.Gear,
		RPM:        record.RPM,
		DRS:        record.DRS,
		FuelFlow:   record.FuelFlow,
		EngineTemp: record.WaterTemp,
		TyreTemps:  temps,
		CarNumber:  placeholderCarNumber,
		Driver:     placeholderDriver,
	}
}
