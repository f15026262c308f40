// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "fmt"

// Priority classifies how urgently a record must clear the pipeline.
// Lower value means more urgent. The processor maps each level to a
// synthetic cost tier; the streamer escalates to critical when the
// cooling circuit runs hot.
type Priority uint8

const (
	PriorityCritical Priority = 0
	PriorityHigh     Priority = 1
	PriorityLow      Priority = 2
)

// Valid reports whether p is one of the three defined levels.
func (p Priority) Valid() bool { return p <= PriorityLow }

// String returns the lowercase level name, or "invalid(n)" for
// undefined values.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(p))
	}
}

// Wire keys for the MessagePack record map. Short keys keep the
// encoded frame under the datagram size limit at 500 Hz.
const (
	KeyTimestamp     = "t"
	KeyRecordID      = "id"
	KeyPriority      = "p"
	KeySpeed         = "spd"
	KeyThrottle      = "thr"
	KeyBrake         = "brk"
	KeySteering      = "str"
	KeyGear          = "g"
	KeyRPM           = "rpm"
	KeyDRS           = "drs"
	KeyOilPressure   = "oilp"
	KeyOilTemp       = "oilt"
	KeyWaterTemp     = "h2ot"
	KeyTyrePressures = "tp"
	KeyTyreTemps     = "tt"
	KeyERSStored     = "ers"
	KeyMGUKRecovery  = "mguk"
	KeyFuelFlow      = "fuel"
)

// Record is one sensor frame from one car. Every key except priority
// is required on the wire; a frame without a priority is treated as
// PriorityHigh.
//
// Units ride in the json tag names rather than the field names: speeds
// are km/h, temperatures °C, pressures bar (oil) and psi (tyres),
// energies joules, fuel flow kg/h.
type Record struct {
	Timestamp     uint64    `msgpack:"t" json:"timestamp_ms"`
	RecordID      uint32    `msgpack:"id" json:"record_id"`
	Priority      Priority  `msgpack:"p" json:"priority"`
	Speed         uint16    `msgpack:"spd" json:"speed_kph"`
	Throttle      float32   `msgpack:"thr" json:"throttle"`
	Brake         float32   `msgpack:"brk" json:"brake"`
	Steering      float32   `msgpack:"str" json:"steering"`
	Gear          int8      `msgpack:"g" json:"gear"`
	RPM           uint16    `msgpack:"rpm" json:"rpm"`
	DRS           bool      `msgpack:"drs" json:"drs"`
	OilPressure   float32   `msgpack:"oilp" json:"oil_pressure_bar"`
	OilTemp       int16     `msgpack:"oilt" json:"oil_temp_c"`
	WaterTemp     int16     `msgpack:"h2ot" json:"water_temp_c"`
	TyrePressures []float32 `msgpack:"tp" json:"tyre_pressures_psi"`
	TyreTemps     []int16   `msgpack:"tt" json:"tyre_temps_c"`
	ERSStored     float32   `msgpack:"ers" json:"ers_stored_j"`
	MGUKRecovery  float32   `msgpack:"mguk" json:"mguk_recovery_w"`
	FuelFlow      float32   `msgpack:"fuel" json:"fuel_flow_kgh"`
}

// Critical reports whether the frame shows a condition the pit wall
// must react to immediately: near-lockup braking, an overheated
// cooling circuit, or oil pressure collapse while the car is moving.
func (r *Record) Critical() bool {
	return r.Brake > 0.95 ||
		r.WaterTemp > 130 ||
		(r.OilPressure < 2.0 && r.Speed > 0)
}
