// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pitwall-systems/pitwall/lib/telemetry"
)

func sampleRecord() telemetry.Record {
	return telemetry.Record{
		Timestamp:     1700000000000,
		RecordID:      4242,
		Priority:      telemetry.PriorityCritical,
		Speed:         287,
		Throttle:      0.82,
		Brake:         0.05,
		Steering:      -0.12,
		Gear:          7,
		RPM:           11850,
		DRS:           true,
		OilPressure:   4.6,
		OilTemp:       108,
		WaterTemp:     94,
		TyrePressures: []float32{22.5, 22.3, 21.1, 21.0},
		TyreTemps:     []int16{92, 94, 88, 87},
		ERSStored:     2.4e6,
		MGUKRecovery:  120000,
		FuelFlow:      78.2,
	}
}

func encodeSample(t *testing.T) []byte {
	t.Helper()
	record := sampleRecord()
	data, err := EncodeRecord(&record)
	if err != nil {
		t.Fatalf("EncodeRecord() error: %v", err)
	}
	return data
}

func TestViewTypedAccessors(t *testing.T) {
	t.Parallel()

	view := NewView(encodeSample(t))

	id, err := view.RecordID()
	if err != nil {
		t.Fatalf("RecordID() error: %v", err)
	}
	if id != 4242 {
		t.Fatalf("RecordID() = %d, want 4242", id)
	}

	priority, err := view.Priority()
	if err != nil {
		t.Fatalf("Priority() error: %v", err)
	}
	if priority != telemetry.PriorityCritical {
		t.Fatalf("Priority() = %v, want critical", priority)
	}

	speed, err := view.Speed()
	if err != nil {
		t.Fatalf("Speed() error: %v", err)
	}
	if speed != 287 {
		t.Fatalf("Speed() = %d, want 287", speed)
	}
}

func TestViewPriorityDefaultsHigh(t *testing.T) {
	t.Parallel()

	data, err := msgpack.Marshal(map[string]any{
		telemetry.KeyRecordID: uint32(1),
		telemetry.KeySpeed:    uint16(120),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	view := NewView(data)
	priority, err := view.Priority()
	if err != nil {
		t.Fatalf("Priority() error: %v", err)
	}
	if priority != telemetry.PriorityHigh {
		t.Fatalf("Priority() without key = %v, want high", priority)
	}
}

func TestViewPriorityOutOfRange(t *testing.T) {
	t.Parallel()

	data, err := msgpack.Marshal(map[string]any{
		telemetry.KeyPriority: uint8(9),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	view := NewView(data)
	if _, err := view.Priority(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Priority(9) error = %v, want ErrTypeMismatch", err)
	}
}

func TestViewFieldNotFound(t *testing.T) {
	t.Parallel()

	view := NewView(encodeSample(t))
	if _, err := view.Uint("lap"); !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("Uint(absent key) error = %v, want ErrFieldNotFound", err)
	}
	if _, err := view.FloatSlice("sectors"); !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("FloatSlice(absent key) error = %v, want ErrFieldNotFound", err)
	}
}

func TestViewTypeMismatch(t *testing.T) {
	t.Parallel()

	data, err := msgpack.Marshal(map[string]any{
		telemetry.KeySpeed: "fast",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	view := NewView(data)
	if _, err := view.Speed(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Speed(string value) error = %v, want ErrTypeMismatch", err)
	}
}

func TestViewUnknownMarker(t *testing.T) {
	t.Parallel()

	// fixmap(1){"id": 0xc1} — 0xc1 is never a valid marker.
	view := NewView([]byte{0x81, 0xa2, 'i', 'd', 0xc1})
	if _, err := view.RecordID(); !errors.Is(err, ErrUnknownMarker) {
		t.Fatalf("RecordID(0xc1 value) error = %v, want ErrUnknownMarker", err)
	}
}

func TestViewMemoizesResolvedFields(t *testing.T) {
	t.Parallel()

	data := encodeSample(t)
	view := NewView(data)

	id, err := view.RecordID()
	if err != nil {
		t.Fatalf("RecordID() error: %v", err)
	}

	// Wipe the buffer. A memoized accessor must not rescan; an
	// unresolved one must now fail.
	for i := range data {
		data[i] = 0x00
	}

	again, err := view.RecordID()
	if err != nil {
		t.Fatalf("RecordID() after buffer wipe error: %v (memoization rescanned)", err)
	}
	if again != id {
		t.Fatalf("RecordID() after buffer wipe = %d, want %d", again, id)
	}

	if _, err := view.Speed(); err == nil {
		t.Fatal("Speed() after buffer wipe succeeded, want decode error")
	}
}

func TestViewSkipsStr8Values(t *testing.T) {
	t.Parallel()

	// fixmap(2){"note": str8(40 bytes), "id": 9} — the lookup for "id"
	// has to skip over the str8 value.
	data := []byte{0x82, 0xa4, 'n', 'o', 't', 'e', 0xd9, 40}
	for i := 0; i < 40; i++ {
		data = append(data, 'x')
	}
	data = append(data, 0xa2, 'i', 'd', 0x09)

	view := NewView(data)
	id, err := view.RecordID()
	if err != nil {
		t.Fatalf("RecordID() error: %v", err)
	}
	if id != 9 {
		t.Fatalf("RecordID() = %d, want 9", id)
	}
}

func TestViewSelectiveEqualsFullDecode(t *testing.T) {
	t.Parallel()

	data := encodeSample(t)

	full, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord() error: %v", err)
	}

	view := NewView(data)
	var selective telemetry.Record

	timestamp, err := view.Uint(telemetry.KeyTimestamp)
	if err != nil {
		t.Fatalf("Uint(t): %v", err)
	}
	selective.Timestamp = timestamp

	if selective.RecordID, err = view.RecordID(); err != nil {
		t.Fatalf("RecordID(): %v", err)
	}
	if selective.Priority, err = view.Priority(); err != nil {
		t.Fatalf("Priority(): %v", err)
	}
	if selective.Speed, err = view.Speed(); err != nil {
		t.Fatalf("Speed(): %v", err)
	}

	for _, field := range []struct {
		key string
		dst *float32
	}{
		{telemetry.KeyThrottle, &selective.Throttle},
		{telemetry.KeyBrake, &selective.Brake},
		{telemetry.KeySteering, &selective.Steering},
		{telemetry.KeyOilPressure, &selective.OilPressure},
		{telemetry.KeyERSStored, &selective.ERSStored},
		{telemetry.KeyMGUKRecovery, &selective.MGUKRecovery},
		{telemetry.KeyFuelFlow, &selective.FuelFlow},
	} {
		f, err := view.Float(field.key)
		if err != nil {
			t.Fatalf("Float(%q): %v", field.key, err)
		}
		*field.dst = float32(f)
	}

	gear, err := view.Int(telemetry.KeyGear)
	if err != nil {
		t.Fatalf("Int(g): %v", err)
	}
	selective.Gear = int8(gear)

	rpm, err := view.Uint(telemetry.KeyRPM)
	if err != nil {
		t.Fatalf("Uint(rpm): %v", err)
	}
	selective.RPM = uint16(rpm)

	if selective.DRS, err = view.Bool(telemetry.KeyDRS); err != nil {
		t.Fatalf("Bool(drs): %v", err)
	}

	oilTemp, err := view.Int(telemetry.KeyOilTemp)
	if err != nil {
		t.Fatalf("Int(oilt): %v", err)
	}
	selective.OilTemp = int16(oilTemp)

	waterTemp, err := view.Int(telemetry.KeyWaterTemp)
	if err != nil {
		t.Fatalf("Int(h2ot): %v", err)
	}
	selective.WaterTemp = int16(waterTemp)

	pressures, err := view.FloatSlice(telemetry.KeyTyrePressures)
	if err != nil {
		t.Fatalf("FloatSlice(tp): %v", err)
	}
	selective.TyrePressures = make([]float32, len(pressures))
	for i, p := range pressures {
		selective.TyrePressures[i] = float32(p)
	}

	temps, err := view.IntSlice(telemetry.KeyTyreTemps)
	if err != nil {
		t.Fatalf("IntSlice(tt): %v", err)
	}
	selective.TyreTemps = make([]int16, len(temps))
	for i, v := range temps {
		selective.TyreTemps[i] = int16(v)
	}

	if !reflect.DeepEqual(selective, full) {
		t.Fatalf("selective decode diverged from full decode:\nselective: %+v\nfull:      %+v", selective, full)
	}
}
