// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pitwall-systems/pitwall/lib/telemetry"
)

// recordFields lays a record out as a generic map so tests can remove
// or corrupt individual keys before encoding.
func recordFields(record telemetry.Record) map[string]any {
	return map[string]any{
		telemetry.KeyTimestamp:     record.Timestamp,
		telemetry.KeyRecordID:      record.RecordID,
		telemetry.KeyPriority:      uint8(record.Priority),
		telemetry.KeySpeed:         record.Speed,
		telemetry.KeyThrottle:      record.Throttle,
		telemetry.KeyBrake:         record.Brake,
		telemetry.KeySteering:      record.Steering,
		telemetry.KeyGear:          record.Gear,
		telemetry.KeyRPM:           record.RPM,
		telemetry.KeyDRS:           record.DRS,
		telemetry.KeyOilPressure:   record.OilPressure,
		telemetry.KeyOilTemp:       record.OilTemp,
		telemetry.KeyWaterTemp:     record.WaterTemp,
		telemetry.KeyTyrePressures: record.TyrePressures,
		telemetry.KeyTyreTemps:     record.TyreTemps,
		telemetry.KeyERSStored:     record.ERSStored,
		telemetry.KeyMGUKRecovery:  record.MGUKRecovery,
		telemetry.KeyFuelFlow:      record.FuelFlow,
	}
}

func encodeFields(t *testing.T, fields map[string]any) []byte {
	t.Helper()
	data, err := msgpack.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal fields: %v", err)
	}
	return data
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	want := sampleRecord()
	data, err := EncodeRecord(&want)
	if err != nil {
		t.Fatalf("EncodeRecord() error: %v", err)
	}

	// 18 keys exceed fixmap's 15, so the record must open with map16.
	if data[0] != 0xde {
		t.Fatalf("first marker = 0x%02x, want 0xde (map16)", data[0])
	}

	got, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord() error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip diverged:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestEncodeDecodeReverseGear(t *testing.T) {
	t.Parallel()

	want := sampleRecord()
	want.Gear = -1
	want.Speed = 0

	data, err := EncodeRecord(&want)
	if err != nil {
		t.Fatalf("EncodeRecord() error: %v", err)
	}
	got, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord() error: %v", err)
	}
	if got.Gear != -1 {
		t.Fatalf("Gear = %d, want -1", got.Gear)
	}
}

func TestDecodeRecordMissingRequiredField(t *testing.T) {
	t.Parallel()

	fields := recordFields(sampleRecord())
	delete(fields, telemetry.KeySpeed)

	_, err := DecodeRecord(encodeFields(t, fields))
	if !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("DecodeRecord(no spd) error = %v, want ErrFieldNotFound", err)
	}
	if !strings.Contains(err.Error(), "spd") {
		t.Fatalf("error %q does not name the missing key", err)
	}
}

func TestDecodeRecordPriorityAbsent(t *testing.T) {
	t.Parallel()

	fields := recordFields(sampleRecord())
	delete(fields, telemetry.KeyPriority)

	got, err := DecodeRecord(encodeFields(t, fields))
	if err != nil {
		t.Fatalf("DecodeRecord(no p) error: %v", err)
	}
	if got.Priority != telemetry.PriorityHigh {
		t.Fatalf("Priority = %v, want high default", got.Priority)
	}
}

func TestDecodeRecordPriorityOutOfRange(t *testing.T) {
	t.Parallel()

	fields := recordFields(sampleRecord())
	fields[telemetry.KeyPriority] = uint8(3)

	_, err := DecodeRecord(encodeFields(t, fields))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("DecodeRecord(p=3) error = %v, want ErrTypeMismatch", err)
	}
}

func TestDecodeRecordSkipsUnknownKeys(t *testing.T) {
	t.Parallel()

	fields := recordFields(sampleRecord())
	fields["lap"] = uint16(12)
	fields["sector"] = "S2"

	got, err := DecodeRecord(encodeFields(t, fields))
	if err != nil {
		t.Fatalf("DecodeRecord(extra keys) error: %v", err)
	}
	want := sampleRecord()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("decode with extra keys diverged:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestDecodeRecordIgnoresTrailingBytes(t *testing.T) {
	t.Parallel()

	data := encodeSample(t)
	data = append(data, 0x00, 0x00, 0x00)

	got, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord(padded) error: %v", err)
	}
	if got.RecordID != 4242 {
		t.Fatalf("RecordID = %d, want 4242", got.RecordID)
	}
}

func TestDecodeRecordTruncated(t *testing.T) {
	t.Parallel()

	data := encodeSample(t)
	_, err := DecodeRecord(data[:len(data)-5])
	if !errors.Is(err, ErrBufferUnderflow) {
		t.Fatalf("DecodeRecord(truncated) error = %v, want ErrBufferUnderflow", err)
	}
}

func TestDecodeRecordEmptyInput(t *testing.T) {
	t.Parallel()

	_, err := DecodeRecord(nil)
	if !errors.Is(err, ErrBufferUnderflow) {
		t.Fatalf("DecodeRecord(nil) error = %v, want ErrBufferUnderflow", err)
	}
}

func TestDecodeRecordUnknownMarker(t *testing.T) {
	t.Parallel()

	_, err := DecodeRecord([]byte{0xc1})
	if !errors.Is(err, ErrUnknownMarker) {
		t.Fatalf("DecodeRecord(0xc1) error = %v, want ErrUnknownMarker", err)
	}
}

func TestDecodeRecordTypeMismatchedField(t *testing.T) {
	t.Parallel()

	fields := recordFields(sampleRecord())
	fields[telemetry.KeyDRS] = "open"

	_, err := DecodeRecord(encodeFields(t, fields))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("DecodeRecord(drs=string) error = %v, want ErrTypeMismatch", err)
	}
	if !strings.Contains(err.Error(), "drs") {
		t.Fatalf("error %q does not name the field", err)
	}
}

func TestDecodeRecordVariableTyreArrayLength(t *testing.T) {
	t.Parallel()

	fields := recordFields(sampleRecord())
	fields[telemetry.KeyTyrePressures] = []float32{22.0, 21.5}
	fields[telemetry.KeyTyreTemps] = []int16{90, 91}

	got, err := DecodeRecord(encodeFields(t, fields))
	if err != nil {
		t.Fatalf("DecodeRecord(2 tyres) error: %v", err)
	}
	if len(got.TyrePressures) != 2 || len(got.TyreTemps) != 2 {
		t.Fatalf("tyre array lengths = %d, %d, want 2, 2",
			len(got.TyrePressures), len(got.TyreTemps))
	}
}

func TestDecodeRecordNoPartialResult(t *testing.T) {
	t.Parallel()

	// A mismatch deep in the map must zero the whole record, not
	// return the fields decoded before the failure.
	fields := recordFields(sampleRecord())
	fields[telemetry.KeyFuelFlow] = "dry"

	got, err := DecodeRecord(encodeFields(t, fields))
	if err == nil {
		t.Fatal("DecodeRecord(fuel=string) succeeded, want error")
	}
	if !reflect.DeepEqual(got, telemetry.Record{}) {
		t.Fatalf("failed decode returned partial record: %+v", got)
	}
}
