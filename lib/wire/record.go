// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"
	"math"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pitwall-systems/pitwall/lib/telemetry"
)

// Required-field bits for the decode seen-mask, index-matched to
// requiredKeys. Priority is deliberately absent: it is the one
// optional key.
const (
	bitTimestamp uint32 = 1 << iota
	bitRecordID
	bitSpeed
	bitThrottle
	bitBrake
	bitSteering
	bitGear
	bitRPM
	bitDRS
	bitOilPressure
	bitOilTemp
	bitWaterTemp
	bitTyrePressures
	bitTyreTemps
	bitERSStored
	bitMGUKRecovery
	bitFuelFlow
)

const requiredMask uint32 = 1<<17 - 1

// requiredKeys index-matches the bit constants above.
var requiredKeys = [...]string{
	telemetry.KeyTimestamp,
	telemetry.KeyRecordID,
	telemetry.KeySpeed,
	telemetry.KeyThrottle,
	telemetry.KeyBrake,
	telemetry.KeySteering,
	telemetry.KeyGear,
	telemetry.KeyRPM,
	telemetry.KeyDRS,
	telemetry.KeyOilPressure,
	telemetry.KeyOilTemp,
	telemetry.KeyWaterTemp,
	telemetry.KeyTyrePressures,
	telemetry.KeyTyreTemps,
	telemetry.KeyERSStored,
	telemetry.KeyMGUKRecovery,
	telemetry.KeyFuelFlow,
}

// DecodeRecord fully parses one encoded record. Unknown keys are
// skipped for forward compatibility; trailing bytes after the record
// map are ignored (datagram payloads may be padded). There is no
// partial result: any failure returns a zero Record and the error.
func DecodeRecord(data []byte) (telemetry.Record, error) {
	r := &reader{data: data}
	entries, err := r.readMapHeader()
	if err != nil {
		return telemetry.Record{}, fmt.Errorf("record header: %w", err)
	}

	record := telemetry.Record{Priority: telemetry.PriorityHigh}
	var seen uint32

	for i := 0; i < entries; i++ {
		key, err := r.readString()
		if err != nil {
			return telemetry.Record{}, fmt.Errorf("key %d: %w", i, err)
		}
		bit, err := decodeField(r, key, &record)
		if err != nil {
			return telemetry.Record{}, fmt.Errorf("field %q: %w", key, err)
		}
		seen |= bit
	}

	if seen&requiredMask != requiredMask {
		return telemetry.Record{}, fmt.Errorf("missing fields %s: %w",
			missingKeys(seen), ErrFieldNotFound)
	}
	return record, nil
}

// decodeField decodes the value for key into the record and returns
// the key's bit in the required-field mask (zero for the optional
// priority key and for unknown keys, which are skipped).
func decodeField(r *reader, key string, record *telemetry.Record) (uint32, error) {
	switch key {
	case telemetry.KeyTimestamp:
		v, err := r.readUint()
		if err != nil {
			return 0, err
		}
		record.Timestamp = v
		return bitTimestamp, nil

	case telemetry.KeyRecordID:
		v, err := readUintMax(r, math.MaxUint32)
		if err != nil {
			return 0, err
		}
		record.RecordID = uint32(v)
		return bitRecordID, nil

	case telemetry.KeyPriority:
		v, err := r.readUint()
		if err != nil {
			return 0, err
		}
		if v > uint64(telemetry.PriorityLow) {
			return 0, fmt.Errorf("priority %d out of range: %w", v, ErrTypeMismatch)
		}
		record.Priority = telemetry.Priority(v)
		return 0, nil

	case telemetry.KeySpeed:
		v, err := readUintMax(r, math.MaxUint16)
		if err != nil {
			return 0, err
		}
		record.Speed = uint16(v)
		return bitSpeed, nil

	case telemetry.KeyThrottle:
		f, err := r.readFloat()
		if err != nil {
			return 0, err
		}
		record.Throttle = float32(f)
		return bitThrottle, nil

	case telemetry.KeyBrake:
		f, err := r.readFloat()
		if err != nil {
			return 0, err
		}
		record.Brake = float32(f)
		return bitBrake, nil

	case telemetry.KeySteering:
		f, err := r.readFloat()
		if err != nil {
			return 0, err
		}
		record.Steering = float32(f)
		return bitSteering, nil

	case telemetry.KeyGear:
		v, err := readIntRange(r, math.MinInt8, math.MaxInt8)
		if err != nil {
			return 0, err
		}
		record.Gear = int8(v)
		return bitGear, nil

	case telemetry.KeyRPM:
		v, err := readUintMax(r, math.MaxUint16)
		if err != nil {
			return 0, err
		}
		record.RPM = uint16(v)
		return bitRPM, nil

	case telemetry.KeyDRS:
		b, err := r.readBool()
		if err != nil {
			return 0, err
		}
		record.DRS = b
		return bitDRS, nil

	case telemetry.KeyOilPressure:
		f, err := r.readFloat()
		if err != nil {
			return 0, err
		}
		record.OilPressure = float32(f)
		return bitOilPressure, nil

	case telemetry.KeyOilTemp:
		v, err := readIntRange(r, math.MinInt16, math.MaxInt16)
		if err != nil {
			return 0, err
		}
		record.OilTemp = int16(v)
		return bitOilTemp, nil

	case telemetry.KeyWaterTemp:
		v, err := readIntRange(r, math.MinInt16, math.MaxInt16)
		if err != nil {
			return 0, err
		}
		record.WaterTemp = int16(v)
		return bitWaterTemp, nil

	case telemetry.KeyTyrePressures:
		n, err := r.readArrayHeader()
		if err != nil {
			return 0, err
		}
		values := make([]float32, n)
		for i := range values {
			f, err := r.readFloat()
			if err != nil {
				return 0, fmt.Errorf("element %d: %w", i, err)
			}
			values[i] = float32(f)
		}
		record.TyrePressures = values
		return bitTyrePressures, nil

	case telemetry.KeyTyreTemps:
		n, err := r.readArrayHeader()
		if err != nil {
			return 0, err
		}
		values := make([]int16, n)
		for i := range values {
			v, err := readIntRange(r, math.MinInt16, math.MaxInt16)
			if err != nil {
				return 0, fmt.Errorf("element %d: %w", i, err)
			}
			values[i] = int16(v)
		}
		record.TyreTemps = values
		return bitTyreTemps, nil

	case telemetry.KeyERSStored:
		f, err := r.readFloat()
		if err != nil {
			return 0, err
		}
		record.ERSStored = float32(f)
		return bitERSStored, nil

	case telemetry.KeyMGUKRecovery:
		f, err := r.readFloat()
		if err != nil {
			return 0, err
		}
		record.MGUKRecovery = float32(f)
		return bitMGUKRecovery, nil

	case telemetry.KeyFuelFlow:
		f, err := r.readFloat()
		if err != nil {
			return 0, err
		}
		record.FuelFlow = float32(f)
		return bitFuelFlow, nil
	}

	return 0, r.skipValue()
}

// missingKeys names the required keys absent from the seen mask.
func missingKeys(seen uint32) string {
	var missing []string
	for i, key := range requiredKeys {
		if seen&(1<<i) == 0 {
			missing = append(missing, key)
		}
	}
	return strings.Join(missing, ", ")
}

// readUintMax reads an unsigned integer and range-checks it against
// the field's width.
func readUintMax(r *reader, max uint64) (uint64, error) {
	v, err := r.readUint()
	if err != nil {
		return 0, err
	}
	if v > max {
		return 0, fmt.Errorf("value %d exceeds field range %d: %w", v, max, ErrTypeMismatch)
	}
	return v, nil
}

// readIntRange reads a signed integer and range-checks it against the
// field's width.
func readIntRange(r *reader, min, max int64) (int64, error) {
	v, err := r.readInt()
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, fmt.Errorf("value %d outside field range [%d, %d]: %w", v, min, max, ErrTypeMismatch)
	}
	return v, nil
}

// EncodeRecord serializes the record to its wire form: a map16 of the
// short string keys in Record field order, integers in each field's
// declared width, float32 fractional channels.
func EncodeRecord(record *telemetry.Record) ([]byte, error) {
	data, err := msgpack.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding record %d: %w", record.RecordID, err)
	}
	return data, nil
}
