// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"fmt"
	"math"

	"github.com/pitwall-systems/pitwall/lib/telemetry"
)

// View is the selective decoder over one encoded record. It wraps raw
// datagram bytes without copying or eager parsing; each lookup scans
// the record map from the start and decodes only the addressed value,
// skipping every other field.
//
// The accessors the processor touches on every datagram (RecordID,
// Priority, Speed) memoize their result on the View, so each of those
// fields is scanned at most once per record. A View is not safe for
// concurrent use; the pipeline creates one per datagram on its single
// ingestion goroutine.
type View struct {
	data []byte

	recordID memo[uint32]
	priority memo[telemetry.Priority]
	speed    memo[uint16]
}

// memo is a one-field cache slot: a resolved value or nothing.
type memo[T any] struct {
	value T
	ok    bool
}

// NewView wraps data without validating it. Malformed bytes surface
// as errors from whichever accessor first touches the bad region.
func NewView(data []byte) *View {
	return &View{data: data}
}

// RecordID returns the record identifier (key "id").
func (v *View) RecordID() (uint32, error) {
	if v.recordID.ok {
		return v.recordID.value, nil
	}
	raw, err := v.Uint(telemetry.KeyRecordID)
	if err != nil {
		return 0, err
	}
	if raw > math.MaxUint32 {
		return 0, fmt.Errorf("field %q: value %d overflows uint32: %w",
			telemetry.KeyRecordID, raw, ErrTypeMismatch)
	}
	v.recordID = memo[uint32]{value: uint32(raw), ok: true}
	return v.recordID.value, nil
}

// Priority returns the processing priority (key "p"). A record without
// the key decodes as PriorityHigh; a value outside the defined levels
// is a type mismatch.
func (v *View) Priority() (telemetry.Priority, error) {
	if v.priority.ok {
		return v.priority.value, nil
	}
	raw, err := v.Uint(telemetry.KeyPriority)
	if errors.Is(err, ErrFieldNotFound) {
		v.priority = memo[telemetry.Priority]{value: telemetry.PriorityHigh, ok: true}
		return v.priority.value, nil
	}
	if err != nil {
		return 0, err
	}
	if raw > uint64(telemetry.PriorityLow) {
		return 0, fmt.Errorf("field %q: priority %d out of range: %w",
			telemetry.KeyPriority, raw, ErrTypeMismatch)
	}
	v.priority = memo[telemetry.Priority]{value: telemetry.Priority(raw), ok: true}
	return v.priority.value, nil
}

// Speed returns the speed channel (key "spd") in km/h.
func (v *View) Speed() (uint16, error) {
	if v.speed.ok {
		return v.speed.value, nil
	}
	raw, err := v.Uint(telemetry.KeySpeed)
	if err != nil {
		return 0, err
	}
	if raw > math.MaxUint16 {
		return 0, fmt.Errorf("field %q: value %d overflows uint16: %w",
			telemetry.KeySpeed, raw, ErrTypeMismatch)
	}
	v.speed = memo[uint16]{value: uint16(raw), ok: true}
	return v.speed.value, nil
}

// Uint decodes the value at key as an unsigned integer.
func (v *View) Uint(key string) (uint64, error) {
	r, err := v.seek(key)
	if err != nil {
		return 0, err
	}
	n, err := r.readUint()
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return n, nil
}

// Int decodes the value at key as a signed integer.
func (v *View) Int(key string) (int64, error) {
	r, err := v.seek(key)
	if err != nil {
		return 0, err
	}
	n, err := r.readInt()
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return n, nil
}

// Float decodes the value at key as a float.
func (v *View) Float(key string) (float64, error) {
	r, err := v.seek(key)
	if err != nil {
		return 0, err
	}
	f, err := r.readFloat()
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return f, nil
}

// Bool decodes the value at key as a boolean.
func (v *View) Bool(key string) (bool, error) {
	r, err := v.seek(key)
	if err != nil {
		return false, err
	}
	b, err := r.readBool()
	if err != nil {
		return false, fmt.Errorf("field %q: %w", key, err)
	}
	return b, nil
}

// FloatSlice decodes the value at key as an array of floats.
func (v *View) FloatSlice(key string) ([]float64, error) {
	r, err := v.seek(key)
	if err != nil {
		return nil, err
	}
	n, err := r.readArrayHeader()
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	out := make([]float64, n)
	for i := range out {
		f, err := r.readFloat()
		if err != nil {
			return nil, fmt.Errorf("field %q element %d: %w", key, i, err)
		}
		out[i] = f
	}
	return out, nil
}

// IntSlice decodes the value at key as an array of signed integers.
func (v *View) IntSlice(key string) ([]int64, error) {
	r, err := v.seek(key)
	if err != nil {
		return nil, err
	}
	n, err := r.readArrayHeader()
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	out := make([]int64, n)
	for i := range out {
		value, err := r.readInt()
		if err != nil {
			return nil, fmt.Errorf("field %q element %d: %w", key, i, err)
		}
		out[i] = value
	}
	return out, nil
}

// seek scans the record map from the start and positions a reader at
// the value for key. Non-matching values are skipped undecoded.
func (v *View) seek(key string) (*reader, error) {
	r := &reader{data: v.data}
	entries, err := r.readMapHeader()
	if err != nil {
		return nil, fmt.Errorf("record header: %w", err)
	}
	for i := 0; i < entries; i++ {
		k, err := r.readString()
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		if k == key {
			return r, nil
		}
		if err := r.skipValue(); err != nil {
			return nil, fmt.Errorf("skipping %q: %w", k, err)
		}
	}
	return nil, fmt.Errorf("field %q: %w", key, ErrFieldNotFound)
}
