// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Marker bytes for the supported MessagePack subset. Multi-byte
// payloads are big-endian.
const (
	markerNil     byte = 0xc0
	markerFalse   byte = 0xc2
	markerTrue    byte = 0xc3
	markerFloat32 byte = 0xca
	markerFloat64 byte = 0xcb
	markerUint8   byte = 0xcc
	markerUint16  byte = 0xcd
	markerUint32  byte = 0xce
	markerUint64  byte = 0xcf
	markerInt8    byte = 0xd0
	markerInt16   byte = 0xd1
	markerInt32   byte = 0xd2
	markerInt64   byte = 0xd3
	markerStr8    byte = 0xd9
	markerMap16   byte = 0xde
)

// Fix-family ranges. Markers below 0x80 are positive fixints, markers
// at or above 0xe0 negative fixints; the families between encode their
// length in the marker's low bits.
const (
	fixmapLow    byte = 0x80
	fixmapHigh   byte = 0x8f
	fixarrayLow  byte = 0x90
	fixarrayHigh byte = 0x9f
	fixstrLow    byte = 0xa0
	fixstrHigh   byte = 0xbf
)

// supportedMarker reports whether m is in the decodable subset.
func supportedMarker(m byte) bool {
	if m <= 0x7f || m >= 0xe0 {
		return true
	}
	if m >= fixmapLow && m <= fixstrHigh {
		return true
	}
	switch m {
	case markerNil, markerFalse, markerTrue,
		markerFloat32, markerFloat64,
		markerUint8, markerUint16, markerUint32, markerUint64,
		markerInt8, markerInt16, markerInt32, markerInt64,
		markerStr8, markerMap16:
		return true
	}
	return false
}

// classError reports a marker that cannot start a value of the wanted
// class: ErrUnknownMarker when the byte is outside the subset
// entirely, ErrTypeMismatch when it is a valid marker of the wrong
// class.
func classError(m byte, want string) error {
	if !supportedMarker(m) {
		return fmt.Errorf("marker 0x%02x: %w", m, ErrUnknownMarker)
	}
	return fmt.Errorf("marker 0x%02x where %s expected: %w", m, want, ErrTypeMismatch)
}

// reader decodes MessagePack values from a byte slice, advancing an
// offset. It never copies payload bytes out of the buffer.
type reader struct {
	data []byte
	off  int
}

// take consumes the next n bytes.
func (r *reader) take(n int) ([]byte, error) {
	if len(r.data)-r.off < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w",
			n, r.off, len(r.data)-r.off, ErrBufferUnderflow)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// takeByte consumes the next single byte.
func (r *reader) takeByte() (byte, error) {
	if r.off >= len(r.data) {
		return 0, fmt.Errorf("need 1 byte at offset %d: %w", r.off, ErrBufferUnderflow)
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

// readUint decodes an integer value as unsigned. Signed markers are
// accepted when the value is non-negative: encoders pick a width class
// for the value, not for the schema's field type.
func (r *reader) readUint() (uint64, error) {
	m, err := r.takeByte()
	if err != nil {
		return 0, err
	}
	switch {
	case m <= 0x7f:
		return uint64(m), nil
	case m >= 0xe0:
		return 0, fmt.Errorf("negative value %d in unsigned field: %w", int8(m), ErrTypeMismatch)
	}

	signed := func(v int64) (uint64, error) {
		if v < 0 {
			return 0, fmt.Errorf("negative value %d in unsigned field: %w", v, ErrTypeMismatch)
		}
		return uint64(v), nil
	}

	switch m {
	case markerUint8:
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		return uint64(b[0]), nil
	case markerUint16:
		b, err := r.take(2)
		if err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint16(b)), nil
	case markerUint32:
		b, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint32(b)), nil
	case markerUint64:
		b, err := r.take(8)
		if err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint64(b), nil
	case markerInt8:
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		return signed(int64(int8(b[0])))
	case markerInt16:
		b, err := r.take(2)
		if err != nil {
			return 0, err
		}
		return signed(int64(int16(binary.BigEndian.Uint16(b))))
	case markerInt32:
		b, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return signed(int64(int32(binary.BigEndian.Uint32(b))))
	case markerInt64:
		b, err := r.take(8)
		if err != nil {
			return 0, err
		}
		return signed(int64(binary.BigEndian.Uint64(b)))
	}
	return 0, classError(m, "unsigned integer")
}

// readInt decodes an integer value as signed. Unsigned markers are
// accepted when the value fits int64.
func (r *reader) readInt() (int64, error) {
	m, err := r.takeByte()
	if err != nil {
		return 0, err
	}
	switch {
	case m <= 0x7f:
		return int64(m), nil
	case m >= 0xe0:
		return int64(int8(m)), nil
	}

	switch m {
	case markerUint8:
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		return int64(b[0]), nil
	case markerUint16:
		b, err := r.take(2)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint16(b)), nil
	case markerUint32:
		b, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint32(b)), nil
	case markerUint64:
		b, err := r.take(8)
		if err != nil {
			return 0, err
		}
		v := binary.BigEndian.Uint64(b)
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows signed field: %w", v, ErrTypeMismatch)
		}
		return int64(v), nil
	case markerInt8:
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		return int64(int8(b[0])), nil
	case markerInt16:
		b, err := r.take(2)
		if err != nil {
			return 0, err
		}
		return int64(int16(binary.BigEndian.Uint16(b))), nil
	case markerInt32:
		b, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return int64(int32(binary.BigEndian.Uint32(b))), nil
	case markerInt64:
		b, err := r.take(8)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	}
	return 0, classError(m, "integer")
}

// readFloat decodes a float32 or float64 value. Integer markers are a
// mismatch: the record schema types every fractional channel as a
// float, and encoders keep them that way.
func (r *reader) readFloat() (float64, error) {
	m, err := r.takeByte()
	if err != nil {
		return 0, err
	}
	switch m {
	case markerFloat32:
		b, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	case markerFloat64:
		b, err := r.take(8)
		if err != nil {
			return 0, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	}
	return 0, classError(m, "float")
}

// readBool decodes a boolean value.
func (r *reader) readBool() (bool, error) {
	m, err := r.takeByte()
	if err != nil {
		return false, err
	}
	switch m {
	case markerTrue:
		return true, nil
	case markerFalse:
		return false, nil
	}
	return false, classError(m, "bool")
}

// readString decodes a fixstr or str8 value. The returned string
// copies out of the buffer (Go string conversion), so it stays valid
// after the datagram buffer is reused.
func (r *reader) readString() (string, error) {
	m, err := r.takeByte()
	if err != nil {
		return "", err
	}
	var length int
	switch {
	case m >= fixstrLow && m <= fixstrHigh:
		length = int(m & 0x1f)
	case m == markerStr8:
		b, err := r.take(1)
		if err != nil {
			return "", err
		}
		length = int(b[0])
	default:
		return "", classError(m, "string")
	}
	b, err := r.take(length)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readMapHeader decodes a fixmap or map16 header and returns the entry
// count.
func (r *reader) readMapHeader() (int, error) {
	m, err := r.takeByte()
	if err != nil {
		return 0, err
	}
	switch {
	case m >= fixmapLow && m <= fixmapHigh:
		return int(m & 0x0f), nil
	case m == markerMap16:
		b, err := r.take(2)
		if err != nil {
			return 0, err
		}
		return int(binary.BigEndian.Uint16(b)), nil
	}
	return 0, classError(m, "map")
}

// readArrayHeader decodes a fixarray header and returns the element
// count.
func (r *reader) readArrayHeader() (int, error) {
	m, err := r.takeByte()
	if err != nil {
		return 0, err
	}
	if m >= fixarrayLow && m <= fixarrayHigh {
		return int(m & 0x0f), nil
	}
	return 0, classError(m, "array")
}

// skipValue advances past one encoded value of any supported type,
// recursing through nested maps and arrays. This is what lets a
// selective lookup pass over fields it does not want without decoding
// them.
func (r *reader) skipValue() error {
	m, err := r.takeByte()
	if err != nil {
		return err
	}
	switch {
	case m <= 0x7f || m >= 0xe0:
		return nil
	case m >= fixmapLow && m <= fixmapHigh:
		return r.skipValues(2 * int(m&0x0f))
	case m >= fixarrayLow && m <= fixarrayHigh:
		return r.skipValues(int(m & 0x0f))
	case m >= fixstrLow && m <= fixstrHigh:
		_, err := r.take(int(m & 0x1f))
		return err
	}

	switch m {
	case markerNil, markerFalse, markerTrue:
		return nil
	case markerUint8, markerInt8:
		_, err := r.take(1)
		return err
	case markerUint16, markerInt16:
		_, err := r.take(2)
		return err
	case markerUint32, markerInt32, markerFloat32:
		_, err := r.take(4)
		return err
	case markerUint64, markerInt64, markerFloat64:
		_, err := r.take(8)
		return err
	case markerStr8:
		b, err := r.take(1)
		if err != nil {
			return err
		}
		_, err = r.take(int(b[0]))
		return err
	case markerMap16:
		b, err := r.take(2)
		if err != nil {
			return err
		}
		return r.skipValues(2 * int(binary.BigEndian.Uint16(b)))
	}
	return fmt.Errorf("marker 0x%02x: %w", m, ErrUnknownMarker)
}

// skipValues skips n consecutive values. Map contents are 2n values
// since keys are values too.
func (r *reader) skipValues(n int) error {
	for i := 0; i < n; i++ {
		if err := r.skipValue(); err != nil {
			return err
		}
	}
	return nil
}
