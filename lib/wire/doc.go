// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire implements the MessagePack subset that telemetry
// datagrams use on the UDP wire: fixint/fixmap/fixarray/fixstr
// families, map16, str8, nil, booleans, both float widths, and all
// fixed-width integer markers, big-endian throughout.
//
// Two decode paths share one low-level reader:
//
//   - View is the selective path the processor runs on every datagram.
//     It scans the record map for just the fields the accept/drop
//     decision needs, skipping other values without decoding them, and
//     memoizes each resolved field so nothing is scanned twice for the
//     same record.
//
//   - DecodeRecord is the full path, run on sampled records bound for
//     the fan-out and anywhere a complete telemetry.Record is wanted.
//
// EncodeRecord produces the canonical wire form via
// vmihailenco/msgpack from the Record struct tags; the hand-rolled
// decoders are validated against it in tests.
//
// Decode failures are classified into four sentinel errors
// (ErrBufferUnderflow, ErrUnknownMarker, ErrTypeMismatch,
// ErrFieldNotFound); all are fatal for the datagram, and none produce
// a partial record.
package wire
