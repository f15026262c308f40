// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the standard CBOR encoding configuration for
// internal protocols.
//
// Pitwall uses three serialization formats with a clear boundary:
//
//   - MessagePack for the telemetry wire format (lib/wire): the
//     format the car-side encoder emits on the UDP datagram path.
//   - JSON for external interfaces: the dashboard WebSocket stream
//     and CLI output.
//   - CBOR for internal protocols: the control socket between the
//     ingest daemon and operator tooling.
//
// This package provides the shared CBOR encoding and decoding modes
// so that every package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC
// 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces
// identical bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
package codec
