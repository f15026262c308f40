// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry defines the record model shared by every pipeline
// stage: the Record struct carrying one car's sensor frame, the
// Priority levels that drive processing cost tiers, and the critical
// condition classifier.
//
// Records travel as MessagePack maps with short string keys (the Key*
// constants) to keep 500 Hz datagrams small. The msgpack struct tags
// bind Record to that wire naming; json tags serve diagnostic
// surfaces. Encoding and decoding live in lib/wire.
package telemetry
