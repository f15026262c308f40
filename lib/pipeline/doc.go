// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline is the ingestion path: one goroutine receiving raw
// datagrams from a Source, making a strictly ordered accept/drop
// decision per datagram, and fanning a sampled subset out to live
// observers.
//
// The Processor owns the decision. Each datagram is counted on
// arrival, selectively decoded (record id, priority, speed — nothing
// else), charged a synthetic processing cost when load simulation is
// active, and then gated on wall-clock latency: within budget the raw
// bytes enter the recency buffer, over budget the record is dropped
// with its latency still sampled. Corruption and decode failures drop
// before measurement begins.
//
// Pipeline.Run wires a Source to a Processor and publishes every Nth
// accepted record, fully decoded, to the fan-out hub. Drop causes are
// logged sampled, never per record: at 500 datagrams a second a noisy
// failure mode would otherwise own the log.
package pipeline
