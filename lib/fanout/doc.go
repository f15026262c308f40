// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// Package fanout distributes sampled telemetry observations to live
// observers (dashboard websockets, tests) without ever slowing the
// ingestion path.
//
// The Hub is a lossy publisher: Publish never blocks. Each Subscriber
// owns an independent bounded queue; when a queue is full the oldest
// observation is evicted, so a stalled observer loses old data while
// the pipeline and every other observer proceed untouched. There is
// no replay — a new subscriber sees only observations published after
// it subscribed.
//
// Serve runs one delivery session: it drains a subscriber's queue
// into a Sink and emits keep-alives across idle stretches. Any sink
// error ends the session; sessions never outlive their subscriber or
// context.
package fanout
