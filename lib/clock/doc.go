// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction.
//
// Production code accepts a Clock parameter instead of calling
// time.Now, time.Since, time.After, time.NewTicker, or time.Sleep
// directly. Real() supplies standard library behavior; Fake() supplies
// a deterministic clock that moves only when Advance is called.
//
// The pipeline's latency gate measures elapsed wall-clock time through
// its Clock, which is what lets tests pair a FakeClock with a scripted
// load model: the model advances the clock by the synthetic processing
// cost, and the gate observes exactly that duration.
//
// When a waiter is registered by another goroutine (a reporter loop, a
// fan-out session), call WaitForTimers before Advance so the test
// cannot race the registration:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go session.Run(ctx)
//	c.WaitForTimers(1)
//	c.Advance(30 * time.Second) // keep-alive fires deterministically
package clock
