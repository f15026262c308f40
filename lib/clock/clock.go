// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts time for testability. Production code injects
// Real(); tests inject Fake() and advance time explicitly.
//
// Code that would otherwise call time.Now, time.Since, time.After,
// time.NewTicker, or time.Sleep takes a Clock parameter (or holds one
// in a struct field) instead. The latency gate, the reporter interval,
// and the fan-out keep-alive all run on injected clocks so tests never
// depend on real elapsed time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the elapsed time between t and Now.
	Since(t time.Time) time.Duration

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker delivering ticks on C every d.
	// Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker

	// Sleep blocks the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Ticker delivers periodic ticks on C. Stop releases it. C has
// capacity 1: if the consumer falls behind, ticks are dropped rather
// than queued, matching time.Ticker.
type Ticker struct {
	C <-chan time.Time

	stopFunc  func()
	resetFunc func(time.Duration)
}

// Stop turns the ticker off. No ticks are delivered after Stop
// returns. Stop does not close C.
func (t *Ticker) Stop() { t.stopFunc() }

// Reset restarts the tick cycle with a new interval. The next tick
// arrives after d elapses.
func (t *Ticker) Reset(d time.Duration) { t.resetFunc(d) }
