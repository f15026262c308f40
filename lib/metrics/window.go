// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

// Window is a fixed-capacity ring of latency samples in microseconds.
// When full, each new sample overwrites the oldest, so the window
// always holds the most recent observations.
//
// Window does no locking; the Aggregator guards it with its mutex.
type Window struct {
	samples []int64
	next    int
	filled  int
}

// NewWindow returns a Window holding at most capacity samples.
// Panics if capacity is not positive.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		panic("metrics: non-positive window capacity")
	}
	return &Window{samples: make([]int64, capacity)}
}

// Add records one sample, evicting the oldest when the window is full.
func (w *Window) Add(micros int64) {
	w.samples[w.next] = micros
	w.next = (w.next + 1) % len(w.samples)
	if w.filled < len(w.samples) {
		w.filled++
	}
}

// Len returns the number of retained samples.
func (w *Window) Len() int { return w.filled }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.samples) }

// Samples returns a copy of the retained samples, in no particular
// order.
func (w *Window) Samples() []int64 {
	out := make([]int64, w.filled)
	copy(out, w.samples[:w.filled])
	return out
}
