// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

// RecencyBuffer holds the raw bytes of the most recently accepted
// datagrams for diagnostics. Count-bounded ring: pushing into a full
// buffer evicts the single oldest entry.
//
// The buffer is owned by the ingestion goroutine and does no locking;
// occupancy reaches other goroutines only through log lines.
type RecencyBuffer struct {
	entries [][]byte
	next    int
	filled  int
}

// NewRecencyBuffer returns a buffer retaining up to capacity
// datagrams. Panics if capacity is not positive.
func NewRecencyBuffer(capacity int) *RecencyBuffer {
	if capacity <= 0 {
		panic("pipeline: non-positive recency buffer capacity")
	}
	return &RecencyBuffer{entries: make([][]byte, capacity)}
}

// Push stores one datagram, evicting the oldest when full. The buffer
// takes ownership of raw.
func (b *RecencyBuffer) Push(raw []byte) {
	b.entries[b.next] = raw
	b.next = (b.next + 1) % len(b.entries)
	if b.filled < len(b.entries) {
		b.filled++
	}
}

// Len returns the number of retained datagrams.
func (b *RecencyBuffer) Len() int { return b.filled }

// Cap returns the buffer capacity.
func (b *RecencyBuffer) Cap() int { return len(b.entries) }

// Recent returns up to n retained datagrams, newest first. The
// returned slices alias the stored bytes; callers must not mutate
// them.
func (b *RecencyBuffer) Recent(n int) [][]byte {
	if n > b.filled {
		n = b.filled
	}
	if n <= 0 {
		return nil
	}
	out := make([][]byte, n)
	for i := range out {
		// next-1 is the newest entry, wrapping backwards.
		index := (b.next - 1 - i + len(b.entries)) % len(b.entries)
		out[i] = b.entries[index]
	}
	return out
}
