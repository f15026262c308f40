// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
)

// ErrIdle is returned by a Source when its inactivity timeout passes
// without traffic. The ingestion loop treats it as a clean shutdown:
// the stream ended, summarize and exit.
var ErrIdle = errors.New("pipeline: source idle")

// Source yields raw datagrams to the ingestion loop.
type Source interface {
	// Receive blocks for the next datagram and returns its bytes.
	// The returned slice is owned by the caller: implementations
	// must not reuse it for subsequent reads. Returns ErrIdle when
	// the source's inactivity timeout elapses, or the context error
	// when ctx is cancelled mid-receive.
	Receive(ctx context.Context) ([]byte, error)
}
