// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/pitwall-systems/pitwall/lib/clock"
)

// DefaultKeepAlive is the idle interval after which Serve emits a
// keep-alive when no observation has been delivered.
const DefaultKeepAlive = 30 * time.Second

// Sink consumes one session's observations. Implementations wrap a
// transport (websocket, test recorder); both methods are called from
// the single session goroutine.
type Sink interface {
	// Send delivers one observation.
	Send(Observation) error

	// KeepAlive probes the transport across idle stretches.
	KeepAlive() error
}

// Serve delivers a subscriber's observations to sink until the context
// is cancelled, the subscriber is unsubscribed, or the sink fails.
// Cancellation and unsubscription return nil; any sink error is
// returned wrapped. After keepAlive without a delivery, sink.KeepAlive
// is called; keepAlive <= 0 selects DefaultKeepAlive.
func Serve(ctx context.Context, subscriber *Subscriber, sink Sink, keepAlive time.Duration, clk clock.Clock) error {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	ticker := clk.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		// Drain everything already queued before sleeping.
		for {
			observation, ok := subscriber.TryNext()
			if !ok {
				break
			}
			if err := sink.Send(observation); err != nil {
				return fmt.Errorf("sending observation: %w", err)
			}
			ticker.Reset(keepAlive)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-subscriber.Done():
			return nil
		case <-subscriber.Notify():
		case <-ticker.C:
			if err := sink.KeepAlive(); err != nil {
				return fmt.Errorf("sending keep-alive: %w", err)
			}
		}
	}
}
