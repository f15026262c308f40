// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"sync"
	"sync/atomic"
)

// DefaultQueueSize bounds each subscriber queue unless the hub is
// built with an explicit size.
const DefaultQueueSize = 100

// Hub fans observations out to all current subscribers. Publish is
// lossy and never blocks: slow subscribers drop their own oldest
// entries and nobody else notices.
type Hub struct {
	queueSize int

	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewHub returns a Hub whose subscribers queue up to queueSize
// observations each. queueSize <= 0 selects DefaultQueueSize.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		queueSize:   queueSize,
		subscribers: make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new observer. The subscriber sees only
// observations published after this call. The caller must pair it
// with Unsubscribe.
func (h *Hub) Subscribe() *Subscriber {
	subscriber := newSubscriber(h.queueSize)
	h.mu.Lock()
	h.subscribers[subscriber] = struct{}{}
	h.mu.Unlock()
	return subscriber
}

// Unsubscribe removes the subscriber and closes it, waking any
// blocked consumer. Safe to call more than once.
func (h *Hub) Unsubscribe(subscriber *Subscriber) {
	h.mu.Lock()
	delete(h.subscribers, subscriber)
	h.mu.Unlock()
	subscriber.close()
}

// Publish offers one observation to every subscriber. Never blocks:
// full queues evict their oldest entry instead.
func (h *Hub) Publish(observation Observation) {
	h.mu.RLock()
	for subscriber := range h.subscribers {
		h.published.Add(1)
		if subscriber.push(observation) {
			h.dropped.Add(1)
		}
	}
	h.mu.RUnlock()
}

// Stats returns the live subscriber count and the monotonic
// published/dropped totals. Implements the metrics collector's hub
// interface.
func (h *Hub) Stats() (subscribers int, published, dropped uint64) {
	h.mu.RLock()
	subscribers = len(h.subscribers)
	h.mu.RUnlock()
	return subscribers, h.published.Load(), h.dropped.Load()
}
