// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"context"
	"errors"
	"sync"
)

// ErrSubscriberClosed is returned by Next after Close, once the queue
// has drained.
var ErrSubscriberClosed = errors.New("fanout: subscriber closed")

// Subscriber is one observer's bounded FIFO queue of observations.
// push keeps the newest entries: when the queue is full the oldest is
// evicted. The notify channel (capacity 1) wakes the consumer when new
// data arrives; consumers select on Notify alongside their context.
//
// Thread-safe: the hub pushes while the session goroutine pops.
type Subscriber struct {
	mu      sync.Mutex
	queue   []Observation
	dropped uint64
	closed  bool

	capacity int
	notify   chan struct{}
	done     chan struct{}
}

func newSubscriber(capacity int) *Subscriber {
	if capacity <= 0 {
		panic("fanout: non-positive subscriber queue capacity")
	}
	return &Subscriber{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// push appends an observation, evicting the oldest when the queue is
// at capacity. Reports whether an eviction happened. Push on a closed
// subscriber is a silent no-op: the hub may race Unsubscribe.
func (s *Subscriber) push(observation Observation) (evicted bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if len(s.queue) >= s.capacity {
		s.queue[0] = Observation{} // release the temps slice for GC
		s.queue = s.queue[1:]
		s.dropped++
		evicted = true
	}
	s.queue = append(s.queue, observation)
	s.mu.Unlock()

	// Non-blocking wake for the session goroutine.
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return evicted
}

// TryNext pops the oldest queued observation without blocking.
func (s *Subscriber) TryNext() (Observation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Observation{}, false
	}
	observation := s.queue[0]
	s.queue[0] = Observation{} // release the temps slice for GC
	s.queue = s.queue[1:]
	return observation, true
}

// Next pops the oldest queued observation, blocking until one arrives,
// the context is cancelled, or the subscriber is closed with an empty
// queue.
func (s *Subscriber) Next(ctx context.Context) (Observation, error) {
	for {
		if observation, ok := s.TryNext(); ok {
			return observation, nil
		}
		select {
		case <-ctx.Done():
			return Observation{}, ctx.Err()
		case <-s.done:
			// Drain anything pushed before the close.
			if observation, ok := s.TryNext(); ok {
				return observation, nil
			}
			return Observation{}, ErrSubscriberClosed
		case <-s.notify:
		}
	}
}

// Notify returns the wake channel: at most one pending signal per
// push. Consumers must recheck the queue after each signal.
func (s *Subscriber) Notify() <-chan struct{} { return s.notify }

// Done is closed when the subscriber is removed from the hub.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Dropped returns how many observations this subscriber's queue has
// evicted.
func (s *Subscriber) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Len returns the number of queued observations.
func (s *Subscriber) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// close marks the subscriber finished and wakes any blocked consumer.
// Idempotent; called by the hub under its write lock.
func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}
