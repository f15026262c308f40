// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"sync"
	"testing"
)

func observationWithID(id uint64) Observation {
	return Observation{Timestamp: id}
}

func TestHubDeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub(10)
	first := hub.Subscribe()
	second := hub.Subscribe()

	hub.Publish(observationWithID(1))

	for name, subscriber := range map[string]*Subscriber{"first": first, "second": second} {
		observation, ok := subscriber.TryNext()
		if !ok {
			t.Fatalf("%s subscriber: TryNext() empty after publish", name)
		}
		if observation.Timestamp != 1 {
			t.Fatalf("%s subscriber: Timestamp = %d, want 1", name, observation.Timestamp)
		}
	}

	subscribers, published, dropped := hub.Stats()
	if subscribers != 2 || published != 2 || dropped != 0 {
		t.Fatalf("Stats() = (%d, %d, %d), want (2, 2, 0)", subscribers, published, dropped)
	}
}

func TestHubNoReplayForLateSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub(10)
	hub.Publish(observationWithID(1))

	late := hub.Subscribe()
	if _, ok := late.TryNext(); ok {
		t.Fatal("late subscriber received an observation published before Subscribe")
	}

	hub.Publish(observationWithID(2))
	observation, ok := late.TryNext()
	if !ok || observation.Timestamp != 2 {
		t.Fatalf("late subscriber got (%v, %v), want observation 2", observation.Timestamp, ok)
	}
}

func TestHubDropOldestOnStalledConsumer(t *testing.T) {
	t.Parallel()

	hub := NewHub(3)
	stalled := hub.Subscribe()
	healthy := hub.Subscribe()

	// Five publishes against capacity 3: the stalled queue keeps the
	// newest three, the healthy consumer drains as it goes.
	for id := uint64(1); id <= 5; id++ {
		hub.Publish(observationWithID(id))
		if _, ok := healthy.TryNext(); !ok {
			t.Fatalf("healthy subscriber missed observation %d", id)
		}
	}

	var got []uint64
	for {
		observation, ok := stalled.TryNext()
		if !ok {
			break
		}
		got = append(got, observation.Timestamp)
	}
	want := []uint64{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("stalled queue drained %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stalled queue drained %v, want %v (oldest first)", got, want)
		}
	}

	if stalled.Dropped() != 2 {
		t.Errorf("stalled.Dropped() = %d, want 2", stalled.Dropped())
	}
	if healthy.Dropped() != 0 {
		t.Errorf("healthy.Dropped() = %d, want 0", healthy.Dropped())
	}
	_, published, dropped := hub.Stats()
	if published != 10 || dropped != 2 {
		t.Errorf("Stats() published=%d dropped=%d, want 10 and 2", published, dropped)
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	hub := NewHub(10)
	subscriber := hub.Subscribe()
	hub.Unsubscribe(subscriber)

	select {
	case <-subscriber.Done():
	default:
		t.Fatal("Done() not closed after Unsubscribe")
	}

	hub.Publish(observationWithID(1))
	if _, ok := subscriber.TryNext(); ok {
		t.Fatal("unsubscribed subscriber received an observation")
	}

	// Second Unsubscribe must not panic.
	hub.Unsubscribe(subscriber)

	if subscribers, _, _ := hub.Stats(); subscribers != 0 {
		t.Fatalf("Stats() subscribers = %d after Unsubscribe, want 0", subscribers)
	}
}

func TestHubPublishSubscribeRace(t *testing.T) {
	t.Parallel()

	hub := NewHub(8)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for id := range uint64(500) {
			hub.Publish(observationWithID(id))
		}
	}()
	go func() {
		defer wg.Done()
		for range 100 {
			subscriber := hub.Subscribe()
			subscriber.TryNext()
			hub.Unsubscribe(subscriber)
		}
	}()
	wg.Wait()

	if subscribers, _, _ := hub.Stats(); subscribers != 0 {
		t.Fatalf("Stats() subscribers = %d after churn, want 0", subscribers)
	}
}
