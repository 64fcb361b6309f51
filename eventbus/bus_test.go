// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package eventbus

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/waypoint-travel/waypoint/lib/testutil"
)

func TestDeliveryInSubscriptionOrder(t *testing.T) {
	bus := New(nil)
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		bus.Subscribe("bookings:u1", func(Event) {
			order = append(order, name)
		})
	}

	bus.Publish("bookings:u1", "payload")

	want := []string{"first", "second", "third"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Fatalf("delivery order %v, want %v", order, want)
	}
}

func TestPublishOrderPreservedPerSubscriber(t *testing.T) {
	bus := New(nil)
	var got []int
	bus.Subscribe("bookings:u1", func(e Event) {
		got = append(got, e.Payload.(int))
	})
	for i := 0; i < 10; i++ {
		bus.Publish("bookings:u1", i)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("received %v, want ascending 0..9", got)
		}
	}
	if len(got) != 10 {
		t.Fatalf("received %d events, want 10", len(got))
	}
}

func TestExactTopicMatchOnly(t *testing.T) {
	bus := New(nil)
	delivered := 0
	bus.Subscribe("bookings:u1", func(Event) { delivered++ })

	bus.Publish("bookings:u2", nil)
	bus.Publish("activities:u1", nil)
	bus.Publish("bookings", nil)

	if delivered != 0 {
		t.Fatalf("delivered %d events across topic boundaries", delivered)
	}
}

func TestPublishWithoutSubscribersIsLost(t *testing.T) {
	bus := New(nil)
	// Must not panic or block.
	bus.Publish("tracking:fleet", "nobody listening")
}

func TestPanickingHandlerDoesNotStopDispatch(t *testing.T) {
	bus := New(nil)
	reached := false
	bus.Subscribe("bookings:u1", func(Event) { panic("handler bug") })
	bus.Subscribe("bookings:u1", func(Event) { reached = true })

	bus.Publish("bookings:u1", nil)

	if !reached {
		t.Fatal("handler after the panicking one was not invoked")
	}
}

func TestUnsubscribeDuringOwnInvocation(t *testing.T) {
	bus := New(nil)
	calls := 0
	var unsubscribe func()
	unsubscribe = bus.Subscribe("bookings:u1", func(Event) {
		calls++
		unsubscribe()
	})
	other := 0
	bus.Subscribe("bookings:u1", func(Event) { other++ })

	bus.Publish("bookings:u1", nil)
	bus.Publish("bookings:u1", nil)

	if calls != 1 {
		t.Fatalf("self-unsubscribing handler ran %d times, want 1", calls)
	}
	if other != 2 {
		t.Fatalf("co-subscriber ran %d times, want 2 (in-flight delivery unaffected)", other)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := New(nil)
	calls := 0
	unsubscribe := bus.Subscribe("bookings:u1", func(Event) { calls++ })
	unsubscribe()
	unsubscribe()
	bus.Publish("bookings:u1", nil)
	if calls != 0 {
		t.Fatalf("handler ran after unsubscribe")
	}
}

func TestNestedPublishRunsAfterCurrentHandlerLoop(t *testing.T) {
	bus := New(nil)
	var order []string

	bus.Subscribe("bookings:u1", func(Event) {
		order = append(order, "outer-first")
		bus.Publish("activities:u1", nil)
	})
	bus.Subscribe("bookings:u1", func(Event) {
		order = append(order, "outer-second")
	})
	bus.Subscribe("activities:u1", func(Event) {
		order = append(order, "nested")
	})

	bus.Publish("bookings:u1", nil)

	want := []string{"outer-first", "outer-second", "nested"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Fatalf("order %v, want %v (nested publish must wait for the outer loop)", order, want)
	}
}

func TestSubscribeBeforeAnyPublishReceivesEverything(t *testing.T) {
	bus := New(nil)
	received := 0
	bus.Subscribe("profile:u9", func(Event) { received++ })
	for i := 0; i < 5; i++ {
		bus.Publish("profile:u9", nil)
	}
	if received != 5 {
		t.Fatalf("received %d, want 5", received)
	}
}

func TestConcurrentPublishWaitsForItsHandlers(t *testing.T) {
	bus := New(nil)

	entered := make(chan struct{})
	gate := make(chan struct{})
	bus.Subscribe("bookings:u1", func(Event) {
		entered <- struct{}{}
		<-gate
	})

	var delivered atomic.Bool
	bus.Subscribe("tracking:fleet", func(Event) {
		delivered.Store(true)
	})

	go bus.Publish("bookings:u1", nil)
	testutil.RequireReceive(t, entered, 5*time.Second, "first publish entering its handler")

	// With the first dispatch parked inside its handler, a publish
	// from this goroutine must not return until its own subscriber
	// has been invoked.
	returned := make(chan bool, 1)
	go func() {
		bus.Publish("tracking:fleet", nil)
		returned <- delivered.Load()
	}()

	testutil.RequireNoReceive(t, returned, 100*time.Millisecond,
		"Publish returning while another dispatch is active")

	close(gate)
	if !testutil.RequireReceive(t, returned, 5*time.Second, "second publish completing") {
		t.Fatal("Publish returned before its handler was invoked")
	}
}

func TestConcurrentPublishersSerializeDispatch(t *testing.T) {
	bus := New(nil)

	var mu sync.Mutex
	depth, maxDepth := 0, 0
	bus.Subscribe("bookings:u1", func(Event) {
		mu.Lock()
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		depth--
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				bus.Publish("bookings:u1", nil)
			}
		}()
	}
	wg.Wait()

	if maxDepth != 1 {
		t.Fatalf("handler invocations overlapped (max depth %d)", maxDepth)
	}
}
