// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package eventbus

import (
	"bytes"
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
)

// Event is the envelope delivered to handlers. Payload is typically a
// schema.DomainEvent for entity topics or a tracking.FleetUpdate for
// the fleet topic; the bus itself never inspects it.
type Event struct {
	Topic   string
	Payload any
}

// Handler receives events for one subscription. Handlers run on the
// publishing goroutine and should return quickly; slow work belongs
// on the handler's own goroutine.
type Handler func(event Event)

// Bus routes events by exact topic match. The zero value is not
// usable; construct with New.
type Bus struct {
	logger *slog.Logger

	mu          sync.Mutex
	idle        *sync.Cond
	subscribers map[string][]*subscription
	nextToken   uint64

	// pending and dispatching implement the nested-publish queue: a
	// publish made from inside a handler (same goroutine as the
	// active drain) is appended here and delivered by that drain
	// after the current handler loop completes. A publish from a
	// different goroutine instead waits on idle until the drain
	// finishes, then runs its own: every top-level Publish returns
	// only after its handlers have been invoked.
	pending     []Event
	dispatching bool
	dispatcher  uint64
}

// subscription pairs a handler with a removal token. Tokens make
// unsubscribe independent of slice position, so handlers can safely
// unsubscribe during dispatch.
type subscription struct {
	token   uint64
	handler Handler
}

// New creates an empty bus. A nil logger discards handler panic
// reports.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &Bus{
		logger:      logger,
		subscribers: make(map[string][]*subscription),
	}
	b.idle = sync.NewCond(&b.mu)
	return b
}

// Subscribe registers handler for topic and returns its unsubscribe
// function. Subscribing to a topic nobody publishes on is valid; the
// handler simply waits. The unsubscribe function is idempotent and
// safe to call from within the handler itself — in-flight delivery
// to other handlers of the same publish is unaffected.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextToken++
	sub := &subscription{token: b.nextToken, handler: handler}
	b.subscribers[topic] = append(b.subscribers[topic], sub)

	token := sub.token
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[topic]
		for i, s := range subs {
			if s.token == token {
				b.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(b.subscribers[topic]) == 0 {
			delete(b.subscribers, topic)
		}
	}
}

// Publish delivers an event to every current subscriber of topic, in
// subscription order, on the calling goroutine. When called from
// within a handler, the event is queued and delivered after the
// current handler loop; every other Publish returns only after all
// its handlers have run, waiting out any dispatch already active on
// another goroutine.
func (b *Bus) Publish(topic string, payload any) {
	self := goroutineID()

	b.mu.Lock()
	if b.dispatching && b.dispatcher == self {
		// Nested publish: the drain loop below us on this stack
		// delivers it after the current handler loop.
		b.pending = append(b.pending, Event{Topic: topic, Payload: payload})
		b.mu.Unlock()
		return
	}
	for b.dispatching {
		b.idle.Wait()
	}
	b.dispatching = true
	b.dispatcher = self
	b.pending = append(b.pending, Event{Topic: topic, Payload: payload})

	for len(b.pending) > 0 {
		event := b.pending[0]
		b.pending = b.pending[1:]

		// Snapshot the handler list so unsubscribes during dispatch
		// do not disturb this delivery. A handler that unsubscribed
		// itself earlier in this same drain is skipped via the live
		// membership check below.
		snapshot := append([]*subscription(nil), b.subscribers[event.Topic]...)
		b.mu.Unlock()

		for _, sub := range snapshot {
			if !b.stillSubscribed(event.Topic, sub.token) {
				continue
			}
			b.invoke(event, sub.handler)
		}

		b.mu.Lock()
	}
	b.dispatching = false
	b.dispatcher = 0
	b.idle.Broadcast()
	b.mu.Unlock()
}

// goroutineID parses the current goroutine's id from its stack
// header ("goroutine N [running]:"). The bus needs it to tell a
// nested publish, which must queue behind the drain running lower on
// this goroutine's stack, from a concurrent publish, which must wait
// for that drain to finish.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		panic("eventbus: unparseable goroutine header: " + string(buf[:n]))
	}
	return id
}

// stillSubscribed reports whether the token is still registered on
// topic. Subscribers removed mid-dispatch receive no further events,
// per the bus contract.
func (b *Bus) stillSubscribed(topic string, token uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subscribers[topic] {
		if s.token == token {
			return true
		}
	}
	return false
}

// invoke runs one handler with panic isolation. A panic is logged
// with its stack and dispatch continues with the next handler.
func (b *Bus) invoke(event Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"topic", event.Topic,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	handler(event)
}
