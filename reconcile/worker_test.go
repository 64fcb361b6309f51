// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/waypoint-travel/waypoint/lib/schema"
	"github.com/waypoint-travel/waypoint/lib/testutil"
	"github.com/waypoint-travel/waypoint/remote"
)

type call struct {
	method string
	table  string
	id     string
}

// fakeRemote records calls and answers with a configurable error.
type fakeRemote struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeRemote) Insert(ctx context.Context, table string, record remote.Record) (remote.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{"insert", table, fmt.Sprint(record["id"])})
	return record, f.err
}

func (f *fakeRemote) Update(ctx context.Context, table, id string, patch remote.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{"update", table, id})
	return f.err
}

func (f *fakeRemote) Query(ctx context.Context, table string, filter remote.Filter) ([]remote.Record, error) {
	return nil, nil
}

func (f *fakeRemote) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func testRecord(id string, seq uint64) schema.EntityRecord {
	return schema.EntityRecord{
		Kind:      schema.KindBooking,
		ID:        id,
		OwnerID:   "u1",
		Payload:   []byte{0xa0},
		Seq:       seq,
		CreatedAt: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func startWorker(t *testing.T, cfg Config) (*Worker, chan error) {
	t.Helper()
	attempts := make(chan error, 64)
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.OnAttempt = func(record schema.EntityRecord, err error) {
		attempts <- err
	}
	worker, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	worker.Start(ctx)
	return worker, attempts
}

func TestWorkerDeliversInsertAndUpdate(t *testing.T) {
	backend := &fakeRemote{}
	worker, attempts := startWorker(t, Config{Remote: backend})

	worker.Enqueue(testRecord("b1", 1), schema.EventInsert)
	worker.Enqueue(testRecord("b1", 2), schema.EventUpdate)

	for i := 0; i < 2; i++ {
		err := testutil.RequireReceive(t, attempts, 5*time.Second, "delivery attempt")
		if err != nil {
			t.Fatalf("attempt failed: %v", err)
		}
	}

	calls := backend.snapshot()
	if len(calls) != 2 {
		t.Fatalf("backend saw %d calls, want 2", len(calls))
	}
	if calls[0] != (call{"insert", "bookings", "b1"}) {
		t.Fatalf("first call %+v", calls[0])
	}
	if calls[1] != (call{"update", "bookings", "b1"}) {
		t.Fatalf("second call %+v", calls[1])
	}
}

func TestWorkerFailureIsSingleAttempt(t *testing.T) {
	backend := &fakeRemote{err: fmt.Errorf("backend down")}
	worker, attempts := startWorker(t, Config{Remote: backend})

	worker.Enqueue(testRecord("b1", 1), schema.EventInsert)

	err := testutil.RequireReceive(t, attempts, 5*time.Second, "delivery attempt")
	if err == nil {
		t.Fatal("attempt against dead backend reported success")
	}
	// No retry: the item must not come back.
	testutil.RequireNoReceive(t, attempts, 100*time.Millisecond, "retry of a failed item")

	if calls := backend.snapshot(); len(calls) != 1 {
		t.Fatalf("backend saw %d calls, want exactly 1", len(calls))
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	// A worker that was never started drains nothing, so a tiny queue
	// overflows immediately. Every Enqueue must still return.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	worker, err := New(Config{Remote: &fakeRemote{}, Logger: logger, QueueSize: 4})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			worker.Enqueue(testRecord(testutil.UniqueID("booking"), uint64(i)), schema.EventInsert)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestWaitReturnsAfterCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	worker, err := New(Config{Remote: &fakeRemote{}, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := worker.Wait(waitCtx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestUnsupportedEventKindFailsAttempt(t *testing.T) {
	backend := &fakeRemote{}
	worker, attempts := startWorker(t, Config{Remote: backend})

	worker.Enqueue(testRecord("b1", 1), schema.EventDelete)

	err := testutil.RequireReceive(t, attempts, 5*time.Second, "delivery attempt")
	if err == nil {
		t.Fatal("delete event was delivered; no remote mapping exists for it")
	}
	if calls := backend.snapshot(); len(calls) != 0 {
		t.Fatalf("backend saw %d calls, want 0", len(calls))
	}
}
