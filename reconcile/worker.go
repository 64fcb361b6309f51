// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/waypoint-travel/waypoint/lib/schema"
	"github.com/waypoint-travel/waypoint/remote"
)

const (
	defaultQueueSize      = 256
	defaultAttemptTimeout = 10 * time.Second
)

// Config carries the dependencies for a Worker.
type Config struct {
	// Remote receives the mirrored writes. Required.
	Remote remote.Store

	// Logger receives attempt failures and queue overflow warnings.
	// Required.
	Logger *slog.Logger

	// QueueSize bounds the number of pending items. When the queue is
	// full, new items are dropped with a warning. Defaults to 256.
	QueueSize int

	// AttemptTimeout bounds each delivery attempt. Defaults to 10s.
	AttemptTimeout time.Duration

	// OnAttempt, if set, is called after every delivery attempt with
	// the item's record and the attempt's outcome.
	OnAttempt func(record schema.EntityRecord, err error)
}

type item struct {
	record schema.EntityRecord
	kind   schema.EventKind
}

// Worker drains a bounded queue of local writes against the remote
// store, one attempt per item.
type Worker struct {
	remote    remote.Store
	logger    *slog.Logger
	timeout   time.Duration
	onAttempt func(schema.EntityRecord, error)

	queue chan item
	done  chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

func New(cfg Config) (*Worker, error) {
	if cfg.Remote == nil {
		return nil, fmt.Errorf("reconcile: Remote is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("reconcile: Logger is required")
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	timeout := cfg.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	return &Worker{
		remote:    cfg.Remote,
		logger:    cfg.Logger,
		timeout:   timeout,
		onAttempt: cfg.OnAttempt,
		queue:     make(chan item, queueSize),
		done:      make(chan struct{}),
	}, nil
}

// Enqueue hands a local write to the worker. It never blocks: when the
// queue is full the item is dropped with a warning. Safe to call from
// any goroutine, including event handlers.
func (w *Worker) Enqueue(record schema.EntityRecord, kind schema.EventKind) {
	select {
	case w.queue <- item{record: record, kind: kind}:
	default:
		w.logger.Warn("reconcile queue full, dropping write",
			"kind", record.Kind, "id", record.ID, "seq", record.Seq)
	}
}

// Start launches the drain loop. The loop exits when ctx is cancelled,
// discarding anything still queued.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go w.run(ctx)
	})
}

// Wait blocks until the drain loop has exited or ctx expires.
func (w *Worker) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.stopOnce.Do(func() { close(w.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case next := <-w.queue:
			w.attempt(ctx, next)
		}
	}
}

// attempt makes the single delivery try for one item. Failures are
// logged and forgotten; there is no retry and no local rollback.
func (w *Worker) attempt(ctx context.Context, it item) {
	attemptCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.deliver(attemptCtx, it)
	if err != nil {
		w.logger.Warn("reconcile attempt failed",
			"kind", it.record.Kind, "id", it.record.ID,
			"event", it.kind, "error", err)
	}
	if w.onAttempt != nil {
		w.onAttempt(it.record, err)
	}
}

func (w *Worker) deliver(ctx context.Context, it item) error {
	table := string(it.record.Kind)
	switch it.kind {
	case schema.EventInsert:
		_, err := w.remote.Insert(ctx, table, recordFields(it.record))
		return err
	case schema.EventUpdate:
		return w.remote.Update(ctx, table, it.record.ID, recordFields(it.record))
	default:
		return fmt.Errorf("unsupported event kind %q", it.kind)
	}
}

func recordFields(record schema.EntityRecord) remote.Record {
	return remote.Record{
		"id":         record.ID,
		"owner_id":   record.OwnerID,
		"payload":    record.Payload,
		"seq":        record.Seq,
		"created_at": record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
