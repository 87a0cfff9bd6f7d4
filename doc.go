// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pageflow implements the asynchronous page-frame execution
// pipeline of a columnar scan: a table is decomposed into page-aligned row
// ranges ("frames") that flow through a dispatch → reduce → collect
// pipeline built on the lock-free ring buffers in internal/ring and the
// sharded queues in internal/bus.
//
// Query code never touches the ring or bus packages directly. It builds a
// [RecordCursorFactory] and a [Reducer], obtains a [Bus], and drives a
// [FrameSequence] through [Collector]:
//
// # Quick Start
//
//	b := pageflow.NewBus(cfg, nil)
//	pool := pageflow.NewReduceJobPool(ctx, b, cfg.WorkerCount, logger)
//	defer pool.Close()
//
//	ectx := pageflow.NewExecutionContext(b, cfg.WorkerCount, nil)
//	fs := pageflow.NewFrameSequence(reducer, cfg.WorkerCount)
//	cursor, err := pageflow.NewCollector(ctx, fs, factory, ectx, atom, -1)
//	if err != nil {
//	    return err
//	}
//	defer cursor.Close()
//	for cursor.HasNext() {
//	    process(cursor.Record())
//	}
//
// # Basic usage
//
// [FrameSequence.Dispatch] opens the factory's page-frame cursor, walks it
// once to populate the page-address cache, picks a shard, and publishes one
// dispatch task. That task expands into one reduce task per frame; any
// goroutine, including the caller's own inside [FrameSequence.Await], may
// run that expansion, because it is rentable: progress is tracked on the
// frame sequence's dispatchStartIndex, never in the queue slot.
//
// Worker goroutines started by [NewReduceJobPool] run [ConsumeOne] against a
// per-worker shuffled shard order, invoking the query's [Reducer] on
// whichever frame it dequeues.
//
// [Collector] is the foreground's row-by-row view of one
// frame sequence. It filters the shard's collect fan-out down to its own
// identity, steals dispatch and reduce work when starved instead of
// blocking, and honors an optional row LIMIT by calling
// [FrameSequence.SetValid] once exhausted.
//
// # Common patterns
//
// Restarting a cursor without re-dispatching a new query:
//
//	cursor.ToTop()
//	for cursor.HasNext() { ... }
//
// Cancelling from an external deadline:
//
//	go func() {
//	    <-ctx.Done()
//	    fs.SetValid(false)
//	}()
//
// [ErrWouldBlock] and its helpers mirror the convention of the ring-buffer
// packages this one is built on: a stealing attempt that finds no work is a
// control-flow signal, not a failure, and callers back off rather than
// propagate it.
package pageflow
