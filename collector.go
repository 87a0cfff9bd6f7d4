// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"context"

	"code.hybscloud.com/pageflow/internal/bus"
	"code.hybscloud.com/pageflow/internal/ring"
)

// Collector is the foreground collect cursor: a pull-based RecordCursor
// that walks a frame sequence's shard's reduce queue in dispatch order,
// surfacing each surviving row exactly once, stopping early once limit
// rows have been yielded.
//
// A Collector owns a private SCSequence on its shard's reduce ring
// (fs.collectSubSeq), attached to the shard's collect fan-out for the
// duration of the query, so the reduce publisher can never overrun a slot
// this collector still needs even if every worker has already drained it.
type Collector struct {
	fs    *FrameSequence
	ectx  *ExecutionContext
	shard *bus.Shard

	expectedGeneration int64

	currentCursor ring.Cursor
	haveCursor    bool

	rows            []int64
	rowIndexInFrame int64
	rowCountInFrame int64
	frameIndex      int
	framesCollected int64

	limit         int64
	rowsRemaining int64
	rowServed     bool

	log    *Logger
	closed bool
}

// NewCollector dispatches fs against factory and returns a Collector ready
// to walk its results. A negative limit means unlimited.
func NewCollector(ctx context.Context, fs *FrameSequence, factory RecordCursorFactory, ectx *ExecutionContext, atom any, limit int64) (*Collector, error) {
	if err := fs.Dispatch(ctx, ectx, factory, atom); err != nil {
		return nil, err
	}
	c := &Collector{
		fs:                 fs,
		ectx:               ectx,
		shard:              fs.shard,
		expectedGeneration: fs.generation,
		limit:              limit,
		rowsRemaining:      limit,
		log:                fs.log,
	}
	return c, nil
}

// HasNext advances past the row the previous HasNext call positioned (if
// any) and reports whether another surviving row follows. It may block
// briefly, busy-helping dispatch and reduce work on fs's shard while it
// waits for the next frame's reduce task to finish. Record reads the row
// HasNext just positioned; it is undefined to call Record without an
// immediately preceding HasNext that returned true.
func (c *Collector) HasNext() bool {
	if c.rowServed {
		c.rowIndexInFrame++
		c.rowsRemaining--
		if c.fs.bus != nil && c.fs.bus.inner.Metrics != nil {
			c.fs.bus.inner.Metrics.RowsCollected.WithLabelValues(shardLabel(c.shard)).Inc()
		}
		c.rowServed = false
	}
	if c.closed {
		return false
	}
	if c.limit >= 0 && c.rowsRemaining <= 0 {
		// LIMIT satisfied: invalidate so outstanding reduce tasks for
		// frames this collector will never visit stop contributing rows.
		c.fs.SetValid(false)
		return false
	}
	for c.rowIndexInFrame >= c.rowCountInFrame {
		if !c.fetchNextFrame() {
			return false
		}
	}
	c.rowServed = true
	return true
}

// fetchNextFrame advances to the next non-stale reduce task published for
// fs, skipping tasks left over from a prior generation. It returns false
// once the shard reports no further frames and this frame sequence's
// dispatch is complete.
func (c *Collector) fetchNextFrame() bool {
	// Release the previous frame's slot only now, after every row in it has
	// been read: Rows is a reference into the ring's backing array, and
	// releasing early would let the publisher overwrite it out from under
	// an in-progress read.
	if c.haveCursor {
		c.fs.collectSubSeq.Done(c.currentCursor)
		c.haveCursor = false
	}
	for {
		if c.fs.dispatchComplete() && c.framesCollected >= c.fs.frameCount {
			return false
		}

		cur := c.fs.collectSubSeq.Next()
		if cur == ring.Empty {
			c.fs.stepDispatch()
			stealDispatchQueue(c.ectx.Bus.inner)
			ConsumeOne(c.shard, len(c.fs.records)-1, c.log)
			continue
		}

		// Wait for the reduce worker assigned to this cursor to finish
		// before trusting its Rows; help out in the meantime.
		for c.shard.ReduceSub.Current() < cur {
			ConsumeOne(c.shard, len(c.fs.records)-1, c.log)
		}

		task := c.shard.ReduceQueue.Get(cur)
		sameIdentity := task.FrameSequenceRef == c.fs
		sameGeneration := task.Generation == c.expectedGeneration
		if !sameIdentity || !sameGeneration {
			c.fs.collectSubSeq.Done(cur)
			continue
		}
		if !c.fs.Valid() {
			// Invalidated: drain this frame without surfacing its rows.
			c.framesCollected++
			task.Collected = true
			c.fs.collectSubSeq.Done(cur)
			continue
		}

		c.currentCursor = cur
		c.haveCursor = true
		c.rows = task.Rows
		c.rowCountInFrame = int64(len(task.Rows))
		c.rowIndexInFrame = 0
		c.frameIndex = task.FrameIndex
		c.framesCollected++
		task.Collected = true
		if c.rowCountInFrame > 0 {
			return true
		}
		// An empty frame: release it and loop for the next one instead of
		// surfacing a zero-row stop to the caller.
		c.fs.collectSubSeq.Done(cur)
		c.haveCursor = false
	}
}

// Record returns the current row bound into fs's primary scratch Record.
func (c *Collector) Record() Record {
	rec := c.fs.recordFor(len(c.fs.records) - 1)
	rec.Bind(c.fs.pageAddressCache.Get(c.frameIndex), c.rows[c.rowIndexInFrame])
	return rec
}

// RecordB returns the current row bound into a second scratch Record,
// for reducers/consumers that compare two rows at once (e.g. a join probe).
func (c *Collector) RecordB() Record {
	rec := c.fs.recordFor(0)
	rec.Bind(c.fs.pageAddressCache.Get(c.frameIndex), c.rows[c.rowIndexInFrame])
	return rec
}

// RecordAt binds rec directly to an arbitrary RowID, bypassing cursor
// position, for callers that captured a RowID earlier and need to revisit
// it (e.g. a sort that buffers ids before materializing rows).
func (c *Collector) RecordAt(rec Record, id RowID) {
	frameIndex := int(ToPartitionIndex(id))
	rec.Bind(c.fs.pageAddressCache.Get(frameIndex), int64(ToLocalRowID(id)))
}

// Size reports the total surviving row count if known ahead of a full
// scan, or SizeUnknown otherwise. This pipeline never knows it ahead of
// time: survivorship depends on the reducer.
func (c *Collector) Size() int64 { return SizeUnknown }

// SymbolTable delegates to the underlying factory's symbol table source.
func (c *Collector) SymbolTable(columnIndex int) SymbolTable {
	src := c.fs.factory.SymbolTableSource()
	if src == nil {
		return nil
	}
	return src.SymbolTable(columnIndex)
}

// ToTop rewinds this collector's frame sequence for a fresh pass, bumping
// its generation so any task left in flight from the just-finished pass is
// recognized as stale rather than replayed.
func (c *Collector) ToTop() error {
	if err := c.fs.ToTop(context.Background()); err != nil {
		return err
	}
	c.expectedGeneration = c.fs.generation
	c.haveCursor = false
	c.rows = nil
	c.rowIndexInFrame = 0
	c.rowCountInFrame = 0
	c.frameIndex = 0
	c.framesCollected = 0
	c.rowsRemaining = c.limit
	c.rowServed = false
	return nil
}

// Close waits for this frame sequence's dispatch and in-flight reduce work
// to finish, detaches the collect subscriber, and returns fs to the idle
// state so it may be dispatched again.
func (c *Collector) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.haveCursor {
		c.fs.collectSubSeq.Done(c.currentCursor)
		c.haveCursor = false
	}
	c.fs.Await(context.Background())
	return c.fs.Clear()
}
