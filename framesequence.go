// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"context"
	"strconv"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/pageflow/internal/bus"
	"code.hybscloud.com/pageflow/internal/pageaddr"
	"code.hybscloud.com/pageflow/internal/ring"
	"code.hybscloud.com/spin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var frameSequenceIDs atomix.Uint64

func nextFrameSequenceID() int64 {
	return int64(frameSequenceIDs.AddAcqRel(1))
}

// FrameSequence is the per-query state object: identity, shard binding,
// frame count, the monotonic valid flag, the reducer and its atom, the
// done latch, and the reader it exclusively owns from Dispatch until Clear.
//
// A FrameSequence is built once and reused across many query executions via
// Clear; Dispatch and ToTop both (re)populate it and publish a dispatch
// task.
type FrameSequence struct {
	id      int64
	traceID uuid.UUID
	log     *Logger

	reducer Reducer
	atom    any

	bus   *Bus
	shard *bus.Shard

	factory RecordCursorFactory
	cursor  PageFrameCursor

	pageAddressCache   pageaddr.Cache
	frameCount         int64
	dispatchStartIndex int
	dispatching        atomix.Uint64
	generation         int64

	valid         atomix.Uint64
	reduceCounter atomix.Uint64
	latch         atomix.Uint64 // 0 = awaiting, 1 = released

	records       []Record
	collectSubSeq *ring.SCSequence
}

// NewFrameSequence allocates a FrameSequence bound to reducer, with a
// per-worker record slice sized workerCount+1 (the extra slot serves the
// foreground when it steals reduce work).
func NewFrameSequence(reducer Reducer, workerCount int) *FrameSequence {
	fs := &FrameSequence{
		id:      nextFrameSequenceID(),
		traceID: uuid.New(),
		log:     NewNopLogger(),
		reducer: reducer,
		records: make([]Record, workerCount+1),
	}
	fs.valid.StoreRelease(1)
	fs.latch.StoreRelease(1) // idle until the first Dispatch
	return fs
}

// WithLogger attaches a logger used for this frame sequence's debug
// transitions, returning fs for chaining.
func (fs *FrameSequence) WithLogger(log *Logger) *FrameSequence {
	if log == nil {
		log = NewNopLogger()
	}
	fs.log = log.With(zap.String("trace_id", fs.traceID.String()), zap.Int64("frame_sequence_id", fs.id))
	return fs
}

// ID returns this frame sequence's 64-bit identity.
func (fs *FrameSequence) ID() int64 { return fs.id }

// Valid reports the current value of the monotonic cancellation flag.
func (fs *FrameSequence) Valid() bool { return fs.valid.LoadAcquire() == 1 }

// SetValid implements the sole cancellation primitive. Setting true is a
// no-op: valid is monotonic within one dispatch/collect lifecycle and only
// Clear (via the internal resetValid) may restore it for reuse.
func (fs *FrameSequence) SetValid(valid bool) {
	if valid {
		return
	}
	fs.valid.CompareAndSwapAcqRel(1, 0)
}

func (fs *FrameSequence) resetValid() {
	fs.valid.StoreRelease(1)
}

// ReduceCounter returns the number of reduce tasks whose reducer has
// finished for this frame sequence so far.
func (fs *FrameSequence) ReduceCounter() int64 { return int64(fs.reduceCounter.LoadAcquire()) }

// FrameCount returns the frame count established by the most recent
// Dispatch or ToTop.
func (fs *FrameSequence) FrameCount() int64 { return fs.frameCount }

// Dispatch opens factory's page-frame cursor, walks it once to populate the
// page-address cache, picks a shard via ectx.Rand, builds this query's
// collect subscriber on that shard and attaches it to the shard's collect
// fan-out, and publishes one dispatch task. Any error returned originates
// from the factory itself; everything after a successful Dispatch is
// best-effort, observable only through Valid.
func (fs *FrameSequence) Dispatch(ctx context.Context, ectx *ExecutionContext, factory RecordCursorFactory, atom any) error {
	cur, err := factory.Open(ctx)
	if err != nil {
		return wrapFactoryErr(err)
	}

	fs.factory = factory
	fs.atom = atom
	fs.pageAddressCache.Reset()

	frameCount := 0
	for {
		frame, ok, err := cur.Next()
		if err != nil {
			_ = cur.Close()
			return wrapFactoryErr(err)
		}
		if !ok {
			break
		}
		fs.pageAddressCache.EnsureCapacity(frameCount + 1)
		fs.pageAddressCache.Set(frameCount, pageaddr.FrameAddress{
			PartitionLo: frame.PartitionLo,
			PartitionHi: frame.PartitionHi,
			RowCount:    frame.RowCount,
			Columns:     frame.Columns,
		})
		frameCount++
	}

	fs.cursor = cur
	fs.frameCount = int64(frameCount)
	fs.dispatchStartIndex = 0

	fs.log.Debug("dispatching frame sequence",
		zap.Int64("frame_sequence_id", fs.id), zap.Int64("frame_count", fs.frameCount))

	if frameCount == 0 {
		_ = cur.Close()
		fs.cursor = nil
		fs.latch.StoreRelease(1)
		return nil
	}

	fs.latch.StoreRelease(0)
	shard := ectx.Bus.inner.PickShard(ectx.Rand)
	fs.shard = shard
	fs.bus = ectx.Bus
	fs.collectSubSeq = shard.NewCollectSubscriber()
	shard.CollectFanOut.And(fs.collectSubSeq)
	if fs.bus.inner.Metrics != nil {
		fs.bus.inner.Metrics.ActiveFrameSequences.WithLabelValues(shardLabel(shard)).Inc()
	}

	fs.publishDispatchTask(ctx)
	return nil
}

// publishDispatchTask publishes one dispatch task referencing fs, stealing
// dispatch work from the process-wide queue and parking briefly between
// retries when the dispatch ring is full.
func (fs *FrameSequence) publishDispatchTask(ctx context.Context) {
	b := fs.bus.inner
	sw := spin.Wait{}
	for {
		c := b.DispatchPub.Next()
		if c != ring.Full {
			*b.DispatchQueue.Get(c) = bus.DispatchTask{FrameSequenceRef: fs}
			b.DispatchPub.Done(c)
			return
		}
		stealDispatchQueue(b)
		if ctx != nil && ctx.Err() != nil {
			return
		}
		sw.Once()
	}
}

// stepDispatch runs the rentable dispatch algorithm from
// dispatchStartIndex, publishing one reduce task per remaining frame until
// the shard's reduce ring reports Full or every frame has been published.
// At most one caller makes progress at a time; a concurrent caller that
// loses the race returns immediately rather than duplicating work, which is
// safe because dispatch only needs one active stepper, not parallel ones.
func (fs *FrameSequence) stepDispatch() {
	if !fs.dispatching.CompareAndSwapAcqRel(0, 1) {
		return
	}
	defer fs.dispatching.StoreRelease(0)

	shard := fs.shard
	generation := fs.generation
	for i := fs.dispatchStartIndex; i < int(fs.frameCount); i++ {
		c := shard.ReducePub.Next()
		if c == ring.Full {
			if fs.bus.inner.Metrics != nil {
				fs.bus.inner.Metrics.QueueFull.WithLabelValues("reduce").Inc()
			}
			fs.dispatchStartIndex = i
			return
		}
		task := shard.ReduceQueue.Get(c)
		task.FrameSequenceRef = fs
		task.FrameIndex = i
		task.Generation = generation
		task.Rows = task.Rows[:0]
		task.Collected = false
		shard.ReducePub.Done(c)
		if fs.bus.inner.Metrics != nil {
			fs.bus.inner.Metrics.FramesDispatched.WithLabelValues(shardLabel(shard)).Inc()
		}
	}
	fs.dispatchStartIndex = int(fs.frameCount)
}

// dispatchComplete reports whether every frame has been handed to the
// reduce ring.
func (fs *FrameSequence) dispatchComplete() bool {
	return fs.dispatchStartIndex >= int(fs.frameCount)
}

// Await busy-helps until the done latch releases, by re-entering this frame
// sequence's own dispatch step and opportunistically consuming one reduce
// and one cleanup task on its shard, the foreground's contribution to
// forward progress while workers are starved.
func (fs *FrameSequence) Await(ctx context.Context) {
	sw := spin.Wait{}
	for !fs.Released() {
		fs.stepDispatch()
		if fs.shard != nil {
			ConsumeOne(fs.shard, len(fs.records)-1, fs.log)
			consumeCleanupOne(fs.shard)
		}
		if ctx != nil && ctx.Err() != nil {
			return
		}
		sw.Once()
	}
}

// Released reports whether the done latch has released.
func (fs *FrameSequence) Released() bool { return fs.latch.LoadAcquire() == 1 }

// ToTop rewinds the underlying reader and re-publishes a dispatch task with
// dispatchStartIndex reset to zero, reusing this frame sequence's existing
// identity but bumping its generation so any not-yet-collected task from
// the previous pass is recognized as stale rather than misattributed to the
// new pass.
func (fs *FrameSequence) ToTop(ctx context.Context) error {
	if fs.cursor == nil {
		return nil
	}
	if err := fs.cursor.ToTop(); err != nil {
		return err
	}
	fs.generation++
	fs.dispatchStartIndex = 0
	fs.reduceCounter.StoreRelease(0)
	fs.latch.StoreRelease(0)
	fs.publishDispatchTask(ctx)
	return nil
}

// Clear is the terminal reset after Await: it clears the page-address
// cache, releases the reader, resets counters, and restores valid to true
// so the frame sequence may be dispatched again.
func (fs *FrameSequence) Clear() error {
	var err error
	if fs.cursor != nil {
		err = fs.cursor.Close()
		fs.cursor = nil
	}
	if fs.shard != nil && fs.collectSubSeq != nil {
		fs.shard.CollectFanOut.Remove(fs.collectSubSeq)
		if fs.bus != nil && fs.bus.inner.Metrics != nil {
			fs.bus.inner.Metrics.ActiveFrameSequences.WithLabelValues(shardLabel(fs.shard)).Dec()
		}
	}
	fs.pageAddressCache.Reset()
	fs.reduceCounter.StoreRelease(0)
	fs.dispatchStartIndex = 0
	fs.frameCount = 0
	fs.resetValid()
	fs.latch.StoreRelease(1)
	return err
}

// recordFor returns this frame sequence's scratch Record for workerID,
// lazily allocating it from the factory on first use. Each worker gets its
// own slot so concurrent reducers never share a Record.
func (fs *FrameSequence) recordFor(workerID int) Record {
	if workerID < 0 || workerID >= len(fs.records) {
		workerID = len(fs.records) - 1
	}
	if fs.records[workerID] == nil {
		fs.records[workerID] = fs.factory.NewRecord()
	}
	return fs.records[workerID]
}

// shardLabel formats a shard index for use as a Prometheus label value.
func shardLabel(shard *bus.Shard) string {
	return strconv.Itoa(shard.Index)
}
