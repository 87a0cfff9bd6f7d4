// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bus

// DispatchTask is the payload of the process-wide dispatch queue: a
// reference to the frame sequence whose dispatch loop should run. The
// referenced value is opaque to bus; only the owning package (which defines
// the concrete frame-sequence type) dereferences it.
type DispatchTask struct {
	FrameSequenceRef any
}

// ReduceTask is the payload of a shard's reduce queue. Rows is reused
// across slot lifetimes: callers must truncate rather than reallocate it
// between uses to avoid a per-message allocation on every reduce.
type ReduceTask struct {
	FrameSequenceRef any
	FrameIndex       int
	// Generation distinguishes successive dispatch passes of the same
	// frame sequence (initial dispatch, then one per ToTop) so a collector
	// can tell a stale, not-yet-collected task from the current pass after
	// a mid-stream restart.
	Generation int64
	Rows       []int64
	Collected  bool
}

// Reset clears a reduce task slot for reuse without freeing Rows' backing
// array.
func (t *ReduceTask) Reset() {
	t.FrameSequenceRef = nil
	t.FrameIndex = 0
	t.Generation = 0
	t.Rows = t.Rows[:0]
	t.Collected = false
}

// CleanupTask is the payload of a shard's cleanup queue: a reference to a
// frame sequence that has become eligible for terminal reclamation.
type CleanupTask struct {
	FrameSequenceRef any
}
