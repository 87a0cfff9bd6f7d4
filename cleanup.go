// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"code.hybscloud.com/pageflow/internal/bus"
	"code.hybscloud.com/pageflow/internal/ring"
	"code.hybscloud.com/spin"
)

// publishCleanupTask enqueues fs onto shard's cleanup queue, called once by
// whichever reduce worker observes the last frame's reduce counter tick
// over. The cleanup ring is sized generously relative to in-flight frame
// sequences per shard, so Full here indicates sustained starvation rather
// than the steady state; drain one cleanup task and retry with a short
// backoff until the task is published rather than dropping
// the cleanup, since a frame sequence that never gets cleaned up never
// releases its reader or its collect fan-out slot.
func publishCleanupTask(shard *bus.Shard, fs *FrameSequence) {
	sw := spin.Wait{}
	for {
		c := shard.CleanupPub.Next()
		if c != ring.Full {
			*shard.CleanupQueue.Get(c) = bus.CleanupTask{FrameSequenceRef: fs}
			shard.CleanupPub.Done(c)
			return
		}
		consumeCleanupOne(shard)
		sw.Once()
	}
}

// consumeCleanupOne runs the cleanup job once against shard's cleanup
// queue. Once every frame has been reduced (reduceCounter
// has reached frameCount) it releases the frame sequence's done latch,
// letting Await observe completion; detaching the collect subscriber stays
// the collector's own responsibility in Close, since reduction finishing
// does not imply the collector has read every row yet. It reports whether
// a task was found.
func consumeCleanupOne(shard *bus.Shard) bool {
	c := shard.CleanupSub.Next()
	if c == ring.Empty || c == ring.Collision {
		return false
	}
	task := shard.CleanupQueue.Get(c)
	defer shard.CleanupSub.Done(c)

	fs, ok := task.FrameSequenceRef.(*FrameSequence)
	if !ok || fs == nil {
		return true
	}
	if fs.ReduceCounter() < fs.frameCount {
		// Stale relative to a generation that has since restarted; the
		// current pass will publish its own cleanup task when it finishes.
		return true
	}
	fs.latch.StoreRelease(1)
	return true
}
