// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"code.hybscloud.com/pageflow/internal/bus"
	"code.hybscloud.com/pageflow/internal/ring"
)

// stealDispatchQueue claims and runs one dispatch task from b's
// process-wide dispatch queue, the sole work-stealing entry point. It
// collapses what earlier revisions of this pipeline split into a
// direct-run path and a separate steal path into one function: every
// caller, whether a reduce worker, a publisher that finds the dispatch ring
// full, or the foreground collector waiting for its next frame, reaches the
// dispatch ring the same way. Await does not go through the dispatch ring;
// it steps its own frame sequence's dispatch directly.
//
// It reports whether a task was found, regardless of whether that task's
// own step made further progress (a task can be claimed and immediately
// find its dispatch already complete).
func stealDispatchQueue(b *bus.Bus) bool {
	c := b.DispatchSub.Next()
	if c == ring.Empty || c == ring.Collision {
		return false
	}
	task := b.DispatchQueue.Get(c)
	if fs, ok := task.FrameSequenceRef.(*FrameSequence); ok && fs != nil {
		fs.stepDispatch()
	}
	b.DispatchSub.Done(c)
	return true
}
