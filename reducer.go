// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"code.hybscloud.com/pageflow/internal/bus"
	"code.hybscloud.com/pageflow/internal/pageaddr"
)

// ReduceTask is the reduce-queue slot a Reducer populates: the frame it was
// asked to scan and the row ids it found. It is an alias for the bus
// package's task type so callers never need to import an internal package
// to implement Reducer.
type ReduceTask = bus.ReduceTask

// Reducer is the per-frame computation — typically a row-predicate scan —
// that appends surviving row ids to task.Rows. It must be side-effect-free
// except for task.Rows and may read atom, the opaque per-query state
// captured at dispatch time (e.g. compiled filter state).
//
// A non-nil return signals a fatal data error. The reduce job sets the
// owning frame sequence's valid to false and swallows the error there;
// Reduce itself never needs a reference to the frame sequence.
type Reducer interface {
	Reduce(rec Record, atom any, addr pageaddr.FrameAddress, task *ReduceTask) error
}
