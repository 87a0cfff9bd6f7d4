// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import "sync/atomic"

// FanOut composes multiple subscriber sequences into a single Barrier: its
// Current is the minimum of every attached member's Current, i.e. the
// slowest subscriber's position. Members attach and detach dynamically (one
// SCSequence per active query, plus the shard's permanent MCSequence for
// reduce workers) without ever blocking a concurrent Current() call.
//
// code.hybscloud.com/atomix exposes scalar atomics (Uint64/Int64/Bool) but
// no typed pointer CAS, so the snapshot swap below uses the standard
// library's atomic.Pointer — there is no ecosystem alternative in the
// example pack for a lock-free immutable-slice swap.
type FanOut struct {
	members atomic.Pointer[[]Barrier]
}

// NewFanOut creates an empty fan-out barrier. With no members attached,
// Current returns Empty (-1), so a publisher gated solely by an empty FanOut
// can fill the ring once but never reuse a slot; callers should attach at
// least one permanent member (e.g. the shard's MCSequence) before publishing.
func NewFanOut() *FanOut {
	f := &FanOut{}
	empty := make([]Barrier, 0)
	f.members.Store(&empty)
	return f
}

// And attaches sub as a new member. Safe to call concurrently with Current
// and with other And/Remove calls.
func (f *FanOut) And(sub Barrier) {
	for {
		old := f.members.Load()
		next := make([]Barrier, len(*old)+1)
		copy(next, *old)
		next[len(*old)] = sub
		if f.members.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Remove detaches sub. A no-op if sub is not currently a member. Safe to
// call concurrently with Current and with other And/Remove calls.
func (f *FanOut) Remove(sub Barrier) {
	for {
		old := f.members.Load()
		idx := -1
		for i, m := range *old {
			if m == sub {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		next := make([]Barrier, 0, len(*old)-1)
		next = append(next, (*old)[:idx]...)
		next = append(next, (*old)[idx+1:]...)
		if f.members.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Current returns the minimum Current() across all attached members, or
// Empty if no members are attached.
func (f *FanOut) Current() Cursor {
	members := f.members.Load()
	if members == nil || len(*members) == 0 {
		return Empty
	}
	min := Cursor(1<<63 - 1)
	for _, m := range *members {
		c := m.Current()
		if c < min {
			min = c
		}
	}
	return min
}
