// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import "code.hybscloud.com/atomix"

// SCSequence is a single-consumer subscriber sequence: exactly one goroutine
// calls Next/Done at a time, so no CAS is needed — a plain load/store
// suffices.
type SCSequence struct {
	_      pad
	cursor atomix.Uint64 // next cursor to claim
	_      pad
	gate   Gate
}

// NewSCSequence creates a single-consumer sequence reading from gate,
// starting at the top of the ring (cursor 0).
func NewSCSequence(gate Gate) *SCSequence {
	return &SCSequence{gate: gate}
}

// Next returns the next claimable cursor, or Empty if the publisher hasn't
// made it visible yet.
func (s *SCSequence) Next() Cursor {
	next := Cursor(s.cursor.LoadRelaxed())
	if !s.gate.Published(next) {
		return Empty
	}
	return next
}

// Done releases cursor, advancing this sequence's position so the next
// Next() call claims cursor+1 and so any attached publisher barrier sees
// this subscriber's progress.
func (s *SCSequence) Done(cursor Cursor) {
	s.cursor.StoreRelease(uint64(cursor) + 1)
}

// Current reports this subscriber's position for use as a Barrier member.
func (s *SCSequence) Current() Cursor {
	return Cursor(s.cursor.LoadAcquire()) - 1
}

// Reset rewinds the sequence to the top, used when a frame sequence is
// reused via ToTop or returned to the pool via Clear.
func (s *SCSequence) Reset() {
	s.cursor.StoreRelease(0)
}

// MCSequence is a multi-consumer subscriber sequence shared by many
// goroutines (a shard's whole reduce-worker pool uses one MCSequence).
// Next claims via CAS, returning Collision on a lost race so the caller can
// retry. Because completions from competing goroutines land out of order, Done records
// per-cursor completion and lazily advances a contiguous floor so Current
// can still report an exact "slowest position" in O(1) amortized.
type MCSequence struct {
	_         pad
	claimed   atomix.Uint64
	_         pad
	floor     atomix.Uint64
	_         pad
	completed []atomix.Uint64
	mask      uint64
	gate      Gate
}

// NewMCSequence creates a multi-consumer sequence of the given ring
// capacity, reading from gate.
func NewMCSequence(capacity int, gate Gate) *MCSequence {
	n := uint64(roundToPow2(capacity))
	s := &MCSequence{
		completed: make([]atomix.Uint64, n),
		mask:      n - 1,
		gate:      gate,
	}
	for i := range s.completed {
		s.completed[i].StoreRelaxed(^uint64(0))
	}
	s.floor.StoreRelaxed(^uint64(0)) // "-1" before anything below zero; see Current
	return s
}

// Next claims the next cursor, or returns Empty if nothing is published, or
// Collision if a competing claim won the CAS race.
func (s *MCSequence) Next() Cursor {
	current := s.claimed.LoadAcquire()
	if !s.gate.Published(Cursor(current)) {
		return Empty
	}
	if !s.claimed.CompareAndSwapAcqRel(current, current+1) {
		return Collision
	}
	return Cursor(current)
}

// Done marks cursor complete and opportunistically advances the floor.
func (s *MCSequence) Done(cursor Cursor) {
	s.completed[uint64(cursor)&s.mask].StoreRelease(uint64(cursor))
	for {
		f := s.floor.LoadAcquire()
		nf := f + 1
		if s.completed[nf&s.mask].LoadAcquire() != nf {
			return
		}
		if !s.floor.CompareAndSwapAcqRel(f, nf) {
			return
		}
	}
}

// Current reports the highest cursor below which every claimed slot has
// been released, for use as a Barrier member.
func (s *MCSequence) Current() Cursor {
	f := s.floor.LoadAcquire()
	if f == ^uint64(0) {
		return -1
	}
	return Cursor(f)
}
