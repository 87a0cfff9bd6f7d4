// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Barrier reports the lowest position any attached subscriber has reached.
// A publisher sequence consults a Barrier to know how far it may claim new
// cursors without overrunning the slowest reader.
type Barrier interface {
	Current() Cursor
}

// Gate reports which cursors a publisher has made visible. Subscriber
// sequences consult a Gate to know what they may claim.
type Gate interface {
	Published(cursor Cursor) bool
}

// MPSequence is a multi-producer publisher sequence. Next reserves a cursor
// via CAS rather than a fetch-and-add, since reservation and publication are
// separate steps here; Done marks the claimed slot visible by writing the
// cursor's own value into a per-slot availability array, a cycle-stamping
// trick for ABA safety specialized to store the raw cursor because several
// independent subscriber views share one ring.
type MPSequence struct {
	_       pad
	claimed atomix.Uint64
	_       pad
	gateHi  atomix.Uint64 // cached barrier position
	_       pad
	avail   []atomix.Uint64
	mask    uint64
	cap     uint64
	barrier Barrier
}

// NewMPSequence creates a multi-producer sequence over a ring of the given
// capacity, gated by barrier (typically a FanOut of the ring's subscribers).
func NewMPSequence(capacity int, barrier Barrier) *MPSequence {
	n := uint64(roundToPow2(capacity))
	s := &MPSequence{
		avail:   make([]atomix.Uint64, n),
		mask:    n - 1,
		cap:     n,
		barrier: barrier,
	}
	for i := range s.avail {
		s.avail[i].StoreRelaxed(^uint64(0)) // unpublished sentinel
	}
	s.claimed.StoreRelaxed(0)
	s.gateHi.StoreRelaxed(^uint64(0)) // -1: nothing released yet
	return s
}

// Next reserves the next cursor, or returns Full if the slowest subscriber
// has not released enough room.
func (s *MPSequence) Next() Cursor {
	sw := spin.Wait{}
	for {
		current := s.claimed.LoadAcquire()
		next := current + 1
		wrapPoint := int64(current) - int64(s.cap)
		gate := int64(s.gateHi.LoadRelaxed())
		if wrapPoint > gate {
			g := int64(s.barrier.Current())
			s.gateHi.StoreRelaxed(uint64(g))
			if wrapPoint > g {
				return Full
			}
		}
		if s.claimed.CompareAndSwapAcqRel(current, next) {
			return Cursor(current)
		}
		sw.Once()
	}
}

// Done publishes cursor, making it visible to subscribers' Next.
func (s *MPSequence) Done(cursor Cursor) {
	s.avail[uint64(cursor)&s.mask].StoreRelease(uint64(cursor))
}

// Published reports whether cursor has been published (implements Gate).
func (s *MPSequence) Published(cursor Cursor) bool {
	return s.avail[uint64(cursor)&s.mask].LoadAcquire() == uint64(cursor)
}

// Cap returns the sequence's ring capacity.
func (s *MPSequence) Cap() int { return int(s.cap) }

// SPSequence is a single-producer publisher sequence: plain load/store with
// a cached gate position, avoiding a barrier re-read on every claim to cut
// cross-core traffic on the common, uncontended path.
type SPSequence struct {
	_       pad
	claimed atomix.Uint64
	_       pad
	gateHi  uint64 // cached barrier position, owned by the single producer
	_       pad
	avail   atomix.Uint64
	cap     uint64
	barrier Barrier
}

// NewSPSequence creates a single-producer sequence over a ring of the given
// capacity, gated by barrier.
func NewSPSequence(capacity int, barrier Barrier) *SPSequence {
	n := uint64(roundToPow2(capacity))
	s := &SPSequence{cap: n, gateHi: ^uint64(0), barrier: barrier}
	s.avail.StoreRelaxed(0)
	return s
}

// Next reserves the next cursor, or returns Full if the slowest subscriber
// has not released enough room.
func (s *SPSequence) Next() Cursor {
	current := s.claimed.LoadRelaxed()
	next := current + 1
	wrapPoint := int64(current) - int64(s.cap)
	if wrapPoint > int64(s.gateHi) {
		g := int64(s.barrier.Current())
		s.gateHi = uint64(g)
		if wrapPoint > g {
			return Full
		}
	}
	s.claimed.StoreRelaxed(next)
	return Cursor(current)
}

// Done publishes cursor. Because there is only one producer, a monotonic
// store is sufficient: cursors are always done in claim order.
func (s *SPSequence) Done(cursor Cursor) {
	s.avail.StoreRelease(uint64(cursor) + 1)
}

// Published reports whether cursor has been published (implements Gate).
func (s *SPSequence) Published(cursor Cursor) bool {
	return s.avail.LoadAcquire() > uint64(cursor)
}

// Cap returns the sequence's ring capacity.
func (s *SPSequence) Cap() int { return int(s.cap) }
