// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pageaddr implements the page-address cache: a per-query table of
// per-frame column base addresses and row bounds, written once by the
// dispatcher before any reduce task for that frame is published, then read
// concurrently by reducers and collectors until cleanup resets it.
package pageaddr

// ColumnAddress is one column's base address and byte size within a frame,
// captured at dispatch time so reducers can address columnar data without
// re-entering the table reader. Base is a raw offset into the reader's
// mapped region; this package never dereferences it.
type ColumnAddress struct {
	Base uintptr
	Size int64
}

// FrameAddress is everything a reducer or collector needs to address one
// frame's data: the partition row range it covers and each column's base
// address within it.
type FrameAddress struct {
	PartitionLo int64
	PartitionHi int64
	RowCount    int64
	Columns     []ColumnAddress
}

// Cache is a per-query, grow-on-write table of FrameAddress indexed by
// frame index. EnsureCapacity reuses the backing slice across query
// lifetimes, truncating rather than freeing it between reuses.
type Cache struct {
	frames []FrameAddress
}

// EnsureCapacity grows the cache to hold at least n frames and truncates its
// logical length to n, without releasing previously allocated backing
// storage from a larger prior use.
func (c *Cache) EnsureCapacity(n int) {
	if cap(c.frames) < n {
		grown := make([]FrameAddress, n)
		copy(grown, c.frames)
		c.frames = grown
		return
	}
	c.frames = c.frames[:n]
}

// Set records frame index i's address. Must be called at most once per
// frame, before any reduce task for that frame is published.
func (c *Cache) Set(i int, addr FrameAddress) {
	c.frames[i] = addr
}

// Get returns frame index i's address. Safe to call concurrently with other
// Get calls and with Set calls for different indices, once the writing
// dispatcher has established the documented happens-before via queue
// publication.
func (c *Cache) Get(i int) FrameAddress {
	return c.frames[i]
}

// Len returns the number of frames currently held.
func (c *Cache) Len() int {
	return len(c.frames)
}

// Reset truncates the cache to zero frames without releasing its backing
// array, so the next dispatch's EnsureCapacity can reuse it.
func (c *Cache) Reset() {
	for i := range c.frames {
		c.frames[i] = FrameAddress{}
	}
	c.frames = c.frames[:0]
}
