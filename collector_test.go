// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestExecutionContext(b *Bus, workerCount int) *ExecutionContext {
	return NewExecutionContext(b, workerCount, rand.New(rand.NewPCG(1, 2)))
}

func TestCollectorYieldsEveryEvenRowAcrossFrames(t *testing.T) {
	b := newTestBus(t)
	ectx := newTestExecutionContext(b, 1)
	fs := NewFrameSequence(evenRowReducer{}, 1)
	factory := &fakeFactory{rowCounts: []int64{4, 6, 2}} // survivors: 2 + 3 + 1 = 6

	c, err := NewCollector(context.Background(), fs, factory, ectx, nil, -1)
	require.NoError(t, err)
	defer c.Close()

	count := 0
	for c.HasNext() {
		rec := c.Record().(*fakeRecord)
		require.Equal(t, int64(0), rec.rowIndexInFrame%2)
		count++
	}
	require.Equal(t, 6, count)
}

func TestCollectorHonorsLimitAndInvalidates(t *testing.T) {
	b := newTestBus(t)
	ectx := newTestExecutionContext(b, 1)
	fs := NewFrameSequence(evenRowReducer{}, 1)
	factory := &fakeFactory{rowCounts: []int64{4, 6, 2}}

	c, err := NewCollector(context.Background(), fs, factory, ectx, nil, 3)
	require.NoError(t, err)
	defer c.Close()

	count := 0
	for c.HasNext() {
		c.Record()
		count++
	}
	require.Equal(t, 3, count)
	require.False(t, fs.Valid())
}

func TestCollectorCloseReturnsFrameSequenceToIdle(t *testing.T) {
	b := newTestBus(t)
	ectx := newTestExecutionContext(b, 1)
	fs := NewFrameSequence(evenRowReducer{}, 1)
	factory := &fakeFactory{rowCounts: []int64{2}}

	c, err := NewCollector(context.Background(), fs, factory, ectx, nil, -1)
	require.NoError(t, err)
	for c.HasNext() {
		c.Record()
	}
	require.NoError(t, c.Close())
	require.True(t, fs.Valid())
	require.Equal(t, int64(0), fs.FrameCount())
}

// TestCollectorCloseReleasesHeldSlotBeforeAwaiting reproduces the
// back-pressure regime Close must not deadlock in: a LIMIT that exhausts
// while a frame's collect-ring slot is still held (haveCursor true), with
// more remaining frames than the shard's reduce ring can hold unless that
// held slot is released first. If Close awaited before releasing it, the
// collector's own stale cursor would gate the shard's reduce publisher
// shut for the rest of these frames and Await would never return.
func TestCollectorCloseReleasesHeldSlotBeforeAwaiting(t *testing.T) {
	cfg := Config{ShardCount: 1, ReduceQueueCapacity: 8, DispatchQueueCapacity: 8, CleanupQueueCapacity: 8, WorkerCount: 1}
	b := NewBus(cfg, nil)
	ectx := newTestExecutionContext(b, 1)
	fs := NewFrameSequence(evenRowReducer{}, 1)

	rowCounts := make([]int64, 9) // one frame more than the reduce ring's 8 slots
	for i := range rowCounts {
		rowCounts[i] = 2 // evenRowReducer keeps row 0 only: one survivor per frame
	}
	factory := &fakeFactory{rowCounts: rowCounts}

	c, err := NewCollector(context.Background(), fs, factory, ectx, nil, 1)
	require.NoError(t, err)

	require.True(t, c.HasNext())
	c.Record()
	require.False(t, c.HasNext(), "limit of 1 row must exhaust after the first frame's row")
	require.False(t, fs.Valid())

	done := make(chan error, 1)
	go func() { done <- c.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close deadlocked: the held collect-ring slot must be released before Await, not after")
	}
}

func TestCollectorToTopAfterPartialConsumptionSkipsStaleTasks(t *testing.T) {
	b := newTestBus(t)
	ectx := newTestExecutionContext(b, 1)
	fs := NewFrameSequence(evenRowReducer{}, 1)
	factory := &fakeFactory{rowCounts: []int64{4, 6, 2}} // survivors: 2 + 3 + 1 = 6

	c, err := NewCollector(context.Background(), fs, factory, ectx, nil, -1)
	require.NoError(t, err)
	defer c.Close()

	// Consume only the first frame's two survivors, leaving frames 1 and 2
	// published-but-uncollected in the ring when ToTop restarts the pass.
	require.True(t, c.HasNext())
	c.Record()
	require.True(t, c.HasNext())
	c.Record()

	require.NoError(t, c.ToTop())

	count := 0
	for c.HasNext() {
		c.Record()
		count++
	}
	require.Equal(t, 6, count, "a restarted pass must recount every survivor exactly once, ignoring stale leftovers")
}
