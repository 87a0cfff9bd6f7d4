// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *Bus {
	cfg := Config{ShardCount: 1, ReduceQueueCapacity: 16, DispatchQueueCapacity: 8, CleanupQueueCapacity: 8, WorkerCount: 1}
	return NewBus(cfg, nil)
}

func drainFrameSequence(t *testing.T, fs *FrameSequence) {
	t.Helper()
	for i := 0; i < 1000 && !fs.Released(); i++ {
		stealDispatchQueue(fs.bus.inner)
		ConsumeOne(fs.shard, 0, NewNopLogger())
		consumeCleanupOne(fs.shard)
	}
	require.True(t, fs.Released(), "frame sequence never released its done latch")
}

func TestDispatchPopulatesFrameCountAndPicksAShard(t *testing.T) {
	b := newTestBus(t)
	ectx := NewExecutionContext(b, 1, rand.New(rand.NewPCG(1, 2)))
	fs := NewFrameSequence(evenRowReducer{}, 1)
	factory := &fakeFactory{rowCounts: []int64{4, 6, 2}}

	err := fs.Dispatch(context.Background(), ectx, factory, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), fs.FrameCount())
	require.NotNil(t, fs.shard)
	require.False(t, fs.Released(), "latch should stay held until dispatch/reduce/cleanup complete")
}

func TestDispatchWithZeroFramesReleasesImmediately(t *testing.T) {
	b := newTestBus(t)
	ectx := NewExecutionContext(b, 1, rand.New(rand.NewPCG(1, 2)))
	fs := NewFrameSequence(evenRowReducer{}, 1)
	factory := &fakeFactory{rowCounts: nil}

	err := fs.Dispatch(context.Background(), ectx, factory, nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), fs.FrameCount())
	require.True(t, fs.Released())
}

func TestStepDispatchAndConsumeOneDriveReduceCounterToFrameCount(t *testing.T) {
	b := newTestBus(t)
	ectx := NewExecutionContext(b, 1, rand.New(rand.NewPCG(1, 2)))
	fs := NewFrameSequence(evenRowReducer{}, 1)
	factory := &fakeFactory{rowCounts: []int64{4, 6, 2}}

	require.NoError(t, fs.Dispatch(context.Background(), ectx, factory, nil))
	drainFrameSequence(t, fs)

	require.Equal(t, int64(3), fs.ReduceCounter())
}

func TestSetValidIsMonotonic(t *testing.T) {
	fs := NewFrameSequence(evenRowReducer{}, 1)
	require.True(t, fs.Valid())
	fs.SetValid(false)
	require.False(t, fs.Valid())
	fs.SetValid(true) // no-op: valid cannot be restored except via Clear
	require.False(t, fs.Valid())
}

func TestClearRestoresValidAndReleasesReader(t *testing.T) {
	b := newTestBus(t)
	ectx := NewExecutionContext(b, 1, rand.New(rand.NewPCG(1, 2)))
	fs := NewFrameSequence(evenRowReducer{}, 1)
	factory := &fakeFactory{rowCounts: []int64{2}}

	require.NoError(t, fs.Dispatch(context.Background(), ectx, factory, nil))
	drainFrameSequence(t, fs)
	cur := fs.cursor.(*fakeCursor)

	fs.SetValid(false)
	require.NoError(t, fs.Clear())

	require.True(t, fs.Valid())
	require.True(t, cur.closed)
	require.Equal(t, int64(0), fs.FrameCount())
}

func TestToTopBumpsGenerationAndResetsReduceCounter(t *testing.T) {
	b := newTestBus(t)
	ectx := NewExecutionContext(b, 1, rand.New(rand.NewPCG(1, 2)))
	fs := NewFrameSequence(evenRowReducer{}, 1)
	factory := &fakeFactory{rowCounts: []int64{4, 6}}

	require.NoError(t, fs.Dispatch(context.Background(), ectx, factory, nil))
	drainFrameSequence(t, fs)
	require.Equal(t, int64(2), fs.ReduceCounter())
	firstGeneration := fs.generation

	require.NoError(t, fs.ToTop(context.Background()))
	require.Equal(t, firstGeneration+1, fs.generation)
	require.False(t, fs.Released())

	drainFrameSequence(t, fs)
	require.Equal(t, int64(2), fs.ReduceCounter(), "reduceCounter must reflect only the current pass")
}
