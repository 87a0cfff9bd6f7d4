// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bus

import (
	"math/rand/v2"
	"testing"

	"code.hybscloud.com/pageflow/internal/ring"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsRequestedShardCount(t *testing.T) {
	b := New(4, 8, 8, 8, nil)
	require.Equal(t, 4, b.ShardCount())
	for i := 0; i < 4; i++ {
		require.Equal(t, i, b.Shard(i).Index)
	}
}

func TestPickShardStaysWithinBounds(t *testing.T) {
	b := New(3, 8, 8, 8, nil)
	rnd := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		s := b.PickShard(rnd)
		require.GreaterOrEqual(t, s.Index, 0)
		require.Less(t, s.Index, 3)
	}
}

func TestShardReducePublisherGatedByCollectFanOut(t *testing.T) {
	b := New(1, 2, 2, 2, nil)
	shard := b.Shard(0)

	// With no query's collect subscriber attached, only the shard's own
	// MCSequence gates the reduce publisher: fill the ring and expect FULL.
	for i := 0; i < shard.ReduceQueue.Cap(); i++ {
		if c := shard.ReducePub.Next(); c == ring.Full {
			t.Fatalf("ring unexpectedly full after %d claims", i)
		} else {
			shard.ReducePub.Done(c)
		}
	}
	if c := shard.ReducePub.Next(); c != ring.Full {
		t.Fatalf("Next()=%d want Full once every slot is unreleased", c)
	}

	// Draining via the shard's reduce subscriber releases room again.
	if c := shard.ReduceSub.Next(); c == ring.Empty {
		t.Fatal("expected a published slot")
	} else {
		shard.ReduceSub.Done(c)
	}
	if c := shard.ReducePub.Next(); c == ring.Full {
		t.Fatal("Next() still Full after the reduce subscriber released a slot")
	}
}

func TestCollectSubscriberAttachGatesReducePublisher(t *testing.T) {
	b := New(1, 2, 2, 2, nil)
	shard := b.Shard(0)
	collectSub := shard.NewCollectSubscriber()
	shard.CollectFanOut.And(collectSub)

	for i := 0; i < shard.ReduceQueue.Cap(); i++ {
		c := shard.ReducePub.Next()
		require.NotEqual(t, ring.Full, c)
		shard.ReducePub.Done(c)
	}
	// The ring is now full from the attached collector's point of view too,
	// even though the shard's own reduce subscriber has drained nothing yet.
	require.Equal(t, ring.Full, shard.ReducePub.Next())

	// Draining only the shard's MC reduce subscriber is not enough: the
	// attached collector hasn't released its view, so the fan-out's minimum
	// is still held back by it.
	c := shard.ReduceSub.Next()
	shard.ReduceSub.Done(c)
	require.Equal(t, ring.Full, shard.ReducePub.Next())

	// Releasing the collector's own view frees the slot.
	collectSub.Done(collectSub.Next())
	require.NotEqual(t, ring.Full, shard.ReducePub.Next())
}

func TestDispatchQueueRoundTrip(t *testing.T) {
	b := New(2, 4, 4, 4, nil)
	c := b.DispatchPub.Next()
	require.NotEqual(t, ring.Full, c)
	*b.DispatchQueue.Get(c) = DispatchTask{FrameSequenceRef: "query-1"}
	b.DispatchPub.Done(c)

	c2 := b.DispatchSub.Next()
	require.NotEqual(t, ring.Empty, c2)
	task := b.DispatchQueue.Get(c2)
	require.Equal(t, "query-1", task.FrameSequenceRef)
	b.DispatchSub.Done(c2)
}
