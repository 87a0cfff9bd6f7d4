// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bus

import "code.hybscloud.com/pageflow/internal/ring"

// Shard owns one reduce queue and one cleanup queue, each with its
// publisher/subscriber pair, plus the collect fan-out that gates the reduce
// publisher. Every query binds to exactly one shard for its lifetime.
type Shard struct {
	Index int

	ReduceQueue   *ring.Queue[ReduceTask]
	ReducePub     *ring.MPSequence
	ReduceSub     *ring.MCSequence
	CollectFanOut *ring.FanOut

	CleanupQueue *ring.Queue[CleanupTask]
	CleanupPub   *ring.MPSequence
	CleanupSub   *ring.MCSequence
}

func newShard(index, reduceCap, cleanupCap int) *Shard {
	s := &Shard{
		Index:         index,
		ReduceQueue:   ring.NewQueue[ReduceTask](reduceCap),
		CollectFanOut: ring.NewFanOut(),
		CleanupQueue:  ring.NewQueue[CleanupTask](cleanupCap),
	}

	// The reduce publisher is gated by the collect fan-out, not by its own
	// subscriber directly: CollectFanOut also holds one SCSequence per
	// active query, so the publisher never overruns a slot any collector
	// still needs, not just the shard's worker pool.
	s.ReducePub = ring.NewMPSequence(reduceCap, s.CollectFanOut)
	s.ReduceSub = ring.NewMCSequence(reduceCap, s.ReducePub)
	s.CollectFanOut.And(s.ReduceSub)

	cleanupBarrier := ring.NewFanOut()
	s.CleanupPub = ring.NewMPSequence(cleanupCap, cleanupBarrier)
	s.CleanupSub = ring.NewMCSequence(cleanupCap, s.CleanupPub)
	cleanupBarrier.And(s.CleanupSub)

	return s
}

// NewCollectSubscriber creates a single-consumer sequence reading from this
// shard's reduce queue, suitable for one query's collectSubSeq. The caller
// must attach it to CollectFanOut before publishing any dispatch task for
// that query, and detach it during cleanup.
func (s *Shard) NewCollectSubscriber() *ring.SCSequence {
	return ring.NewSCSequence(s.ReducePub)
}
