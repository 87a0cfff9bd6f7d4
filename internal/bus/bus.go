// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bus is the process-wide registry of shards: one reduce queue,
// one collect fan-out, and one cleanup queue per shard, plus a
// single process-wide dispatch queue shared by every query. A Bus is
// read-only after construction; no per-query state lives here, only the
// shared plumbing that per-query frame sequences attach to and drain from.
package bus

import (
	"math/rand/v2"

	"code.hybscloud.com/pageflow/internal/ring"
	"github.com/prometheus/client_golang/prometheus"
)

// Bus owns every shared queue in the pipeline.
type Bus struct {
	Shards []*Shard

	DispatchQueue *ring.Queue[DispatchTask]
	DispatchPub   *ring.MPSequence
	DispatchSub   *ring.MCSequence

	Metrics *Metrics
}

// New builds a Bus with shardCount shards. Queue capacities are rounded up
// to powers of two by the ring package; reg may be nil to skip metrics
// registration.
func New(shardCount, reduceQueueCapacity, dispatchQueueCapacity, cleanupQueueCapacity int, reg prometheus.Registerer) *Bus {
	b := &Bus{
		Shards:        make([]*Shard, shardCount),
		DispatchQueue: ring.NewQueue[DispatchTask](dispatchQueueCapacity),
		Metrics:       NewMetrics(reg),
	}
	for i := range b.Shards {
		b.Shards[i] = newShard(i, reduceQueueCapacity, cleanupQueueCapacity)
	}

	dispatchBarrier := ring.NewFanOut()
	b.DispatchPub = ring.NewMPSequence(dispatchQueueCapacity, dispatchBarrier)
	b.DispatchSub = ring.NewMCSequence(dispatchQueueCapacity, b.DispatchPub)
	dispatchBarrier.And(b.DispatchSub)

	return b
}

// PickShard chooses a shard uniformly at random via rnd, matching the
// "each query picks exactly one shard for its lifetime by uniform random
// choice" rule.
func (b *Bus) PickShard(rnd *rand.Rand) *Shard {
	return b.Shards[rnd.IntN(len(b.Shards))]
}

// Shard returns the shard at index i.
func (b *Bus) Shard(i int) *Shard {
	return b.Shards[i]
}

// ShardCount returns the number of shards this bus was built with.
func (b *Bus) ShardCount() int {
	return len(b.Shards)
}
