// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"context"
	"math/rand/v2"

	"code.hybscloud.com/pageflow/internal/bus"
	"code.hybscloud.com/pageflow/internal/ring"
	"code.hybscloud.com/spin"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ConsumeOne runs the reduce job once against shard's reduce queue, using
// workerID to select this caller's scratch Record slot on
// whichever frame sequence it ends up reducing for. It reports whether a
// task was found.
//
// A claimed task whose frame sequence has gone invalid is still drained and
// counted toward its generation's reduceCounter, so an in-flight cancel
// never stalls the cleanup job waiting for a count that will never arrive.
// A claimed task from a generation ToTop has since superseded is drained
// but excluded from reduceCounter entirely, since that counter must reach
// exactly frameCount for the CURRENT pass alone.
func ConsumeOne(shard *bus.Shard, workerID int, log *Logger) bool {
	c := shard.ReduceSub.Next()
	if c == ring.Empty || c == ring.Collision {
		return false
	}
	task := shard.ReduceQueue.Get(c)
	defer shard.ReduceSub.Done(c)

	fs, ok := task.FrameSequenceRef.(*FrameSequence)
	if !ok || fs == nil {
		return true
	}

	if task.Generation != fs.generation {
		// Left over from a dispatch pass ToTop has since superseded: drain
		// it (the deferred Done above) but exclude it from the current
		// generation's reduceCounter, which must reach exactly frameCount
		// for this pass alone.
		return true
	}

	if fs.Valid() {
		addr := fs.pageAddressCache.Get(task.FrameIndex)
		rec := fs.recordFor(workerID)
		if err := fs.reducer.Reduce(rec, fs.atom, addr, task); err != nil {
			fs.SetValid(false)
			log.Debug("reducer returned an error, invalidating frame sequence",
				zap.Int64("frame_sequence_id", fs.id), zap.Int("frame_index", task.FrameIndex), zap.Error(err))
		} else if fs.bus != nil && fs.bus.inner.Metrics != nil {
			fs.bus.inner.Metrics.ReduceTasksReduced.WithLabelValues(shardLabel(shard)).Inc()
		}
	}

	newCount := fs.reduceCounter.AddAcqRel(1)
	if int64(newCount) == fs.frameCount {
		publishCleanupTask(shard, fs)
	}
	return true
}

// ReduceJobPool is a fixed-size pool of long-lived reduce workers, each
// running a per-thread randomized permutation of shard indices so that, at
// process scale, workers don't all contend on shard 0 first. Built once at
// startup and stopped via Close, which cancels every worker's context and
// waits for them to return, surfacing any worker panic rather than letting
// it escape unobserved.
type ReduceJobPool struct {
	cancel context.CancelFunc
	p      *pool.ContextPool
}

// NewReduceJobPool starts workerCount goroutines, each cycling over a
// private random permutation of b's shards, calling ConsumeOne and the
// cleanup job on each in turn and reshuffling its permutation whenever a
// full pass over every shard finds no work at all.
func NewReduceJobPool(ctx context.Context, b *Bus, workerCount int, log *Logger) *ReduceJobPool {
	ctx, cancel := context.WithCancel(ctx)
	p := pool.New().WithContext(ctx).WithMaxGoroutines(workerCount)
	shardCount := b.ShardCount()

	for i := 0; i < workerCount; i++ {
		workerID := i
		seed := uint64(workerID)*2 + 1
		rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		p.Go(func(ctx context.Context) error {
			perm := rnd.Perm(shardCount)
			sw := spin.Wait{}
			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				found := false
				for _, idx := range perm {
					shard := b.inner.Shard(idx)
					if ConsumeOne(shard, workerID, log) {
						found = true
					}
					if consumeCleanupOne(shard) {
						found = true
					}
					if stealDispatchQueue(b.inner) {
						found = true
					}
				}
				if !found {
					rnd.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
					sw.Once()
				}
			}
		})
	}

	return &ReduceJobPool{cancel: cancel, p: p}
}

// Close stops every worker and waits for them to return. Workers never
// return an error, so Close returns nil; a panic raised inside a worker is
// re-raised by the underlying pool when Close waits.
func (r *ReduceJobPool) Close() error {
	r.cancel()
	return r.p.Wait()
}
