// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import "math/rand/v2"

// ExecutionContext is the per-call input Dispatch needs beyond the
// factory: a random source for shard selection, a worker-count hint sized
// to the frame sequence's per-worker record slice, and the bus it dispatches
// into.
type ExecutionContext struct {
	Rand        *rand.Rand
	WorkerCount int
	Bus         *Bus
}

// NewExecutionContext builds an ExecutionContext. A nil rnd gets a fresh
// PCG-seeded source; callers that need reproducible shard selection (tests)
// should always pass their own.
func NewExecutionContext(b *Bus, workerCount int, rnd *rand.Rand) *ExecutionContext {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(uint64(workerCount)+1, 0x9e3779b97f4a7c15))
	}
	return &ExecutionContext{Rand: rnd, WorkerCount: workerCount, Bus: b}
}
