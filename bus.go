// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"code.hybscloud.com/pageflow/internal/bus"
	"github.com/prometheus/client_golang/prometheus"
)

// Bus is the process-wide set of shared queues this package's components
// dispatch into, reduce from, and collect from. Build exactly one per
// process (or per isolated pipeline instance in a test) and share it across
// every query.
type Bus struct {
	inner *bus.Bus
}

// NewBus builds a Bus sized by cfg. Passing a non-nil reg registers the
// bus's Prometheus collectors with it; pass nil to skip metrics entirely.
func NewBus(cfg Config, reg prometheus.Registerer) *Bus {
	return &Bus{inner: bus.New(cfg.ShardCount, cfg.ReduceQueueCapacity, cfg.DispatchQueueCapacity, cfg.CleanupQueueCapacity, reg)}
}

// ShardCount returns the number of shards this bus was built with.
func (b *Bus) ShardCount() int { return b.inner.ShardCount() }
