// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the pipeline's own tunables: how many shards the message
// bus carries, each queue kind's capacity, and how many reduce workers to
// run. None of this is SQL-facing configuration — it governs only how this
// package schedules its own work.
type Config struct {
	ShardCount            int
	ReduceQueueCapacity   int
	DispatchQueueCapacity int
	CleanupQueueCapacity  int
	WorkerCount           int
}

// DefaultConfig returns a sensible starting point for a small-to-medium
// deployment: a handful of shards, generous queue capacities, and four
// reduce workers.
func DefaultConfig() Config {
	return Config{
		ShardCount:            4,
		ReduceQueueCapacity:   1024,
		DispatchQueueCapacity: 1024,
		CleanupQueueCapacity:  256,
		WorkerCount:           4,
	}
}

// Load builds a Config from v, falling back to [DefaultConfig]'s values for
// any key v does not have set, then validates the result. Keys are read
// under the "pageflow" prefix: pageflow.shard_count,
// pageflow.reduce_queue_capacity, pageflow.dispatch_queue_capacity,
// pageflow.cleanup_queue_capacity, pageflow.worker_count. Load does not
// parse any file or flag set itself; the caller wires v's sources (file,
// env, flags) before calling Load.
func Load(v *viper.Viper) (Config, error) {
	d := DefaultConfig()
	cfg := Config{
		ShardCount:            intOrDefault(v, "pageflow.shard_count", d.ShardCount),
		ReduceQueueCapacity:   intOrDefault(v, "pageflow.reduce_queue_capacity", d.ReduceQueueCapacity),
		DispatchQueueCapacity: intOrDefault(v, "pageflow.dispatch_queue_capacity", d.DispatchQueueCapacity),
		CleanupQueueCapacity:  intOrDefault(v, "pageflow.cleanup_queue_capacity", d.CleanupQueueCapacity),
		WorkerCount:           intOrDefault(v, "pageflow.worker_count", d.WorkerCount),
	}
	return cfg, cfg.Validate()
}

func intOrDefault(v *viper.Viper, key string, def int) int {
	if v == nil || !v.IsSet(key) {
		return def
	}
	return v.GetInt(key)
}

// Validate reports an error if any field is non-positive. Queue capacities
// need not already be powers of two — internal/ring rounds up — but a
// non-positive value is always a configuration mistake.
func (c Config) Validate() error {
	type field struct {
		name string
		val  int
	}
	for _, f := range []field{
		{"shard_count", c.ShardCount},
		{"reduce_queue_capacity", c.ReduceQueueCapacity},
		{"dispatch_queue_capacity", c.DispatchQueueCapacity},
		{"cleanup_queue_capacity", c.CleanupQueueCapacity},
		{"worker_count", c.WorkerCount},
	} {
		if f.val <= 0 {
			return fmt.Errorf("pageflow: config.%s must be positive, got %d", f.name, f.val)
		}
	}
	return nil
}
