// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bus

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters and gauges a Bus reports. Passing a nil
// Registerer to NewMetrics disables registration entirely, so callers that
// don't want a Prometheus endpoint (unit tests, embedding) pay no cost.
type Metrics struct {
	FramesDispatched     *prometheus.CounterVec
	ReduceTasksReduced   *prometheus.CounterVec
	RowsCollected        *prometheus.CounterVec
	QueueFull            *prometheus.CounterVec
	ActiveFrameSequences *prometheus.GaugeVec
}

// NewMetrics builds the Metrics set and, if reg is non-nil, registers every
// collector with it. Registration failures (e.g. a duplicate registration in
// a test that builds two Bus instances against the same registry) are
// swallowed the way vecgo's observability example does for an optional
// registerer, since a dead metric must never fail the pipeline it measures.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pageflow",
			Name:      "frames_dispatched_total",
			Help:      "Number of per-frame reduce tasks published into a shard's reduce queue.",
		}, []string{"shard"}),
		ReduceTasksReduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pageflow",
			Name:      "reduce_tasks_reduced_total",
			Help:      "Number of reduce tasks whose reducer has run to completion.",
		}, []string{"shard"}),
		RowsCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pageflow",
			Name:      "rows_collected_total",
			Help:      "Number of surviving rows yielded to a caller by the collect cursor.",
		}, []string{"shard"}),
		QueueFull: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pageflow",
			Name:      "queue_full_total",
			Help:      "Number of times a publisher observed its ring full and fell back to work-stealing.",
		}, []string{"queue"}),
		ActiveFrameSequences: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pageflow",
			Name:      "active_frame_sequences",
			Help:      "Number of frame sequences currently dispatched or collecting on a shard.",
		}, []string{"shard"}),
	}
	if reg == nil {
		return m
	}
	for _, c := range []prometheus.Collector{
		m.FramesDispatched, m.ReduceTasksReduced, m.RowsCollected, m.QueueFull, m.ActiveFrameSequences,
	} {
		_ = reg.Register(c)
	}
	return m
}
