// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exports job queue statistics to Prometheus.
//
//	q := jobq.New().Counting().Build()
//	prometheus.MustRegister(metrics.NewCollector("render", q))
//
// The collector reads [jobq.JobQueue.Stats] at scrape time, so it adds no
// cost to Enqueue or TryDequeue beyond the queue's own counters.
package metrics

import (
	"code.hybscloud.com/jobq"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jobq"

// Collector implements prometheus.Collector for one queue.
type Collector struct {
	src jobq.StatsSource

	enqueued  *prometheus.Desc
	dequeued  *prometheus.Desc
	discarded *prometheus.Desc
	pending   *prometheus.Desc
	slots     *prometheus.Desc
}

// NewCollector returns a collector for src. Every metric carries a
// queue=name label so several queues can share a registry.
func NewCollector(name string, src jobq.StatsSource) *Collector {
	labels := prometheus.Labels{"queue": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", metric), help, nil, labels)
	}
	return &Collector{
		src:       src,
		enqueued:  desc("enqueued_total", "Jobs accepted by Enqueue."),
		dequeued:  desc("dequeued_total", "Jobs handed to workers by TryDequeue."),
		discarded: desc("discarded_total", "Jobs dropped without running by Reset."),
		pending:   desc("pending_jobs", "Jobs currently queued (estimate)."),
		slots:     desc("arena_slots", "Arena nodes ever handed out."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.enqueued
	ch <- c.dequeued
	ch <- c.discarded
	ch <- c.pending
	ch <- c.slots
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.enqueued, prometheus.CounterValue, float64(s.Enqueued))
	ch <- prometheus.MustNewConstMetric(c.dequeued, prometheus.CounterValue, float64(s.Dequeued))
	ch <- prometheus.MustNewConstMetric(c.discarded, prometheus.CounterValue, float64(s.Discarded))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.Pending()))
	ch <- prometheus.MustNewConstMetric(c.slots, prometheus.GaugeValue, float64(s.Slots))
}

var _ prometheus.Collector = (*Collector)(nil)
