// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"sort"

	"code.hybscloud.com/jobq"
	"code.hybscloud.com/jobq/internal/stress"
	"code.hybscloud.com/jobq/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
)

type options struct {
	cfg         stress.Config
	segmentSize int
	prealloc    int
	rounds      int
	metrics     bool
}

func newRootCmd() *cobra.Command {
	opts := options{cfg: stress.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "jobqstress",
		Short: "Soak a job queue and verify exactly-once delivery",
		Example: `  jobqstress
  jobqstress --producers 8 --consumers 8 --jobs 100000 --rounds 20 --metrics`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.cfg.Producers, "producers", "p", opts.cfg.Producers, "producer goroutines")
	flags.IntVarP(&opts.cfg.Consumers, "consumers", "c", opts.cfg.Consumers, "consumer goroutines")
	flags.IntVarP(&opts.cfg.JobsPerProducer, "jobs", "n", opts.cfg.JobsPerProducer, "jobs per producer")
	flags.IntVar(&opts.segmentSize, "segment-size", jobq.DefaultSegmentSize, "nodes in the first arena segment")
	flags.IntVar(&opts.prealloc, "prealloc", 0, "nodes backed by memory up front")
	flags.IntVarP(&opts.rounds, "rounds", "r", 1, "rounds to run, each on a fresh queue")
	flags.BoolVar(&opts.metrics, "metrics", false, "print collected metrics after each round")
	return cmd
}

func (o *options) run(cmd *cobra.Command) error {
	if o.rounds < 1 {
		return fmt.Errorf("rounds must be >= 1, got %d", o.rounds)
	}
	if o.segmentSize < 1 || o.segmentSize > jobq.MaxSegmentSize {
		return fmt.Errorf("segment size must be in [1, %d], got %d", jobq.MaxSegmentSize, o.segmentSize)
	}
	if o.prealloc < 0 {
		return fmt.Errorf("prealloc must be >= 0, got %d", o.prealloc)
	}

	out := cmd.OutOrStdout()
	for round := 1; round <= o.rounds; round++ {
		q := jobq.New().SegmentSize(o.segmentSize).Prealloc(o.prealloc).Counting().Build()
		reg := prometheus.NewRegistry()
		reg.MustRegister(metrics.NewCollector("stress", q))

		report, err := stress.Run(cmd.Context(), q, o.cfg)
		if err != nil {
			return err
		}
		printReport(out, round, report)
		if o.metrics {
			if err := printMetrics(out, reg); err != nil {
				return err
			}
		}
		if err := report.Err(); err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
	}
	return nil
}

func printReport(w io.Writer, round int, r stress.Report) {
	status := "ok"
	if r.Err() != nil {
		status = "FAIL"
	}
	fmt.Fprintf(w, "round %d: %s producers=%d consumers=%d jobs=%d executed=%d lost=%d duplicated=%d reordered=%d slots=%d elapsed=%s rate=%.0f/s\n",
		round, status, r.Config.Producers, r.Config.Consumers, r.Enqueued, r.Executed,
		r.Lost, r.Duplicated, r.Reordered, r.Stats.Slots, r.Elapsed, r.Throughput())
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				v = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				v = m.GetGauge().GetValue()
			default:
				continue
			}
			fmt.Fprintf(w, "  %s %g\n", mf.GetName(), v)
		}
	}
	return nil
}
