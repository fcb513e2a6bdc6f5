// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stress_test

import (
	"context"
	"testing"

	"code.hybscloud.com/jobq"
	"code.hybscloud.com/jobq/internal/stress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	if jobq.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}

	q := jobq.New().Counting().Build()
	cfg := stress.Config{Producers: 3, Consumers: 2, JobsPerProducer: 1000}
	r, err := stress.Run(context.Background(), q, cfg)
	require.NoError(t, err)
	require.NoError(t, r.Err())

	assert.Equal(t, cfg, r.Config)
	assert.Equal(t, 3000, r.Enqueued)
	assert.Equal(t, 3000, r.Executed)
	assert.Zero(t, r.Lost)
	assert.Zero(t, r.Duplicated)
	assert.EqualValues(t, 3000, r.Stats.Enqueued)
	assert.EqualValues(t, 3000, r.Stats.Dequeued)
	assert.Positive(t, r.Elapsed)
	assert.Positive(t, r.Throughput())
}

func TestRunInvalidConfig(t *testing.T) {
	for _, cfg := range []stress.Config{
		{},
		{Producers: 1, Consumers: 0, JobsPerProducer: 1},
		{Producers: 0, Consumers: 1, JobsPerProducer: 1},
		{Producers: 1, Consumers: 1, JobsPerProducer: 0},
	} {
		_, err := stress.Run(context.Background(), jobq.NewJobQueue(), cfg)
		assert.Error(t, err, "%+v", cfg)
	}
}

func TestRunCancelled(t *testing.T) {
	if jobq.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}

	// Workers that find the queue empty before producers finish give up on
	// a cancelled context. Whether that happens is timing dependent, but the
	// report must account for every job either way.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := jobq.NewJobQueue()
	r, err := stress.Run(ctx, q, stress.Config{Producers: 4, Consumers: 2, JobsPerProducer: 5000})
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, 20_000, r.Enqueued)
	assert.Zero(t, r.Duplicated)
	assert.Equal(t, r.Enqueued, r.Executed+r.Lost)
	assert.Equal(t, r.Lost, q.Reset())
}

func TestReportErr(t *testing.T) {
	assert.NoError(t, stress.Report{}.Err())

	r := stress.Report{Lost: 2, Duplicated: 1, Reordered: 3}
	err := r.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, stress.ErrLost)
	assert.ErrorIs(t, err, stress.ErrDuplicated)
	assert.ErrorIs(t, err, stress.ErrReordered)
	assert.Contains(t, err.Error(), "lost: 2")

	assert.Zero(t, stress.Report{Executed: 10}.Throughput())
}

func TestDefaultConfig(t *testing.T) {
	cfg := stress.DefaultConfig()
	assert.Equal(t, 2, cfg.Producers)
	assert.Equal(t, 2, cfg.Consumers)
	assert.Equal(t, 10_000, cfg.JobsPerProducer)
}
