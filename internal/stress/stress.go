// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stress drives a JobQueue with concurrent producers and workers and
// checks that every job ran exactly once.
package stress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/jobq"
)

var (
	ErrLost       = errors.New("stress: jobs lost")
	ErrDuplicated = errors.New("stress: jobs ran more than once")
	ErrReordered  = errors.New("stress: jobs ran out of submission order")
)

// Config describes one stress round.
type Config struct {
	Producers       int // Goroutines calling Enqueue
	Consumers       int // Goroutines calling TryDequeue
	JobsPerProducer int
}

// DefaultConfig mirrors the two-producer, two-consumer, 10,000-job scenario.
func DefaultConfig() Config {
	return Config{Producers: 2, Consumers: 2, JobsPerProducer: 10_000}
}

func (c Config) validate() error {
	if c.Producers < 1 || c.Consumers < 1 || c.JobsPerProducer < 1 {
		return fmt.Errorf("stress: invalid config %+v", c)
	}
	return nil
}

// Report summarizes a round.
//
// Reordered is only checked with a single consumer: with several workers the
// order in which jobs run differs from the order in which they were dequeued.
type Report struct {
	Config     Config
	Enqueued   int
	Executed   int
	Lost       int
	Duplicated int
	Reordered  int
	Elapsed    time.Duration
	Stats      jobq.Stats
}

// Err returns nil if the round delivered every job exactly once (and in
// order, when checked).
func (r Report) Err() error {
	var errs []error
	if r.Lost > 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrLost, r.Lost))
	}
	if r.Duplicated > 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrDuplicated, r.Duplicated))
	}
	if r.Reordered > 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrReordered, r.Reordered))
	}
	return errors.Join(errs...)
}

// Throughput returns executed jobs per second.
func (r Report) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Executed) / r.Elapsed.Seconds()
}

// Run executes one round against q, which must be empty.
//
// Each job increments its own hit counter when run. Workers keep polling
// until every producer has returned and the queue reads empty. Run returns
// ctx.Err() if ctx is cancelled first; the partial report is still filled in.
func Run(ctx context.Context, q *jobq.JobQueue, cfg Config) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}

	total := cfg.Producers * cfg.JobsPerProducer
	hits := make([]atomix.Int32, total)
	ordered := cfg.Consumers == 1
	last := make([]int, cfg.Producers)
	for i := range last {
		last[i] = -1
	}
	var reordered, executed atomix.Int64
	var producersDone atomix.Bool

	start := time.Now()

	var prodWg sync.WaitGroup
	for p := range cfg.Producers {
		prodWg.Add(1)
		go func(p int) {
			defer prodWg.Done()
			for seq := range cfg.JobsPerProducer {
				id := p*cfg.JobsPerProducer + seq
				q.Enqueue(func() {
					hits[id].Add(1)
					executed.Add(1)
					if ordered {
						if seq <= last[p] {
							reordered.Add(1)
						}
						last[p] = seq
					}
				})
			}
		}(p)
	}

	var consWg sync.WaitGroup
	errs := make(chan error, cfg.Consumers)
	for range cfg.Consumers {
		consWg.Add(1)
		go func() {
			defer consWg.Done()
			backoff := iox.Backoff{}
			for {
				// Read the flag before polling: an empty read after all
				// producers returned means the queue is drained.
				done := producersDone.LoadAcquire()
				job, err := q.TryDequeue()
				if err == nil {
					job()
					backoff.Reset()
					continue
				}
				if !jobq.IsWouldBlock(err) {
					errs <- err
					return
				}
				if done {
					return
				}
				if ctx.Err() != nil {
					errs <- ctx.Err()
					return
				}
				backoff.Wait()
			}
		}()
	}

	prodWg.Wait()
	producersDone.StoreRelease(true)
	consWg.Wait()
	close(errs)

	r := Report{
		Config:   cfg,
		Enqueued: total,
		Executed: int(executed.Load()),
		Elapsed:  time.Since(start),
		Stats:    q.Stats(),
	}
	for i := range hits {
		switch n := hits[i].Load(); {
		case n == 0:
			r.Lost++
		case n > 1:
			r.Duplicated += int(n - 1)
		}
	}
	r.Reordered = int(reordered.Load())

	return r, <-errs
}
