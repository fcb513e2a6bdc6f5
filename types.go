// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jobq

// Job is a unit of work: an opaque callable with no arguments and no result.
//
// The queue stores the func value only. Whatever the job closes over must
// stay valid until a worker runs it.
type Job func()

// Queue is the combined producer-consumer interface of a job queue.
//
// Queue intentionally excludes length because an exact count needs
// cross-core synchronization on every operation. Enable counters with
// [Builder.Counting] and read [JobQueue.Stats] when an estimate is enough.
//
// Example:
//
//	var q jobq.Queue = jobq.NewJobQueue()
//
//	q.Enqueue(func() { fmt.Println("hello") })
//
//	job, err := q.TryDequeue()
//	if err == nil {
//	    job()
//	}
type Queue interface {
	Producer
	Consumer
}

// Producer is the submitting end of a job queue.
type Producer interface {
	// Enqueue appends a job. It never fails; the queue is unbounded.
	// Safe for any number of concurrent producers.
	Enqueue(job Job)
}

// Consumer is the worker end of a job queue.
type Consumer interface {
	// TryDequeue removes and returns the oldest job (non-blocking).
	// Returns (nil, ErrWouldBlock) if the queue is empty.
	// Safe for any number of concurrent consumers.
	TryDequeue() (Job, error)
}

// StatsSource is implemented by queues that report [Stats].
type StatsSource interface {
	Stats() Stats
}

var (
	_ Queue       = (*JobQueue)(nil)
	_ StatsSource = (*JobQueue)(nil)
)
