// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jobq

// Stats is a point-in-time snapshot of queue activity.
//
// Enqueued, Dequeued and Discarded are only maintained by queues built with
// [Builder.Counting]; otherwise they are zero. The fields are read
// independently, so under concurrent use they need not be mutually
// consistent.
type Stats struct {
	Enqueued  int64 // Jobs accepted by Enqueue
	Dequeued  int64 // Jobs handed out by TryDequeue
	Discarded int64 // Jobs dropped by Reset
	Slots     int   // Arena nodes ever handed out (high-water mark)
}

// Pending estimates the number of queued jobs.
func (s Stats) Pending() int64 {
	p := s.Enqueued - s.Dequeued - s.Discarded
	if p < 0 {
		return 0
	}
	return p
}

// Stats returns a snapshot of the queue's counters and arena usage.
func (q *JobQueue) Stats() Stats {
	return Stats{
		Enqueued:  q.enqueued.Load(),
		Dequeued:  q.dequeued.Load(),
		Discarded: q.discarded.Load(),
		Slots:     q.arena.slots(),
	}
}

// Counting reports whether the queue maintains operation counters.
func (q *JobQueue) Counting() bool {
	return q.counting
}
