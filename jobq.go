// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jobq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"golang.org/x/sys/cpu"
)

const (
	// headLocked is the head value while a consumer is unlinking the oldest
	// node. It is odd, so it never collides with a handle.
	headLocked uint64 = 1

	// tailLocked is or-ed into the tail handle while a producer links a
	// successor onto the newest node.
	tailLocked uint64 = 1
)

// JobQueue is an unbounded multi-producer multi-consumer FIFO of jobs.
//
// The queue is a singly linked list of arena nodes with two cursors. Each end
// is guarded by a spin lock encoded in its cursor word: head holds the
// reserved value headLocked while a consumer unlinks a node, and tail carries
// a low tag bit while a producer links a new node. Producers and consumers
// therefore contend only with their own side, except when the queue holds a
// single node.
//
// Progress is obstruction-free, not lock-free: a goroutine preempted while
// holding either end stalls the others on that end until it runs again.
//
// Memory: one arena node per queued job, recycled after dequeue.
type JobQueue struct {
	_     cpu.CacheLinePad
	head  atomix.Uint64 // Empty, headLocked or handle of the oldest node
	_     cpu.CacheLinePad
	tail  atomix.Uint64 // Empty, handle of the newest node, or handle|tailLocked
	_     cpu.CacheLinePad
	arena *arena

	counting  bool
	enqueued  atomix.Int64
	dequeued  atomix.Int64
	discarded atomix.Int64
}

// NewJobQueue creates an empty queue with default arena settings.
// Use [New] to configure the arena or enable operation counters.
func NewJobQueue() *JobQueue {
	return New().Build()
}

// Enqueue appends job to the queue. It never fails and never blocks beyond
// the short spin while another producer finishes linking its own node.
//
// Panics if job is nil.
func (q *JobQueue) Enqueue(job Job) {
	if job == nil {
		panic("jobq: nil job")
	}

	h, n := q.arena.alloc()
	n.job = job
	n.next = handleEmpty

	sw := spin.Wait{}
	tail := q.tail.LoadRelaxed()
	for {
		for tail&tailLocked != 0 {
			sw.Once()
			tail = q.tail.LoadRelaxed()
		}
		// An empty queue has nothing to link against: publish the node
		// directly. Otherwise take the tail lock on the current node.
		want := h
		if tail != handleEmpty {
			want = tail | tailLocked
		}
		if q.tail.CompareAndSwapAcqRel(tail, want) {
			break
		}
		sw.Once()
		tail = q.tail.LoadRelaxed()
	}

	if tail != handleEmpty {
		q.arena.deref(tail).next = h
		q.tail.StoreRelease(h)
	} else {
		// This producer seeded an empty queue, so the node is also the
		// head. A consumer may still be unlinking the previous last node.
		sw.Reset()
		for {
			for q.head.LoadRelaxed() != handleEmpty {
				sw.Once()
			}
			if q.head.CompareAndSwapAcqRel(handleEmpty, h) {
				break
			}
		}
	}

	if q.counting {
		q.enqueued.Add(1)
	}
}

// TryDequeue removes and returns the oldest job.
// Returns (nil, ErrWouldBlock) if the queue is empty at the instant of the check.
//
// The returned job is owned by the caller; the queue never runs jobs.
func (q *JobQueue) TryDequeue() (Job, error) {
	sw := spin.Wait{}
	head := q.head.LoadRelaxed()
	for {
		for head == headLocked {
			sw.Once()
			head = q.head.LoadRelaxed()
		}
		if head == handleEmpty {
			return nil, ErrWouldBlock
		}
		if q.head.CompareAndSwapAcqRel(head, headLocked) {
			break
		}
		sw.Once()
		head = q.head.LoadRelaxed()
	}

	n := q.arena.deref(head)
	job := n.job

	// The node may also be the tail. Wait out a producer that is linking
	// onto it, then either observe that the tail moved on or detach it.
	sw.Reset()
	tail := q.tail.LoadAcquire()
	for {
		for tail == head|tailLocked {
			sw.Once()
			tail = q.tail.LoadAcquire()
		}
		if tail != head {
			break
		}
		if q.tail.CompareAndSwapRelaxed(head, handleEmpty) {
			break
		}
		tail = q.tail.LoadAcquire()
	}

	next := handleEmpty
	if tail != head {
		next = n.next
	}
	q.head.StoreRelease(next)
	q.arena.release(head, n)

	if q.counting {
		q.dequeued.Add(1)
	}
	return job, nil
}

// Reset discards every queued job without running it and returns how many
// were discarded. The queue is empty and reusable afterwards.
//
// Reset is not safe for concurrent use: no Enqueue or TryDequeue may be in
// flight while it runs.
func (q *JobQueue) Reset() int {
	discarded := 0
	h := q.head.LoadAcquire()
	for h != handleEmpty {
		n := q.arena.deref(h)
		next := n.next
		q.arena.release(h, n)
		discarded++
		h = next
	}
	q.head.StoreRelaxed(handleEmpty)
	q.tail.StoreRelease(handleEmpty)

	if q.counting {
		q.discarded.Add(int64(discarded))
	}
	return discarded
}
