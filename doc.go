// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package jobq provides an unbounded multi-producer multi-consumer FIFO job
// queue for worker pools.
//
// Any number of goroutines submit jobs with Enqueue; any number of workers
// take them with TryDequeue. Jobs come out in submission order and each job
// is handed to exactly one worker. The queue never runs jobs itself, never
// blocks on an empty queue, and applies no backpressure: idle policy,
// worker count and result handling belong to the caller.
//
// # Quick Start
//
//	q := jobq.NewJobQueue()
//
//	q.Enqueue(func() { fmt.Println("hello") })
//
//	job, err := q.TryDequeue()
//	if err == nil {
//	    job()
//	}
//
// Builder API configures the node arena and instrumentation:
//
//	q := jobq.New().SegmentSize(1024).Prealloc(1 << 14).Counting().Build()
//
// # Worker Pool
//
//	q := jobq.NewJobQueue()
//
//	for range numWorkers {
//	    go func() {
//	        backoff := iox.Backoff{}
//	        for {
//	            job, err := q.TryDequeue()
//	            if err != nil {
//	                backoff.Wait()
//	                continue
//	            }
//	            backoff.Reset()
//	            job()
//	        }
//	    }()
//	}
//
//	// Submit jobs from anywhere
//	q.Enqueue(func() { handle(req) })
//
// A worker loop that must not burn CPU while idle should bound its spinning
// and park on a channel or condition variable; the queue itself has no
// blocking variant.
//
// # Algorithm
//
// The queue is a singly linked list with two cursor words, head and tail.
// There are no mutexes. Each end is protected by a spin lock encoded in its
// cursor:
//
//	head: Empty | Locked | Ref(oldest)
//	tail: Empty | Ref(newest) | LockedRef(newest)
//
// A producer locks the tail by setting its low tag bit, links its node after
// the current newest node and publishes the new tail with a release store.
// A producer that finds the queue empty installs its node as both tail and
// head. A consumer swaps head to Locked with an acquire CAS, which makes it
// the exclusive owner of the oldest node, resolves the successor (detaching
// the tail when the node was the only one) and stores the successor as the
// new head.
//
// Producers only contend with producers and consumers with consumers,
// except when the queue holds a single node.
//
// # Node Arena
//
// Nodes live in an index-addressed arena owned by the queue. A cursor holds
// a handle (generation, index) rather than a pointer, which leaves bit 0
// free for the tail lock and reserves the value 1 for the locked head.
// Segments double in size as the arena grows and never move. Consumed nodes
// return to a free list, so memory tracks the peak number of queued jobs.
//
// Releasing a node bumps its generation. Dereferencing a handle whose
// generation no longer matches, or releasing a node twice, panics: misuse
// that would be use-after-free in a manually managed list surfaces as a
// "jobq:" panic instead of silent corruption.
//
// # Progress Guarantee
//
// The queue is obstruction-free, not lock-free. Every critical section is a
// few word writes, but a goroutine preempted while holding the head or tail
// lock stalls every other goroutine on that end until it is scheduled
// again. With far more runnable goroutines than CPUs, expect occasional
// latency spikes; layer bounded spinning and parking in the worker loop,
// not in the queue.
//
// # Error Handling
//
// TryDequeue returns [ErrWouldBlock] when the queue is empty. This error is
// sourced from [code.hybscloud.com/iox] for ecosystem consistency:
//
//	jobq.IsWouldBlock(err)  // true if queue empty
//	jobq.IsSemantic(err)    // true if control flow signal
//	jobq.IsNonFailure(err)  // true if nil or ErrWouldBlock
//
// Enqueue has no error result. Misuse panics: a nil job, a stale handle,
// a double release or an exhausted arena (2^32-1 live nodes).
//
// # Teardown
//
// [JobQueue.Reset] discards every queued job without running it. It must
// not overlap any Enqueue or TryDequeue call; the caller's driver stops
// producers and workers first.
//
// # Race Detection
//
// Go's race detector cannot observe happens-before edges established by
// atomix acquire/release operations. Job and link fields of a node are
// plain memory published through the cursors, so the detector reports
// false positives for concurrent use. Concurrent tests skip when
// [RaceEnabled] is set, and concurrent examples carry //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives with
// explicit memory ordering, [code.hybscloud.com/spin] for CPU pause
// instructions, [code.hybscloud.com/iox] for semantic errors and
// [golang.org/x/sys/cpu] for cache line padding.
package jobq
