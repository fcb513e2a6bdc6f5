// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jobq

const (
	// DefaultSegmentSize is the number of nodes in the arena's first segment.
	DefaultSegmentSize = 64

	// MaxSegmentSize bounds SegmentSize.
	MaxSegmentSize = 1 << 20
)

// Options configures queue creation.
type Options struct {
	// Arena shape
	segmentSize int // Nodes in the first segment (power of 2)
	prealloc    int // Nodes backed by memory at construction

	// Instrumentation
	counting bool // Maintain Enqueued/Dequeued/Discarded counters
}

// Builder creates queues with fluent configuration.
//
// Example:
//
//	// Defaults: 64-node first segment, no counters
//	q := jobq.New().Build()
//
//	// Large bursts expected, metrics exported
//	q := jobq.New().SegmentSize(4096).Prealloc(1 << 16).Counting().Build()
type Builder struct {
	opts Options
}

// New creates a queue builder with default options.
func New() *Builder {
	return &Builder{opts: Options{segmentSize: DefaultSegmentSize}}
}

// SegmentSize sets the node count of the arena's first segment. Every further
// segment doubles the previous one. Rounds up to the next power of 2.
//
// Panics if n < 1 or n > MaxSegmentSize.
func (b *Builder) SegmentSize(n int) *Builder {
	if n < 1 || n > MaxSegmentSize {
		panic("jobq: segment size must be in [1, MaxSegmentSize]")
	}
	b.opts.segmentSize = roundToPow2(n)
	return b
}

// Prealloc backs at least n nodes with memory when the queue is built, so
// the first n concurrently queued jobs never grow the arena.
//
// Panics if n < 0 or n exceeds the arena's index space.
func (b *Builder) Prealloc(n int) *Builder {
	if n < 0 || uint64(n) > maxIndex+1 {
		panic("jobq: prealloc out of range")
	}
	b.opts.prealloc = n
	return b
}

// Counting enables the Enqueued, Dequeued and Discarded counters reported by
// [JobQueue.Stats]. Counters add one shared atomic increment per operation.
func (b *Builder) Counting() *Builder {
	b.opts.counting = true
	return b
}

// Build creates an empty JobQueue.
func (b *Builder) Build() *JobQueue {
	return &JobQueue{
		arena:    newArena(b.opts.segmentSize, b.opts.prealloc),
		counting: b.opts.counting,
	}
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
