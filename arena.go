// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jobq

import (
	"math/bits"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"golang.org/x/sys/cpu"
)

// Handle layout (64 bits):
//
//	bit  0      reserved, always 0 (tail lock bit)
//	bits 1..32  index+1 (never 0, so a handle is never Empty)
//	bits 33..63 generation of the node when the handle was issued
const (
	handleEmpty uint64 = 0
	indexMask   uint64 = 1<<32 - 1
	genShift           = 33
	genMask     uint32 = 1<<31 - 1

	// maxIndex is the largest index a handle can carry.
	maxIndex = 1<<32 - 2

	// maxSegments covers every index for any segment size >= 1.
	maxSegments = 32
)

func makeHandle(idx uint32, gen uint32) uint64 {
	return uint64(gen&genMask)<<genShift | (uint64(idx)+1)<<1
}

func handleIndex(h uint64) uint32 {
	return uint32((h>>1)&indexMask) - 1
}

func handleGen(h uint64) uint32 {
	return uint32(h >> genShift)
}

// node holds one queued job.
type node struct {
	job  Job
	next uint64        // successor handle; written once by the linking producer
	gen  uint32        // bumped on every release
	free atomix.Uint64 // free-list link: index+1 of the next free node, 0 = end
}

// arena is a growable, index-addressed node store.
//
// Segment k holds base<<k nodes, so the directory never has to move and a
// node's address is stable for the lifetime of the arena. Released nodes are
// recycled through a Treiber stack whose top word carries a 32-bit tag
// (tag<<32 | index+1) to defeat ABA.
type arena struct {
	_        cpu.CacheLinePad
	free     atomix.Uint64 // free-list top
	_        cpu.CacheLinePad
	fresh    atomix.Uint64 // next never-used index
	_        cpu.CacheLinePad
	segCount atomix.Uint64 // published segments
	_        cpu.CacheLinePad
	mu       sync.Mutex // serializes growth
	segments [maxSegments][]node
	shift    uint // log2(base)
}

func newArena(segmentSize int, prealloc int) *arena {
	a := &arena{shift: uint(bits.TrailingZeros(uint(segmentSize)))}
	if prealloc > 0 {
		a.grow(uint32(prealloc - 1))
	}
	return a
}

// locate maps an index to its segment and offset.
func (a *arena) locate(idx uint32) (seg int, off uint64) {
	j := uint64(idx)>>a.shift + 1
	seg = bits.Len64(j) - 1
	off = uint64(idx) - (uint64(1)<<seg-1)<<a.shift
	return seg, off
}

func (a *arena) at(idx uint32) *node {
	seg, off := a.locate(idx)
	return &a.segments[seg][off]
}

// grow publishes every segment up to and including the one holding idx.
func (a *arena) grow(idx uint32) {
	seg, _ := a.locate(idx)
	if uint64(seg) < a.segCount.LoadAcquire() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for k := a.segCount.LoadRelaxed(); k <= uint64(seg); k++ {
		a.segments[k] = make([]node, uint64(1)<<(a.shift+uint(k)))
		a.segCount.StoreRelease(k + 1)
	}
}

// alloc returns a node that no other goroutine can reach, together with the
// handle that names it.
func (a *arena) alloc() (uint64, *node) {
	sw := spin.Wait{}
	for {
		top := a.free.LoadAcquire()
		ref := top & indexMask
		if ref == 0 {
			break
		}
		idx := uint32(ref - 1)
		n := a.at(idx)
		link := n.free.LoadRelaxed()
		if a.free.CompareAndSwapAcqRel(top, (top>>32+1)<<32|link) {
			return makeHandle(idx, n.gen), n
		}
		sw.Once()
	}

	next := a.fresh.AddAcqRel(1) - 1
	if next > maxIndex {
		panic("jobq: arena exhausted")
	}
	idx := uint32(next)
	a.grow(idx)
	n := a.at(idx)
	return makeHandle(idx, n.gen), n
}

// deref resolves a handle, panicking if the node was released since the
// handle was issued.
func (a *arena) deref(h uint64) *node {
	n := a.at(handleIndex(h))
	if n.gen != handleGen(h) {
		panic("jobq: stale node handle")
	}
	return n
}

// release returns the node named by h to the free list. The caller must be
// its exclusive owner.
func (a *arena) release(h uint64, n *node) {
	if n.gen != handleGen(h) {
		panic("jobq: node released twice")
	}
	n.job = nil
	n.next = handleEmpty
	n.gen = (n.gen + 1) & genMask

	ref := uint64(handleIndex(h)) + 1
	sw := spin.Wait{}
	for {
		top := a.free.LoadRelaxed()
		n.free.StoreRelaxed(top & indexMask)
		if a.free.CompareAndSwapAcqRel(top, (top>>32+1)<<32|ref) {
			return
		}
		sw.Once()
	}
}

// slots reports how many nodes have ever been handed out.
func (a *arena) slots() int {
	n := a.fresh.LoadRelaxed()
	if n > maxIndex+1 {
		n = maxIndex + 1
	}
	return int(n)
}
