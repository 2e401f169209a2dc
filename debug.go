// Copyright 2024 The posixalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package posixalloc

import "unsafe"

// blockSnapshot is a read-only view of one heap block, used by tests to
// check list-coverage and coalescing invariants without reaching into
// unexported header fields directly.
type blockSnapshot struct {
	addr   uintptr
	size   int
	status status
}

// debugHeapBlocks walks the heap list head to tail and returns a snapshot
// of every block. It does not touch mapped blocks, which are never heap
// list members.
func (a *Allocator) debugHeapBlocks() []blockSnapshot {
	var out []blockSnapshot
	for b := a.heapStart; b != nil; b = b.next {
		out = append(out, blockSnapshot{addr: b.addr(), size: int(b.size), status: b.status})
	}
	return out
}

// debugNoAdjacentFree reports whether no two consecutive blocks in the
// heap list are both FREE (it returns false on a violation of I4, which is
// expected inside the window where coalescing has been deferred to the
// next call).
func (a *Allocator) debugNoAdjacentFree() bool {
	for b := a.heapStart; b != nil && b.next != nil; b = b.next {
		if b.status == statusFree && b.next.status == statusFree {
			return false
		}
	}
	return true
}

// debugCovers reports whether the heap list's blocks exactly cover the
// address range from heapStart to the address immediately after the tail,
// with no gaps or overlaps (I3).
func (a *Allocator) debugCovers() bool {
	b := a.heapStart
	if b == nil {
		return true
	}
	for b.next != nil {
		if b.addr()+uintptr(b.totalSize()) != b.next.addr() {
			return false
		}
		b = b.next
	}
	return true
}

// debugStatusOf returns the status of the block a payload address belongs
// to, for assertions on a block's state after Free, Realloc and the like.
func debugStatusOf(p unsafe.Pointer) status {
	return headerAt(p).status
}
