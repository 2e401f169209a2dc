// Copyright 2024 The posixalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package posixalloc

import (
	"fmt"
	"os"
	"unsafe"
)

// die aborts the process with a diagnostic when cond is true. It is the
// only error path the kernel-facing calls have: extending the data segment
// or mapping anonymous pages is expected to always succeed on a healthy
// system, and the allocator never hands the caller a nil pointer to signal
// failure (spec: out-of-memory is fatal, not reported).
func die(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// Malloc allocates size bytes and returns a pointer to the start of the
// payload. The memory is not initialized. Malloc panics for size < 0 and
// returns nil for size 0.
//
// Requests whose aligned size (including header) exceeds the mmap
// threshold are served by a dedicated anonymous mapping; everything else
// is served from the heap, growing it on demand.
func (a *Allocator) Malloc(size int) (r unsafe.Pointer) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Malloc(%#x) %p\n", size, r) }()
	}

	if size < 0 {
		panic("invalid malloc size")
	}

	s := alignedSize(size)
	if s == 0 {
		return nil
	}

	total := s + headerSize
	if total > mmapThreshold {
		return newMappedBlock(total).payload()
	}

	if a.heapStart == nil {
		a.heapStart = preallocate(total, false)
		return a.heapStart.payload()
	}

	coalesce(a.heapStart)
	b := findBest(a.heapStart, total)
	if b == nil {
		return growTail(a.heapStart, total).payload()
	}

	split(b, total)
	b.status = statusAlloc
	return b.payload()
}

// Free releases memory obtained from Malloc, Calloc or Realloc. Free(nil)
// is a no-op, and so is freeing an already-FREE block (the header is
// trusted; double free is undefined, not detected).
func (a *Allocator) Free(p unsafe.Pointer) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Free(%p)\n", p) }()
	}

	if p == nil {
		return
	}

	b := headerAt(p)
	switch b.status {
	case statusFree:
		return
	case statusMapped:
		err := unmapAnon(unsafe.Pointer(b), b.totalSize())
		die(err != nil, "posixalloc: failed to unmap %d bytes at %p: %v", b.totalSize(), p, err)
	default:
		// Coalescing is deferred to the next allocator call: this keeps
		// I4 (no two adjacent FREE blocks) satisfied only at the point a
		// public operation is about to read the list, not eagerly here.
		b.status = statusFree
	}
}

// Calloc allocates space for count objects of size bytes each and zeroes
// the result, like calloc(3). Calloc panics if either argument is negative
// and returns nil if either is 0.
//
// The placement threshold here is the kernel page size, not the mmap
// threshold Malloc and Realloc use: a fresh mapping's pages already read
// as zero, so only the heap path needs an explicit fill.
func (a *Allocator) Calloc(count, size int) (r unsafe.Pointer) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Calloc(%#x, %#x) %p\n", count, size, r) }()
	}

	if count < 0 || size < 0 {
		panic("invalid calloc size")
	}

	if count == 0 || size == 0 {
		return nil
	}

	s := alignedSize(count * size)
	if a.pagesize == 0 {
		a.pagesize = queryPagesize()
	}

	total := s + headerSize
	if total > a.pagesize {
		return newMappedBlock(total).payload()
	}

	if a.heapStart == nil {
		a.heapStart = preallocate(total, true)
		return a.heapStart.payload()
	}

	coalesce(a.heapStart)
	b := findBest(a.heapStart, total)
	if b == nil {
		b = growTail(a.heapStart, total)
	} else {
		split(b, total)
		b.status = statusAlloc
	}

	zeroPayload(b)
	return b.payload()
}

// Realloc resizes the allocation at p to size bytes and returns a pointer
// to the (possibly relocated) result, like realloc(3). Realloc panics for
// size < 0. Realloc(nil, size) behaves like Malloc(size); Realloc(p, 0)
// frees p and returns nil. Reallocating an already-freed block returns nil.
func (a *Allocator) Realloc(p unsafe.Pointer, size int) (r unsafe.Pointer) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Realloc(%p, %#x) %p\n", p, size, r) }()
	}

	if size < 0 {
		panic("invalid realloc size")
	}

	s := alignedSize(size)
	if s == 0 {
		a.Free(p)
		return nil
	}

	if p == nil {
		return a.Malloc(size)
	}

	b := headerAt(p)
	switch b.status {
	case statusFree:
		return nil
	case statusMapped:
		return a.relocate(b, s)
	}

	switch {
	case s == int(b.size):
		return p
	case s < int(b.size):
		split(b, s+headerSize)
		return p
	case b.next == nil:
		// Tail block: grow in place by moving the break out to cover the
		// new payload size. Guarded by b.next == nil per the reference's
		// open question — extending from an absolute payload-derived
		// address is only correct when b really is the heap tail.
		newBreak := b.addr() + uintptr(headerSize) + uintptr(s)
		err := shrinkBreakTo(newBreak)
		die(err != nil, "posixalloc: failed to move the break to %#x: %v", newBreak, err)
		b.size = uintptr(s)
		return p
	}

	for b.next != nil && b.next.status == statusFree {
		merge(b, b.next)
		if int(b.size) >= s {
			split(b, headerSize+s)
			return p
		}
	}

	return a.relocate(b, s)
}

// relocate satisfies a reallocation that is not done in place (any resize
// of a MAPPED block, or a heap grow that merging could not satisfy):
// allocate fresh, copy the overlapping prefix, free the source.
func (a *Allocator) relocate(old *header, s int) unsafe.Pointer {
	fresh := a.Malloc(s)

	n := int(old.size)
	if s < n {
		n = s
	}
	copy(payloadBytes(headerAt(fresh), n), payloadBytes(old, n))

	a.Free(old.payload())
	return fresh
}

// zeroPayload fills a block's entire payload with zero bytes.
func zeroPayload(h *header) {
	b := payloadBytes(h, int(h.size))
	for i := range b {
		b[i] = 0
	}
}
