// Copyright 2024 The posixalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package posixalloc

import "unsafe"

const (
	// mmapThreshold is the placement threshold for Malloc/Realloc: a
	// request whose aligned total size (including header) exceeds this
	// many bytes is served by a dedicated anonymous mapping instead of
	// the heap.
	mmapThreshold = 128 * 1024

	// initMemAlloc is the one-shot heap preallocation size, applied on
	// the first heap-backed request of either Malloc or Calloc.
	initMemAlloc = 128 * 1024
)

// Allocator allocates and frees memory. Its zero value is ready for use.
// An Allocator is not safe for concurrent use.
type Allocator struct {
	heapStart *header // nil until the first heap-backed allocation; constant thereafter
	pagesize  int     // lazily queried on first Calloc; 0 means "not yet queried"
}

// newHeapBlock extends the data segment by bytes and installs a new ALLOC
// block covering the whole extension, linked after prev (which may be nil
// for the very first block).
func newHeapBlock(prev *header, bytes int) *header {
	base, err := extendBreak(bytes)
	die(err != nil, "posixalloc: failed to extend the data segment by %d bytes: %v", bytes, err)

	b := (*header)(unsafe.Pointer(base))
	b.size = uintptr(bytes - headerSize)
	b.status = statusAlloc
	b.prev = prev
	b.next = nil
	if prev != nil {
		prev.next = b
	}
	return b
}

// newMappedBlock maps a fresh anonymous region of bytes and installs a
// MAPPED block covering it. A MAPPED block is never linked into the heap
// list; prev/next are left at their zero value and must not be used.
func newMappedBlock(bytes int) *header {
	p, err := mapAnon(bytes)
	die(err != nil, "posixalloc: failed to map %d anonymous bytes: %v", bytes, err)

	b := (*header)(p)
	b.size = uintptr(bytes - headerSize)
	b.status = statusMapped
	return b
}

// preallocate performs the one-shot first-use heap preallocation: the heap
// is extended by initMemAlloc bytes, unless the request itself is at least
// that large, in which case the preallocated block is sized to the request
// instead. The block is then split down to totalBytes, leaving a trailing
// FREE block covering whatever of initMemAlloc the request didn't use. zero
// requests an explicit zero-fill of the returned (post-split) payload only;
// the FREE remainder needs no fill until it is itself handed out.
func preallocate(totalBytes int, zero bool) *header {
	bytes := initMemAlloc
	if totalBytes > bytes {
		bytes = totalBytes
	}

	b := newHeapBlock(nil, bytes)
	split(b, totalBytes)
	if zero {
		zeroPayload(b)
	}
	return b
}

// growTail extends the heap to satisfy a totalBytes request that best-fit
// search could not place. If the tail block is FREE, the data segment is
// extended by exactly the shortfall and those bytes are appended directly
// to the tail's payload — there is no second header to account for, since
// the extension is raw, never-allocated memory becoming part of the one
// existing block, not a second block being merged in. Otherwise a fresh
// ALLOC block is appended after the tail. Either way the returned block is
// ALLOC and covers at least totalBytes.
func growTail(head *header, totalBytes int) *header {
	t := tail(head)
	if t.status == statusFree {
		shortfall := totalBytes - headerSize - int(t.size)
		_, err := extendBreak(shortfall)
		die(err != nil, "posixalloc: failed to extend the data segment by %d bytes: %v", shortfall, err)

		t.size += uintptr(shortfall)
		t.status = statusAlloc
		return t
	}

	return newHeapBlock(t, totalBytes)
}
