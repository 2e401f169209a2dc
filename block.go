// Copyright 2024 The posixalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package posixalloc

import "unsafe"

const alignment = 8

// status is the lifecycle state of a heap block. A mapped block is never
// FREE or ALLOC; it is born MAPPED and dies on Free.
type status uint8

const (
	statusFree status = iota
	statusAlloc
	statusMapped
)

func (s status) String() string {
	switch s {
	case statusFree:
		return "FREE"
	case statusAlloc:
		return "ALLOC"
	case statusMapped:
		return "MAPPED"
	default:
		return "invalid"
	}
}

// header is the in-band metadata that prefixes every allocation. size is
// the payload length in bytes, excluding the header itself. prev/next link
// the block into the heap's address-ordered list; they are unused (and
// must not be dereferenced) on a MAPPED block.
type header struct {
	size   uintptr
	status status
	prev   *header
	next   *header
}

// headerSize is the header length rounded up to the alignment quantum, so
// every payload begins aligned. Computed once, at package init, and never
// changed afterwards — see SPEC_FULL.md §4 on why the reference's
// mid-flight recomputation is not reproduced here.
var headerSize = roundup(int(unsafe.Sizeof(header{})), alignment)

// roundup rounds n up to the nearest multiple of m. m must be a power of 2.
func roundup(n, m int) int { return (n + m - 1) &^ (m - 1) }

// alignedSize rounds a requested payload size up to the alignment quantum.
func alignedSize(n int) int { return roundup(n, alignment) }

// addr returns the header's own address.
func (h *header) addr() uintptr { return uintptr(unsafe.Pointer(h)) }

// payload returns the address of the first payload byte.
func (h *header) payload() unsafe.Pointer {
	return unsafe.Pointer(h.addr() + uintptr(headerSize))
}

// totalSize is the full byte span of the block: header plus payload.
func (h *header) totalSize() int { return headerSize + int(h.size) }

// headerAt recovers a block header from a payload address, as returned to
// the host by Malloc, Calloc or Realloc.
func headerAt(p unsafe.Pointer) *header {
	return (*header)(unsafe.Pointer(uintptr(p) - uintptr(headerSize)))
}

// payloadBytes views a block's payload as a byte slice of length n.
func payloadBytes(h *header, n int) []byte {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(h.payload()), n)
}

// split divides block so that its size field becomes exactly
// totalBytes-headerSize, inserting a new FREE block at the trailing edge
// when there is at least one header's worth of payload left over.
// Otherwise block is left intact: there is no useful trailing space.
func split(block *header, totalBytes int) {
	remainder := headerSize + int(block.size) - totalBytes
	if remainder < headerSize {
		return
	}

	newBlock := (*header)(unsafe.Pointer(block.addr() + uintptr(totalBytes)))
	newBlock.size = uintptr(remainder - headerSize)
	newBlock.status = statusFree
	newBlock.prev = block
	newBlock.next = block.next

	block.size = uintptr(totalBytes - headerSize)
	block.next = newBlock
	if newBlock.next != nil {
		newBlock.next.prev = newBlock
	}
}

// merge absorbs second into first. Precondition: first.next == second.
func merge(first, second *header) {
	first.size += uintptr(headerSize) + second.size
	first.next = second.next
	if first.next != nil {
		first.next.prev = first
	}
}

// coalesce makes a single forward pass from head, merging every run of
// adjacent FREE blocks into one. Restores I4 before any list read.
func coalesce(head *header) {
	for b := head; b != nil && b.next != nil; {
		if b.status == statusFree && b.next.status == statusFree {
			merge(b, b.next)
			continue
		}
		b = b.next
	}
}

// findBest returns the smallest FREE block whose total size (header +
// payload) is at least totalBytes, breaking ties by list order. Returns
// nil if no block qualifies.
func findBest(head *header, totalBytes int) *header {
	var best *header
	for b := head; b != nil; b = b.next {
		if b.status != statusFree {
			continue
		}
		if headerSize+int(b.size) < totalBytes {
			continue
		}
		if best == nil || b.size < best.size {
			best = b
		}
	}
	return best
}

// tail returns the last block in the heap list.
func tail(head *header) *header {
	b := head
	for b.next != nil {
		b = b.next
	}
	return b
}
