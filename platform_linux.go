// Copyright 2024 The posixalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package posixalloc

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// extendBreak grows the process data segment by delta bytes and returns the
// break address from before the extension. A negative delta is rejected;
// tail growth and preallocation only ever grow.
func extendBreak(delta int) (uintptr, error) {
	if delta < 0 {
		return 0, unix.EINVAL
	}

	cur, _, errno := unix.Syscall(unix.SYS_BRK, 0, 0, 0)
	if errno != 0 {
		return 0, errno
	}

	next := cur + uintptr(delta)
	got, _, errno := unix.Syscall(unix.SYS_BRK, next, 0, 0)
	if errno != 0 || got < next {
		return 0, unix.ENOMEM
	}

	return cur, nil
}

// shrinkBreakTo sets the program break to an absolute address, which may
// lie above the current break. Used by Realloc's tail-grow path, which
// computes the new break directly from a payload address rather than as a
// delta from the current one.
func shrinkBreakTo(addr uintptr) error {
	got, _, errno := unix.Syscall(unix.SYS_BRK, addr, 0, 0)
	if errno != 0 {
		return errno
	}
	if got != addr {
		return unix.ENOMEM
	}
	return nil
}

// mapAnon returns a fresh anonymous private read/write mapping of n bytes,
// already page-rounded by the kernel.
func mapAnon(n int) (unsafe.Pointer, error) {
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(&b[0]), nil
}

// unmapAnon releases a mapping previously returned by mapAnon.
func unmapAnon(addr unsafe.Pointer, n int) error {
	b := unsafe.Slice((*byte)(addr), n)
	return unix.Munmap(b)
}

// queryPagesize returns the kernel page size.
func queryPagesize() int {
	return unix.Getpagesize()
}
