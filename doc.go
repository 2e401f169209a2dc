// Copyright 2024 The posixalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package posixalloc implements a user-space general-purpose allocator on
// top of the raw kernel primitives that extend a process's data segment and
// that map anonymous pages.
//
// It is a drop-in replacement for the C library allocator: Malloc, Free,
// Realloc and Calloc mirror malloc(3), free(3), realloc(3) and calloc(3).
// Small requests are served from a single growable heap region maintained
// as an address-ordered doubly-linked list of in-band block headers, using
// a best-fit search with splitting and lazy forward coalescing. Large
// requests bypass the heap entirely and are served by a dedicated anonymous
// mapping, released back to the kernel on Free.
//
// The zero value of Allocator is ready to use. An Allocator is not safe for
// concurrent use; callers with multiple goroutines must serialize access.
package posixalloc
