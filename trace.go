// Copyright 2024 The posixalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package posixalloc

// trace gates the debug logging in alloc.go. Flip to true locally when
// chasing a placement or coalescing bug; never enabled in committed code.
const trace = false
