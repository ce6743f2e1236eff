// Copyright 2025 The racedetector Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build amd64 || arm64

package engine

// getg returns the current goroutine's runtime g struct pointer.
// Implemented in assembly (goid_amd64.s, goid_arm64.s): a direct TLS
// read on amd64, a read of the dedicated g register (R28) on arm64.
// Both are Go ABI guarantees the runtime itself depends on, unlike the
// byte offset of any individual field inside g, which shifts between
// Go releases.
//
//go:noescape
func getg() uintptr

// fastGoroutineID reports the calling goroutine's identity as the
// address of its own g struct, skipping the decode of g's goid field
// entirely. The g struct is heap-allocated separately from the stack
// it describes and is never moved or reused while the goroutine is
// alive, so its address is just as stable and unique per goroutine as
// the numeric goid - and unlike goid, reading it needs no per-Go-
// version offset table to stay correct.
func fastGoroutineID() (int64, bool) {
	if g := getg(); g != 0 {
		return int64(g), true
	}
	return 0, false
}
