// Copyright 2025 The racedetector Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import "runtime"

// goroutineID returns an identifier for the calling goroutine, stable
// for the goroutine's lifetime and suitable as a map key for the probe
// table in probe.go.
//
// There is no portable, unsafe-free way to get a per-goroutine slot in
// Go the way a JVM thread carries one in a field of java.lang.Thread.
// On amd64 and arm64, fastGoroutineID (goid_fast.go) answers this in a
// couple of instructions by reading the calling goroutine's own g
// struct pointer. Everywhere else - and as a safety net if the fast
// path ever returns a zero pointer - this falls back to parsing the
// goroutine ID out of the header line of runtime.Stack's output, which
// costs on the order of a microsecond.
func goroutineID() int64 {
	if id, ok := fastGoroutineID(); ok {
		return id
	}
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGoroutineID(buf[:n])
}

// parseGoroutineID extracts the numeric ID from a header line shaped
// like "goroutine 123 [running]:...". It returns 0 on any unexpected
// input rather than panicking - a goroutine ID of 0 is never allocated
// by the runtime, so callers can treat it as "unknown".
func parseGoroutineID(line []byte) int64 {
	const prefix = "goroutine "
	if len(line) < len(prefix) || string(line[:len(prefix)]) != prefix {
		return 0
	}

	var id int64
	i := len(prefix)
	start := i
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		id = id*10 + int64(line[i]-'0')
		i++
	}
	if i == start {
		return 0
	}
	return id
}
