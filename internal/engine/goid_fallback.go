// Copyright 2025 The racedetector Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(amd64 || arm64)

package engine

// fastGoroutineID has no assembly implementation on this architecture;
// goroutineID falls back to parsing runtime.Stack's output on every
// call.
func fastGoroutineID() (int64, bool) {
	return 0, false
}
