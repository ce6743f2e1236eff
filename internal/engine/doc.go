// Copyright 2025 The racedetector Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engine implements the dynamic striping algorithm that backs
// the public adder/accumulator façades one level up, in package
// striped64.
//
// The algorithm starts with a single shared base word and grows a
// power-of-two table of cache-line-padded cells only once contention
// is observed, routing each goroutine to a slot via a probe hash and
// resolving collisions by double hashing the probe. None of it blocks:
// every structural change (table init, table growth, slot creation)
// is guarded by a single non-blocking spin flag, and a goroutine that
// loses the race for the flag always has a productive fallback - retry
// another slot, or fall back to the base word - rather than waiting.
//
// # Hot path vs cold path
//
// Core.Accumulate is the only hot-path entry point and never logs,
// never returns an error and never blocks. Core.Stats is a cold-path
// diagnostic snapshot; calling it does not affect correctness and is
// meant for occasional printing, not for steering the algorithm.
//
// # Ownership
//
// A Core owns its table and base word for its entire lifetime. Cells
// are owned by their slot once installed and are never replaced or
// freed while the table lives, matching the "no shrink, no eviction"
// policy this algorithm commits to in exchange for write scalability.
package engine
