// Copyright 2025 The racedetector Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package striped64 provides contention-adaptive 64-bit accumulators:
// Adder, Accumulator and DoubleAdder. All three are write-scalable
// replacements for a single *int64/*float64 behind a mutex or a lone
// atomic - throughput grows with the number of goroutines hammering
// them, at the cost of Sum being a weakly-consistent snapshot rather
// than a value with a single well-defined moment of truth.
//
// # Quick start
//
//	var c striped64.Adder
//	for i := 0; i < 8; i++ {
//		go func() {
//			for j := 0; j < 100000; j++ {
//				c.Add(1)
//			}
//		}()
//	}
//	// ... after the goroutines finish:
//	total := c.Sum()
//
// # Which type to use
//
//   - Adder counts and sums int64 values. Its zero value is ready to
//     use, exactly like sync.WaitGroup.
//   - Accumulator folds int64 values with an arbitrary associative
//     combiner (max, min, bitwise-or, ...) starting from a caller-
//     supplied identity. Built with NewAccumulator.
//   - DoubleAdder sums float64 values. Built with NewDoubleAdder; its
//     Sum is not bit-exact across runs, since floating-point addition
//     is not associative and the cells combine in whatever order
//     goroutines happened to contend on them.
//
// # What none of these promise
//
// A concurrent Sum call may observe any interleaving of in-flight
// updates - it is not linearizable with Add/Accumulate. Nothing here
// shrinks its internal table, evicts a cell once allocated, or
// balances load fairly across goroutines. See the dynamic striping
// engine in internal/engine for the mechanism these guarantees (and
// non-guarantees) come from.
package striped64
