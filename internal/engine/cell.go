// Copyright 2025 The racedetector Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Cell holds a single 64-bit word updated exclusively via compare-and-
// swap. It is padded so that two Cells never share a cache line, even
// when packed contiguously inside a table's backing array - relying on
// allocator alignment is not enough for that case.
//
// The word is a raw bit pattern, not a typed number: long-flavored
// callers treat it as an int64 via direct reinterpretation (two's
// complement addition is bit-identical whether the operands are signed
// or unsigned), and the floating-point flavor bit-casts through
// math.Float64bits/Float64frombits before and after every update. The
// Cell itself never needs to know which flavor it's serving.
type Cell struct {
	v   atomic.Uint64
	pad [unsafe.Sizeof(cpu.CacheLinePad{}) - 8]byte
}

// newCell allocates a Cell initialized to x.
func newCell(x uint64) *Cell {
	c := &Cell{}
	c.v.Store(x)
	return c
}

// Load performs a plain atomic read of the cell's current value.
func (c *Cell) Load() uint64 {
	return c.v.Load()
}

// Cas performs a compare-and-swap of the cell's value. Façades use
// this directly on their own fast path: try the cell's own CAS first,
// and only fall into Core.Accumulate when it fails.
func (c *Cell) Cas(expected, desired uint64) bool {
	return c.v.CompareAndSwap(expected, desired)
}

// store is used only by Reset/SumThenReset, never on the accumulate
// hot path.
func (c *Cell) store(v uint64) {
	c.v.Store(v)
}

// swap atomically reads and replaces the cell's value, used to
// implement the read-then-zero half of SumThenReset without taking a
// lock across fields.
func (c *Cell) swap(v uint64) uint64 {
	return c.v.Swap(v)
}
