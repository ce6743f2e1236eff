// Copyright 2025 The racedetector Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package striped64

import (
	"math"

	"github.com/kolkov/striped64/internal/engine"
)

// DoubleAdder is a contention-adaptive float64 summer, the floating-
// point counterpart to Adder. It shares the exact same Cell type as
// Adder - each cell still holds a raw 64-bit word - but every
// update bit-casts through math.Float64bits/Float64frombits so the
// combiner performs real floating-point addition instead of integer
// addition on the bit pattern.
//
// Because floating-point addition is not associative, DoubleAdder.Sum
// is not bit-exact across runs or goroutine schedules: it is only
// guaranteed to be within normal floating-point rounding of the true
// total. Construct one with NewDoubleAdder; there is no usable zero
// value.
type DoubleAdder struct {
	core *engine.Core
}

var addFloatBits engine.CombineFunc = func(current, x uint64) uint64 {
	return math.Float64bits(math.Float64frombits(current) + math.Float64frombits(x))
}

// NewDoubleAdder builds a DoubleAdder.
func NewDoubleAdder(opts ...Option) *DoubleAdder {
	cfg := newConfig(opts)
	return &DoubleAdder{core: engine.NewCore(cfg.hardwareThreads, math.Float64bits(0), cfg.maxStripes)}
}

// Add adds x to the running total.
func (d *DoubleAdder) Add(x float64) {
	ux := math.Float64bits(x)

	cell := d.core.CellAt(d.core.GetProbe())
	if cell == nil {
		b := d.core.LoadBase()
		nb := math.Float64bits(math.Float64frombits(b) + x)
		if d.core.CasBase(b, nb) {
			return
		}
		d.core.Accumulate(ux, addFloatBits, true)
		return
	}

	v := cell.Load()
	nv := math.Float64bits(math.Float64frombits(v) + x)
	if cell.Cas(v, nv) {
		return
	}
	d.core.Accumulate(ux, addFloatBits, false)
}

// Sum returns the current total as a best-effort, weakly-consistent
// snapshot, decoding and adding every field as a float64.
func (d *DoubleAdder) Sum() float64 {
	sum := math.Float64frombits(d.core.LoadBase())
	for _, cell := range d.core.Snapshot() {
		if cell != nil {
			sum += math.Float64frombits(cell.Load())
		}
	}
	return sum
}

// Reset sets the total back to 0.0.
func (d *DoubleAdder) Reset() {
	d.core.ResetBase()
	for _, cell := range d.core.Snapshot() {
		if cell != nil {
			d.core.ResetCell(cell)
		}
	}
}

// SumThenReset atomically reads and zeroes each field as it goes,
// returning their float64 sum.
func (d *DoubleAdder) SumThenReset() float64 {
	sum := math.Float64frombits(d.core.TakeBase())
	for _, cell := range d.core.Snapshot() {
		if cell != nil {
			sum += math.Float64frombits(d.core.TakeCell(cell))
		}
	}
	return sum
}

// Stats reports the engine's current structural state.
func (d *DoubleAdder) Stats() Stats {
	return Stats(d.core.Stats())
}
