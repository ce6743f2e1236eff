// Copyright 2025 The racedetector Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package striped64

import "github.com/kolkov/striped64/internal/engine"

// Accumulator folds int64 values with an arbitrary associative
// combiner - max, min, bitwise-or, and so on - starting from a
// caller-supplied identity. Unlike Adder it has no usable zero value;
// construct one with NewAccumulator.
//
// fn must be associative for the aggregate laws to hold, and should
// be cheap and side-effect-free: it runs inside CAS retry
// loops and may be invoked more than once per logical update if a CAS
// races and loses.
type Accumulator struct {
	core     *engine.Core
	fn       func(current, x int64) int64
	engineFn engine.CombineFunc
}

// NewAccumulator builds an Accumulator with the given identity and
// combiner. It panics if fn is nil - there is no sensible default
// combiner the way there is for Adder (addition).
func NewAccumulator(identity int64, fn func(current, x int64) int64, opts ...Option) *Accumulator {
	if fn == nil {
		panic("striped64: NewAccumulator requires a non-nil combiner")
	}
	cfg := newConfig(opts)
	a := &Accumulator{
		core: engine.NewCore(cfg.hardwareThreads, uint64(identity), cfg.maxStripes),
		fn:   fn,
	}
	a.engineFn = func(current, x uint64) uint64 {
		return uint64(a.fn(int64(current), int64(x)))
	}
	return a
}

// Accumulate folds x into the running value via the configured
// combiner.
func (a *Accumulator) Accumulate(x int64) {
	ux := uint64(x)

	cell := a.core.CellAt(a.core.GetProbe())
	if cell == nil {
		b := a.core.LoadBase()
		if a.core.CasBase(b, uint64(a.fn(int64(b), x))) {
			return
		}
		a.core.Accumulate(ux, a.engineFn, true)
		return
	}

	v := cell.Load()
	if cell.Cas(v, uint64(a.fn(int64(v), x))) {
		return
	}
	a.core.Accumulate(ux, a.engineFn, false)
}

// Sum folds the base word and every allocated cell together with the
// configured combiner, in an unspecified order. It is a best-effort,
// weakly-consistent snapshot, exactly like Adder.Sum.
func (a *Accumulator) Sum() int64 {
	sum := int64(a.core.LoadBase())
	for _, cell := range a.core.Snapshot() {
		if cell != nil {
			sum = a.fn(sum, int64(cell.Load()))
		}
	}
	return sum
}

// Reset restores the value to the identity this Accumulator was built
// with.
func (a *Accumulator) Reset() {
	a.core.ResetBase()
	for _, cell := range a.core.Snapshot() {
		if cell != nil {
			a.core.ResetCell(cell)
		}
	}
}

// SumThenReset folds the current value the same way Sum does, while
// resetting each field to identity as it goes.
func (a *Accumulator) SumThenReset() int64 {
	sum := int64(a.core.TakeBase())
	for _, cell := range a.core.Snapshot() {
		if cell != nil {
			sum = a.fn(sum, int64(a.core.TakeCell(cell)))
		}
	}
	return sum
}

// Stats reports the engine's current structural state.
func (a *Accumulator) Stats() Stats {
	return Stats(a.core.Stats())
}
