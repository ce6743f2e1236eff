// Copyright 2025 The racedetector Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package striped64

import (
	"runtime"
	"sync"

	"github.com/kolkov/striped64/internal/engine"
)

// Adder is a contention-adaptive int64 counter/summer. The zero value
// is ready to use, exactly like sync.WaitGroup - there is no
// constructor to call first.
//
// An Adder is safe for concurrent use by any number of goroutines. Add
// never blocks and never allocates once the striping table has grown
// wide enough to absorb the calling goroutine's slot.
type Adder struct {
	once sync.Once
	core *engine.Core
}

func (a *Adder) init() {
	a.once.Do(func() {
		a.core = engine.NewCore(runtime.NumCPU(), 0, 0)
	})
}

// Add adds x to the running total.
//
// This follows the same fast-path convention the engine exposes to
// every façade: if a cell already claims the calling goroutine's probe,
// try a CAS against that cell; otherwise try a CAS against the base
// word. Only if that single CAS fails fall into the engine's retry
// loop.
func (a *Adder) Add(x int64) {
	a.init()
	ux := uint64(x)

	cell := a.core.CellAt(a.core.GetProbe())
	if cell == nil {
		b := a.core.LoadBase()
		if a.core.CasBase(b, b+ux) {
			return
		}
		a.core.Accumulate(ux, nil, true)
		return
	}

	v := cell.Load()
	if cell.Cas(v, v+ux) {
		return
	}
	a.core.Accumulate(ux, nil, false)
}

// Sum returns the current total as a best-effort, weakly-consistent
// snapshot: base plus every allocated cell's current value, read
// without locking. Concurrent Adds may or may not be reflected.
func (a *Adder) Sum() int64 {
	a.init()
	sum := a.core.LoadBase()
	for _, cell := range a.core.Snapshot() {
		if cell != nil {
			sum += cell.Load()
		}
	}
	return int64(sum)
}

// Reset sets the total back to zero. Like Sum, this is not atomic
// across the base word and every cell - concurrent Adds racing a
// Reset may be lost or may survive, but the end state is never
// negative underflow or a torn word.
func (a *Adder) Reset() {
	a.init()
	a.core.ResetBase()
	for _, cell := range a.core.Snapshot() {
		if cell != nil {
			a.core.ResetCell(cell)
		}
	}
}

// SumThenReset atomically reads and zeroes each field (base, then
// every cell) as it goes, returning their sum. Values added to a cell
// after this function has already zeroed it are preserved in that
// cell rather than lost, which is the same weak-consistency trade Sum
// makes, applied field by field instead of all at once.
func (a *Adder) SumThenReset() int64 {
	a.init()
	sum := a.core.TakeBase()
	for _, cell := range a.core.Snapshot() {
		if cell != nil {
			sum += a.core.TakeCell(cell)
		}
	}
	return int64(sum)
}

// Stats reports the engine's current structural state: table width
// and contention counters. It is a cold-path diagnostic, not part of
// the counting contract.
func (a *Adder) Stats() Stats {
	a.init()
	return Stats(a.core.Stats())
}
