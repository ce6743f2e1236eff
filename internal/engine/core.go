// Copyright 2025 The racedetector Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import "sync/atomic"

// CombineFunc is the optional associative combiner accumulate() folds
// values with. A nil CombineFunc means addition, which is what every
// Cell's CAS loop defaults to when no reduction was requested.
//
// The value is a raw 64-bit pattern: long-flavored callers pass/see
// int64 bits unmodified, the double flavor bit-casts through
// math.Float64bits/Float64frombits around the call.
type CombineFunc func(current, x uint64) uint64

func combine(fn CombineFunc, current, x uint64) uint64 {
	if fn == nil {
		return current + x
	}
	return fn(current, x)
}

// Core is the dynamic striping engine: one shared base word, lazily
// grown into a power-of-two table of cells once contention is
// observed. It is the sole piece of this module that callers must
// serialize nothing around - every exported method is safe for
// concurrent use by any number of goroutines.
type Core struct {
	base  atomic.Uint64
	cells atomic.Pointer[table]
	busy  atomic.Uint32 // 0/1 spin flag guarding table init/grow/slot-attach

	ncpu       int
	maxStripes int // 0 means "no extra cap beyond nextPow2(ncpu)"
	identity   uint64

	grows     atomic.Uint64 // diagnostics only, never read on the hot path
	contended atomic.Uint64
}

// NewCore constructs a striping engine. identity is the bit pattern a
// fresh base word starts at and the value Reset restores base and
// every cell to - 0 for addition, the caller-supplied identity for an
// arbitrary combiner. ncpu bounds how wide the table may ever grow;
// maxStripes, if positive, tightens that bound further.
func NewCore(ncpu int, identity uint64, maxStripes int) *Core {
	if ncpu < 1 {
		ncpu = 1
	}
	c := &Core{ncpu: ncpu, maxStripes: maxStripes, identity: identity}
	c.base.Store(identity)
	return c
}

// growthLimit is the width, in slots, at which the table stops
// growing. It is NCPU itself (not nextPow2(NCPU)) per the algorithm's
// own growth check in accumulate - since the table only ever doubles
// from 2, the first power of two >= NCPU is where it settles, which is
// nextPow2(NCPU), matching the width bound callers observe. The table
// is never narrower than its initial 2 slots, so with a limit of 1 it
// stays at 2.
func (c *Core) growthLimit() int {
	limit := c.ncpu
	if c.maxStripes > 0 && c.maxStripes < limit {
		limit = c.maxStripes
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// CasBase is the fast-path writer: a single compare-and-swap against
// the shared base word. Callers attempt this before ever entering
// Accumulate.
func (c *Core) CasBase(expected, desired uint64) bool {
	return c.base.CompareAndSwap(expected, desired)
}

// LoadBase returns the current base word.
func (c *Core) LoadBase() uint64 {
	return c.base.Load()
}

// GetProbe returns the calling goroutine's probe, 0 if uninitialized.
func (c *Core) GetProbe() int32 {
	return probes.get()
}

// CellAt returns the cell the calling goroutine's probe currently maps
// to, or nil if the table is absent, empty at that slot, or the probe
// is not yet initialized. Façades use this on their own fast path: if
// it returns non-nil, try a CAS against it before falling into
// Accumulate.
func (c *Core) CellAt(probe int32) *Cell {
	tbl := c.cells.Load()
	if tbl == nil || tbl.len() == 0 || probe == 0 {
		return nil
	}
	idx := (int32(tbl.len()) - 1) & probe
	return tbl.at(idx)
}

// Accumulate is the slow-path writer: the unbounded retry loop that
// orchestrates table initialization, slot creation, collision
// resolution and table growth, all without ever blocking. The comments
// below tag each branch of the loop with a B1-B7 label.
func (c *Core) Accumulate(x uint64, fn CombineFunc, wasUncontended bool) {
	var collide bool

	for {
		tbl := c.cells.Load()

		if tbl != nil && tbl.len() > 0 {
			n := int32(tbl.len())
			probe := probes.get()

			// B1: probe uninitialized.
			if probe == 0 {
				probes.initialize()
				wasUncontended = true
				continue
			}

			idx := (n - 1) & probe
			cell := tbl.at(idx)

			if cell == nil {
				// B2: target slot empty.
				if c.busy.Load() == 0 {
					created := newCell(x)
					if c.busy.CompareAndSwap(0, 1) {
						installed := false
						if cur := c.cells.Load(); cur == tbl && cur.len() == int(n) && cur.at(idx) == nil {
							installed = cur.installIfEmpty(idx, created)
						}
						c.busy.Store(0)
						if installed {
							return
						}
					}
				}
				collide = false
				probes.advance()
				continue
			}

			if !wasUncontended {
				// B3: occupied slot, stale contention flag.
				wasUncontended = true
				probes.advance()
				continue
			}

			// B4: attempt the CAS.
			v := cell.Load()
			nv := combine(fn, v, x)
			if cell.Cas(v, nv) {
				return
			}

			// B5: growth logic, entered only after a failed CAS.
			c.contended.Add(1)
			cur := c.cells.Load()
			if int(n) >= c.growthLimit() || cur != tbl {
				collide = false
				probes.advance()
				continue
			}
			if !collide {
				collide = true
				probes.advance()
				continue
			}
			if c.busy.CompareAndSwap(0, 1) {
				if c.cells.Load() == tbl {
					c.cells.Store(tbl.grown())
					c.grows.Add(1)
				}
				c.busy.Store(0)
				collide = false
				continue
			}
			probes.advance()
			continue
		}

		// B6: table absent.
		if tbl == nil && c.busy.Load() == 0 {
			if c.busy.CompareAndSwap(0, 1) {
				installed := false
				if c.cells.Load() == nil {
					probe := probes.get()
					if probe == 0 {
						probe = probes.initialize()
					}
					nt := newTable(2)
					nt.slots[probe&1].Store(newCell(x))
					c.cells.Store(nt)
					installed = true
				}
				c.busy.Store(0)
				if installed {
					return
				}
				continue
			}
		}

		// B7: fallback - someone else owns table init/growth right now.
		b := c.base.Load()
		nb := combine(fn, b, x)
		if c.base.CompareAndSwap(b, nb) {
			return
		}
	}
}

// Snapshot returns the cell pointers of the table as it stood at the
// moment of the call, including nil entries for unallocated slots. It
// never blocks and never allocates beyond the returned slice.
func (c *Core) Snapshot() []*Cell {
	tbl := c.cells.Load()
	if tbl == nil {
		return nil
	}
	out := make([]*Cell, tbl.len())
	for i := range out {
		out[i] = tbl.slots[i].Load()
	}
	return out
}

// TakeBase atomically reads and zeroes the base word to identity,
// returning the value it held.
func (c *Core) TakeBase() uint64 {
	return c.base.Swap(c.identity)
}

// TakeCell atomically reads and zeroes cell to identity, returning the
// value it held. It is the caller's responsibility to pass a cell this
// Core owns.
func (c *Core) TakeCell(cell *Cell) uint64 {
	return cell.swap(c.identity)
}

// ResetBase restores the base word to identity.
func (c *Core) ResetBase() {
	c.base.Store(c.identity)
}

// ResetCell restores cell to identity.
func (c *Core) ResetCell(cell *Cell) {
	cell.store(c.identity)
}

// Stats is a cold-path diagnostic snapshot. It never participates in
// the algorithm's own decisions - nothing in Accumulate reads it.
type Stats struct {
	// Stripes is the current table width, 0 if the table hasn't been
	// allocated yet.
	Stripes int
	// Contended counts failed cell CAS attempts inside Accumulate's
	// retry loop since construction. A failed CAS on a façade's own
	// fast path, before Accumulate is entered, is not counted.
	Contended uint64
	// Grows counts completed table-doubling events since construction.
	Grows uint64
}

// Stats reports the engine's current structural state.
func (c *Core) Stats() Stats {
	tbl := c.cells.Load()
	s := Stats{Contended: c.contended.Load(), Grows: c.grows.Load()}
	if tbl != nil {
		s.Stripes = tbl.len()
	}
	return s
}
