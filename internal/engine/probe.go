// Copyright 2025 The racedetector Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// probeSource hands out a per-goroutine pseudo-random probe, the hash
// every Core uses to pick a preferred table slot. A goroutine's probe
// is shared across every Core it touches, exactly as a thread's probe
// lives once on the Thread object rather than once per accumulator in
// the source this algorithm is modeled on - two accumulators hammered
// by the same goroutine land on correlated slots, which is fine, since
// nothing about the contract requires independence across instances.
//
// Storage is a sync.Map keyed by goroutine ID rather than true thread-
// local storage, since Go exposes no public per-goroutine slot. This
// mirrors the lookup-by-goroutine-ID idiom the detector runtime uses
// for its own per-goroutine state (see the historical RaceContext
// lookup this package's probe storage is grounded on).
type probeSource struct {
	slots sync.Map // int64 goroutine id -> *atomic.Int32
}

var probes probeSource

// get returns the calling goroutine's current probe, or 0 if it has
// never been initialized.
func (p *probeSource) get() int32 {
	return p.slotFor(goroutineID()).Load()
}

// initialize seeds the calling goroutine's probe with a non-zero value
// and returns it. Safe to call even if another goroutine's slot
// collides in the backing map's bucket - sync.Map keys on the full
// int64 goroutine ID, so there is no collision there - only in the
// much smaller table slot space computed from the probe.
func (p *probeSource) initialize() int32 {
	slot := p.slotFor(goroutineID())
	v := slot.Load()
	if v != 0 {
		return v
	}
	for {
		v = int32(rand.Uint32() | 1) // odd seed is never zero
		if slot.CompareAndSwap(0, v) {
			return v
		}
		if cur := slot.Load(); cur != 0 {
			return cur
		}
	}
}

// advance applies one xorshift step to the calling goroutine's probe
// and returns the new value. The constants (13, 17, 5) are part of the
// contract: they give a full-period sequence over non-zero 32-bit
// states, which is what makes repeated collisions spread out instead
// of cycling back onto the same slot.
func (p *probeSource) advance() int32 {
	slot := p.slotFor(goroutineID())
	for {
		old := slot.Load()
		if old == 0 {
			return p.initialize()
		}
		nw := xorshift(old)
		if slot.CompareAndSwap(old, nw) {
			return nw
		}
	}
}

func (p *probeSource) slotFor(gid int64) *atomic.Int32 {
	if v, ok := p.slots.Load(gid); ok {
		return v.(*atomic.Int32)
	}
	actual, _ := p.slots.LoadOrStore(gid, new(atomic.Int32))
	return actual.(*atomic.Int32)
}

// xorshift advances p with a fixed 13/17/5 shift triple, operating on
// the unsigned view so the right shift is logical rather than
// arithmetic (Go's >> on a signed type would sign-extend, matching
// neither Java's >>> nor the full-period guarantee).
func xorshift(p int32) int32 {
	u := uint32(p)
	u ^= u << 13
	u ^= u >> 17
	u ^= u << 5
	return int32(u)
}
