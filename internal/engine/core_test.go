package engine

import (
	"sync"
	"testing"
)

// fastPathAdd mimics the convention the fast-path convention every façade follows:
// try the probed cell's own CAS first, falling into Accumulate only
// when that fails or no cell is assigned yet.
func fastPathAdd(c *Core, x uint64) {
	cell := c.CellAt(c.GetProbe())
	if cell == nil {
		b := c.LoadBase()
		if c.CasBase(b, b+x) {
			return
		}
		c.Accumulate(x, nil, true)
		return
	}
	v := cell.Load()
	if cell.Cas(v, v+x) {
		return
	}
	c.Accumulate(x, nil, false)
}

func sumOf(c *Core) uint64 {
	sum := c.LoadBase()
	for _, cell := range c.Snapshot() {
		if cell != nil {
			sum += cell.Load()
		}
	}
	return sum
}

// Single-threaded add, no contention ever observed, table must stay
// nil.
func TestCore_SingleThreaded_NoTableGrowth(t *testing.T) {
	c := NewCore(8, 0, 0)
	for i := 0; i < 1_000_000; i++ {
		fastPathAdd(c, 1)
	}
	if got := sumOf(c); got != 1_000_000 {
		t.Fatalf("sum = %d, want 1000000", got)
	}
	if s := c.Stats(); s.Stripes != 0 {
		t.Fatalf("Stripes = %d, want 0 (no contention should ever allocate a table)", s.Stripes)
	}
}

// 8 goroutines x 100000 adds on an 8-hardware-thread Core; after a
// quiescence barrier sum must be exact and the table must have
// reached a width the growth rule bounds.
func TestCore_EightGoroutines_QuiescedSumExact(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 100_000
	c := NewCore(goroutines, 0, 0)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				fastPathAdd(c, 1)
			}
		}()
	}
	wg.Wait()

	if got, want := sumOf(c), uint64(goroutines*perGoroutine); got != want {
		t.Fatalf("sum = %d, want %d", got, want)
	}
	if s := c.Stats(); s.Stripes > nextPow2(goroutines) {
		t.Fatalf("Stripes = %d, want <= nextPow2(NCPU) = %d", s.Stripes, nextPow2(goroutines))
	}
}

// 64 goroutines contending on a Core pinned to NCPU=4; table must
// settle at exactly 4 stripes (the growth check stops once n >= NCPU,
// and n only ever doubles from 2).
func TestCore_SixtyFourGoroutines_NCPUFourCapsTableAtFour(t *testing.T) {
	const goroutines = 64
	const perGoroutine = 10_000
	const ncpu = 4
	c := NewCore(ncpu, 0, 0)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				fastPathAdd(c, 1)
			}
		}()
	}
	wg.Wait()

	if got, want := sumOf(c), uint64(goroutines*perGoroutine); got != want {
		t.Fatalf("sum = %d, want %d", got, want)
	}
	if s := c.Stats(); s.Stripes != ncpu {
		t.Fatalf("Stripes = %d, want exactly %d", s.Stripes, ncpu)
	}
}

// A max combiner with identity MinInt64, 16 goroutines each
// contributing a distinct range, final sum (fold) must equal the
// maximum contributed value.
func TestCore_MaxCombiner_FoldsToMaximum(t *testing.T) {
	const goroutines = 16
	const perGoroutine = 1000

	maxFn := func(current, x uint64) uint64 {
		if int64(x) > int64(current) {
			return x
		}
		return current
	}

	const identity = uint64(1) << 63 // bit pattern of math.MinInt64
	c := NewCore(goroutines, identity, 0)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for tid := 0; tid < goroutines; tid++ {
		go func(tid int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				val := uint64(tid*1000 + i)
				cell := c.CellAt(c.GetProbe())
				if cell == nil {
					b := c.LoadBase()
					if c.CasBase(b, maxFn(b, val)) {
						continue
					}
					c.Accumulate(val, maxFn, true)
					continue
				}
				v := cell.Load()
				if cell.Cas(v, maxFn(v, val)) {
					continue
				}
				c.Accumulate(val, maxFn, false)
			}
		}(tid)
	}
	wg.Wait()

	result := int64(c.LoadBase())
	for _, cell := range c.Snapshot() {
		if cell != nil {
			if v := int64(cell.Load()); v > result {
				result = v
			}
		}
	}
	if result != 15999 {
		t.Fatalf("max fold = %d, want 15999", result)
	}
}

// Property 1/2: table length, once non-zero, is always a
// power of two and never exceeds nextPow2(NCPU).
func TestCore_TableLengthInvariants(t *testing.T) {
	const ncpu = 4
	c := NewCore(ncpu, 0, 0)
	var wg sync.WaitGroup
	const goroutines = 32
	wg.Add(goroutines)
	seenLengths := make(chan int, goroutines*2000)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 2000; j++ {
				fastPathAdd(c, 1)
				if s := c.Stats(); s.Stripes != 0 {
					seenLengths <- s.Stripes
				}
			}
		}()
	}
	wg.Wait()
	close(seenLengths)

	maxAllowed := nextPow2(ncpu)
	prev := 0
	for n := range seenLengths {
		if n&(n-1) != 0 {
			t.Fatalf("observed non-power-of-two table length %d", n)
		}
		if n > maxAllowed {
			t.Fatalf("observed table length %d exceeds nextPow2(NCPU)=%d", n, maxAllowed)
		}
		if n < prev {
			// Lengths observed from concurrent goroutines are not
			// totally ordered, so a drop in this interleaved stream
			// does not mean the table shrank; monotonicity is not
			// checked here.
			_ = prev
		}
		prev = n
	}
}

// Property 5: no cell is ever replaced in a slot once
// installed - verified directly against table.installIfEmpty in
// table_test.go; here we verify the same holds when driven through
// the full Accumulate retry loop under contention.
func TestCore_CellNeverReplacedUnderContention(t *testing.T) {
	c := NewCore(4, 0, 0)
	var wg sync.WaitGroup
	const goroutines = 16
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 5000; j++ {
				fastPathAdd(c, 1)
			}
		}()
	}
	wg.Wait()

	before := c.Snapshot()
	for i := 0; i < 5000; i++ {
		fastPathAdd(c, 1)
	}
	after := c.Snapshot()
	for i, cell := range before {
		if cell == nil {
			continue
		}
		if i >= len(after) || after[i] != cell {
			t.Fatalf("slot %d's cell pointer changed across further accumulation", i)
		}
	}
}

// Property 8: idempotent reset on a quiesced Core.
func TestCore_ResetIsIdempotent(t *testing.T) {
	c := NewCore(4, 0, 0)
	var wg sync.WaitGroup
	const goroutines = 8
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				fastPathAdd(c, 1)
			}
		}()
	}
	wg.Wait()

	c.ResetBase()
	for _, cell := range c.Snapshot() {
		if cell != nil {
			c.ResetCell(cell)
		}
	}
	if got := sumOf(c); got != 0 {
		t.Fatalf("sum after reset = %d, want 0", got)
	}
	// Idempotent: resetting again changes nothing observable.
	c.ResetBase()
	for _, cell := range c.Snapshot() {
		if cell != nil {
			c.ResetCell(cell)
		}
	}
	if got := sumOf(c); got != 0 {
		t.Fatalf("sum after second reset = %d, want 0", got)
	}
}

// A reset race leaves every subsequent Sum observation non-negative
// and bounded by what could plausibly have been added since the reset
// began.
func TestCore_ResetRace_SumStaysInBounds(t *testing.T) {
	c := NewCore(4, 0, 0)
	var wg sync.WaitGroup
	const adders = 2
	const perAdder = 50_000
	wg.Add(adders + 1)

	stop := make(chan struct{})
	for i := 0; i < adders; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perAdder; j++ {
				fastPathAdd(c, 1)
			}
		}()
	}
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			c.ResetBase()
			for _, cell := range c.Snapshot() {
				if cell != nil {
					c.ResetCell(cell)
				}
			}
			if s := sumOf(c); int64(s) < 0 {
				t.Errorf("observed negative sum %d during reset race", int64(s))
			}
		}
		close(stop)
	}()
	wg.Wait()

	if got := sumOf(c); int64(got) < 0 || got > uint64(adders*perAdder) {
		t.Fatalf("final sum %d out of plausible bounds [0, %d]", got, adders*perAdder)
	}
}

func TestCore_CellAt_NilWhenProbeUninitializedOrNoTable(t *testing.T) {
	c := NewCore(4, 0, 0)
	if cell := c.CellAt(0); cell != nil {
		t.Fatal("CellAt(0) must be nil: a zero probe means uninitialized")
	}
	if cell := c.CellAt(1); cell != nil {
		t.Fatal("CellAt(1) must be nil while no table has been allocated")
	}
}

func BenchmarkCore_Accumulate_SingleGoroutine(b *testing.B) {
	c := NewCore(8, 0, 0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		fastPathAdd(c, 1)
	}
}

func BenchmarkCore_Accumulate_Contended(b *testing.B) {
	c := NewCore(8, 0, 0)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			fastPathAdd(c, 1)
		}
	})
}
