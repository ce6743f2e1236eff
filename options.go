package striped64

import "runtime"

// config holds construction-time settings shared by NewAccumulator and
// NewDoubleAdder. Adder's zero value bypasses this entirely - it has
// no constructor, so it always gets the defaults inline in Adder.init.
type config struct {
	hardwareThreads int
	maxStripes      int
}

// Option configures an Accumulator or DoubleAdder at construction.
type Option func(*config)

// WithHardwareThreads overrides the detected hardware thread count
// used to bound the striping table's growth. The zero value of this
// option (not calling it at all) uses runtime.NumCPU(). Tests that
// need a deterministic table-width ceiling - as opposed to whatever
// happens to be true of the machine running them - should set this
// explicitly.
func WithHardwareThreads(n int) Option {
	return func(c *config) { c.hardwareThreads = n }
}

// WithMaxStripes caps the striping table below what the hardware
// thread count would otherwise allow. The table stops doubling once it
// is at least n slots wide, so its width settles at the next power of
// two >= n, and never below the initial 2 slots. A value <= 0 means no
// additional cap.
func WithMaxStripes(n int) Option {
	return func(c *config) { c.maxStripes = n }
}

func newConfig(opts []Option) config {
	c := config{hardwareThreads: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&c)
	}
	if c.hardwareThreads < 1 {
		c.hardwareThreads = 1
	}
	return c
}
