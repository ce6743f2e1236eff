package striped64

import "github.com/kolkov/striped64/internal/engine"

// Stats is a cold-path diagnostic snapshot of an accumulator's
// internal structure. It plays no part in Add/Accumulate/Sum
// correctness; it exists so callers can observe (and tests can assert
// on) table width and contention.
type Stats engine.Stats
