package engine

import "fmt"

// Policy controls how operators treat values that fail numeric coercion
// in gt comparisons and sum accumulation, and carries the run's hook for
// operator-level row counters.
//
// The lenient default absorbs each miss (comparison false, sum adds 0)
// and reports it through Observe under the "coercion_miss" kind. Strict
// promotes misses on present values to step-fatal errors; a path that
// resolves to MISSING or null stays benign even under Strict, since
// absent data is ordinary input for these operators.
type Policy struct {
	// Strict turns coercion misses on present values into errors.
	Strict bool

	// Observe receives operator row counts (coercion_miss, filtered_out,
	// groups). nil disables counting.
	Observe func(kind string, n int)
}

func (p Policy) observe(kind string, n int) {
	if p.Observe != nil && n > 0 {
		p.Observe(kind, n)
	}
}

// miss handles one failed coercion of a present value at path.
func (p Policy) miss(op, path string) error {
	if p.Strict {
		return fmt.Errorf("%s: cannot coerce value at %q to number: %w", op, path, ErrCoercion)
	}
	p.observe("coercion_miss", 1)
	return nil
}

// absorb records a miss that no policy ever promotes, such as a MISSING
// or null value feeding a comparison or accumulation.
func (p Policy) absorb() {
	p.observe("coercion_miss", 1)
}
