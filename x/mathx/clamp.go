package mathx

import "golang.org/x/exp/constraints"

// Between reports lo <= v && v <= hi. Unlike a clamp it never moves v; an
// inverted range (lo > hi) contains nothing.
func Between[T constraints.Ordered](v, lo, hi T) bool {
	return lo <= hi && v >= lo && v <= hi
}

// Ordered reports lo <= hi.
func Ordered[T constraints.Ordered](lo, hi T) bool { return lo <= hi }

// StepIndex returns (v-base)/step and whether v lies exactly on the grid.
func StepIndex[T constraints.Unsigned](v, base, step T) (T, bool) {
	if step == 0 || v < base {
		return 0, false
	}
	d := v - base
	return d / step, d%step == 0
}

