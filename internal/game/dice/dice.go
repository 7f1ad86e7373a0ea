// Package dice provides the randomness abstraction shared by every battle engine
// component, plus dice expressions and roll audit records.
package dice

import "fmt"

// Source is the randomness provider for every roll made by the engines.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollResult holds the audit trail for a single dice expression evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "1d41+59"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the roll as "1d3 [2] +0 = 2".
func (r RollResult) String() string {
	return fmt.Sprintf("%s %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Between returns a uniformly random int in [lo, hi].
//
// Precondition: lo <= hi.
func Between(src Source, lo, hi int) int {
	return lo + src.Intn(hi-lo+1)
}

// Chance reports whether an event with probability num/den occurs.
// num <= 0 never occurs; num >= den always occurs.
//
// Precondition: den > 0.
func Chance(src Source, num, den int) bool {
	if num <= 0 {
		return false
	}
	if num >= den {
		return true
	}
	return src.Intn(den) < num
}

// unitResolution is the granularity of Unit.
const unitResolution = 1 << 30

// Unit returns a random float64 in [0, 1).
func Unit(src Source) float64 {
	return float64(src.Intn(unitResolution)) / unitResolution
}

// Pick returns a uniformly random element of items.
//
// Precondition: len(items) > 0.
func Pick[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}

// Shuffle permutes items in place (Fisher-Yates).
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
