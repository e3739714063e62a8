package partition

import "math"

// boundaryEpsilon absorbs float noise such as 10*0.3 == 3.0000000000000004
// before rounding a boundary up.
const boundaryEpsilon = 1e-9

// Bin is one contiguous slice of the ordered input.
type Bin[T any] struct {
	Index  int // 1-based
	Weight float64
	Items  []T
}

// Len returns the number of items in the bin.
func (b Bin[T]) Len() int {
	return len(b.Items)
}

// Boundaries returns the exclusive end index of every bin but the last:
// ceil(total * cumulative weight), kept non-decreasing and within total.
func Boundaries(total int, weights []float64) []int {
	if len(weights) == 0 {
		return nil
	}
	cuts := make([]int, 0, len(weights)-1)
	cum, prev := 0.0, 0
	for _, w := range weights[:len(weights)-1] {
		cum += w
		x := float64(total) * cum
		b := int(math.Ceil(x - boundaryEpsilon*math.Max(1, x)))
		if b < prev {
			b = prev
		}
		if b > total {
			b = total
		}
		cuts = append(cuts, b)
		prev = b
	}
	return cuts
}

// Partition splits ids into len(weights) contiguous bins in input order. The
// last bin takes whatever the rounded boundaries leave, so bins may be empty
// but every id lands in exactly one bin.
func Partition[T any](ids []T, weights []float64) []Bin[T] {
	if len(weights) == 0 {
		return nil
	}
	cuts := append(Boundaries(len(ids), weights), len(ids))

	bins := make([]Bin[T], len(weights))
	lo := 0
	for i, hi := range cuts {
		items := make([]T, hi-lo)
		copy(items, ids[lo:hi])
		bins[i] = Bin[T]{Index: i + 1, Weight: weights[i], Items: items}
		lo = hi
	}
	return bins
}
