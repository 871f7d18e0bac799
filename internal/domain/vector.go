package domain

import "math"

// SparseVector is a sparse term-weight vector keyed by vocabulary column.
// Indices are strictly increasing.
type SparseVector struct {
	Indices []int32
	Values  []float32
}

// IsZero reports whether the vector has no non-zero weight.
func (v SparseVector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// Norm returns the Euclidean norm.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
