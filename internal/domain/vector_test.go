package domain

import (
	"math"
	"testing"
)

func TestSparseVector_IsZero(t *testing.T) {
	tests := []struct {
		name string
		v    SparseVector
		want bool
	}{
		{"empty", SparseVector{}, true},
		{"explicit zeros", SparseVector{Indices: []int32{1, 4}, Values: []float32{0, 0}}, true},
		{"one weight", SparseVector{Indices: []int32{2}, Values: []float32{0.3}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsZero(); got != tt.want {
				t.Errorf("IsZero() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSparseVector_Norm(t *testing.T) {
	v := SparseVector{Indices: []int32{1, 9}, Values: []float32{3, 4}}
	if got := v.Norm(); math.Abs(got-5) > 1e-9 {
		t.Errorf("Norm = %v, want 5", got)
	}
}
