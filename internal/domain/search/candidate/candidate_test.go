package candidate

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 100},
		{0.25, 75},
		{1, 0},
		{1.2, -20},
	}
	for _, tt := range tests {
		c := New("x", tt.distance)
		if got := c.Similarity(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(distance=%v) = %v, want %v", tt.distance, got, tt.want)
		}
	}
}

func TestMaxSimilarity(t *testing.T) {
	if got := MaxSimilarity(nil); got != 0 {
		t.Errorf("MaxSimilarity(nil) = %v", got)
	}
	cs := []Candidate{New("a", 0.9), New("b", 0.2), New("c", 0.5)}
	if got := MaxSimilarity(cs); math.Abs(got-80) > 1e-9 {
		t.Errorf("MaxSimilarity = %v, want 80", got)
	}
}
