package visualizer

import (
	"math/rand"
	"testing"
)

func TestScale(t *testing.T) {
	tests := []struct {
		name   string
		in     MagnitudeSeries
		height int
		want   BarHeights
	}{
		{"quiet frame unscaled", MagnitudeSeries{1, 4, 2}, 6, BarHeights{1, 4, 2}},
		{"loud frame compressed", MagnitudeSeries{120, 60, 0}, 6, BarHeights{5, 2, 0}},
		{"max equals height", MagnitudeSeries{6, 3}, 6, BarHeights{3, 1}},
		{"silence", MagnitudeSeries{0, 0, 0}, 10, BarHeights{0, 0, 0}},
		{"no rows", MagnitudeSeries{5, 9}, 0, BarHeights{0, 0}},
		{"empty", nil, 4, BarHeights{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scale(tt.in, tt.height)
			if len(got) != len(tt.want) {
				t.Fatalf("Scale() len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Scale(%v, %d) = %v, want %v", tt.in, tt.height, got, tt.want)
				}
			}
		})
	}
}

func TestScaleStaysWithinHeight(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for n := 0; n < 200; n++ {
		h := rng.Intn(80) + 1
		m := make(MagnitudeSeries, rng.Intn(64)+1)
		for i := range m {
			m[i] = rng.Intn(1 << 24)
		}
		for i, v := range Scale(m, h) {
			if v < 0 || v > h {
				t.Fatalf("height %d: bar %d = %d out of range (input %d)", h, i, v, m[i])
			}
		}
	}
}
