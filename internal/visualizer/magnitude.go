package visualizer

import "math"

// Magnitudes returns floor(|z|) for every bin of s. Phase is discarded and no
// normalization by the window size is applied.
func Magnitudes(s Spectrum) MagnitudeSeries {
	out := make(MagnitudeSeries, len(s))
	for i, z := range s {
		out[i] = magnitude(z)
	}
	return out
}

func magnitude(z complex64) int {
	m := math.Hypot(float64(real(z)), float64(imag(z)))
	switch {
	case math.IsNaN(m):
		return 0
	case m >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(math.Floor(m))
}

// BinPolicy decides which magnitude bins become bars.
type BinPolicy string

const (
	// BinsHalf keeps bins [0, N/2): the upper half of a real signal's spectrum
	// mirrors the lower half.
	BinsHalf BinPolicy = "half"
	// BinsDropLast keeps bins [0, N-1), mirrored half included.
	BinsDropLast BinPolicy = "drop-last"
)

func (p BinPolicy) valid() bool {
	return p == BinsHalf || p == BinsDropLast
}

// Next cycles between the known policies.
func (p BinPolicy) Next() BinPolicy {
	if p == BinsHalf {
		return BinsDropLast
	}
	return BinsHalf
}

// Select returns the bins rendered under p. The result shares storage with m.
func (p BinPolicy) Select(m MagnitudeSeries) MagnitudeSeries {
	switch p {
	case BinsDropLast:
		if len(m) == 0 {
			return m
		}
		return m[:len(m)-1]
	default:
		return m[:len(m)/2]
	}
}
