package visualizer

// Scale maps magnitudes onto bar heights for a viewport height rows tall. The
// divisor adapts to the loudest bin of each frame, so the tallest bar never
// exceeds height and a silent frame never divides by zero.
func Scale(m MagnitudeSeries, height int) BarHeights {
	out := make(BarHeights, len(m))
	if height <= 0 {
		return out
	}

	maxMag := 0
	for _, v := range m {
		maxMag = max(maxMag, v)
	}
	d := maxMag/height + 1

	for i, v := range m {
		out[i] = min(max(v/d, 0), height)
	}
	return out
}
