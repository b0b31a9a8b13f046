package visualizer

import "math"

// Engine transforms windows of one fixed, validated size.
type Engine struct {
	size int
}

// NewEngine returns an engine for windows of size samples.
func NewEngine(size int) (*Engine, error) {
	if !isPowerOfTwo(size) {
		return nil, &SizeError{Size: size, Err: ErrInvalidWindowSize}
	}
	return &Engine{size: size}, nil
}

// Size returns the window length the engine accepts.
func (e *Engine) Size() int { return e.size }

// Transform returns the spectrum of w, which must hold exactly Size samples.
func (e *Engine) Transform(w Window) (Spectrum, error) {
	if len(w) != e.size {
		return nil, &SizeError{Size: len(w), Err: ErrInvalidWindowSize}
	}
	return Transform(w)
}

// Transform computes the discrete Fourier transform of real samples using a
// recursive radix-2 Cooley-Tukey decimation in time. len(samples) must be a
// power of two; zero and one sample are returned unchanged.
func Transform(samples []int16) (Spectrum, error) {
	x := make([]complex64, len(samples))
	for i, s := range samples {
		x[i] = complex(float32(s), 0)
	}
	return fft(x)
}

// fft owns x. Each level allocates its own halves so no two calls share storage.
func fft(x []complex64) (Spectrum, error) {
	n := len(x)
	if n <= 1 {
		return Spectrum(x), nil
	}
	if !isPowerOfTwo(n) {
		return nil, &SizeError{Size: n, Err: ErrNonPowerOfTwo}
	}

	half := n / 2
	even := make([]complex64, half)
	odd := make([]complex64, half)
	for i := 0; i < half; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}

	e, err := fft(even)
	if err != nil {
		return nil, err
	}
	o, err := fft(odd)
	if err != nil {
		return nil, err
	}

	// Butterfly: out[k] = E[k] + W^k O[k], out[k+n/2] = E[k] - W^k O[k], W = e^(-2πi/n)
	out := make(Spectrum, n)
	for k := 0; k < half; k++ {
		sin, cos := math.Sincos(-2 * math.Pi * float64(k) / float64(n))
		t := complex(float32(cos), float32(sin)) * o[k]
		out[k] = e[k] + t
		out[k+half] = e[k] - t
	}
	return out, nil
}
