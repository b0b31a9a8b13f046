package visualizer

// Window is a full analysis window of mono samples. A Window handed out by an
// Assembler is owned by the receiver; the Assembler never touches it again.
type Window []int16

// Spectrum is the frequency-domain representation of a Window, one bin per sample.
type Spectrum []complex64

// MagnitudeSeries holds the non-negative modulus of each spectrum bin.
type MagnitudeSeries []int

// BarHeights are magnitudes scaled into [0, viewport height].
type BarHeights []int

// Viewport is the rendering area in character cells.
type Viewport struct {
	Width  int
	Height int
}

// Empty reports whether nothing can be drawn in the viewport.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}
