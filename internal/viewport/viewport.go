package viewport

import (
	"os"

	"golang.org/x/term"

	"github.com/olivier-w/barscope/internal/visualizer"
)

// Provider reports the area available for one frame. ok is false when the
// size cannot be determined; the caller skips that frame.
type Provider interface {
	Dimensions() (vp visualizer.Viewport, ok bool)
}

// Terminal reads the size of the terminal attached to a file descriptor.
type Terminal struct {
	fd int
}

// Stdout returns a provider for the process's standard output.
func Stdout() Terminal {
	return Terminal{fd: int(os.Stdout.Fd())}
}

func (t Terminal) Dimensions() (visualizer.Viewport, bool) {
	w, h, err := term.GetSize(t.fd)
	if err != nil || w <= 0 || h <= 0 {
		return visualizer.Viewport{}, false
	}
	return visualizer.Viewport{Width: w, Height: h}, true
}

// Fixed always reports the same size.
type Fixed visualizer.Viewport

func (f Fixed) Dimensions() (visualizer.Viewport, bool) {
	vp := visualizer.Viewport(f)
	return vp, !vp.Empty()
}

// Override replaces non-zero dimensions of the base provider's answer.
type Override struct {
	Base   Provider
	Width  int
	Height int
}

func (o Override) Dimensions() (visualizer.Viewport, bool) {
	if o.Width > 0 && o.Height > 0 {
		return Fixed{Width: o.Width, Height: o.Height}.Dimensions()
	}
	vp, ok := o.Base.Dimensions()
	if !ok {
		return vp, false
	}
	if o.Width > 0 {
		vp.Width = o.Width
	}
	if o.Height > 0 {
		vp.Height = o.Height
	}
	return vp, true
}

// Reserve subtracts rows used by surrounding text from the base height.
type Reserve struct {
	Base Provider
	Rows int
}

func (r Reserve) Dimensions() (visualizer.Viewport, bool) {
	vp, ok := r.Base.Dimensions()
	if !ok {
		return vp, false
	}
	vp.Height -= r.Rows
	return vp, !vp.Empty()
}
