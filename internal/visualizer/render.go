package visualizer

import (
	"io"
	"strings"
)

// Frame is one rendered screen of bars, Height rows of Width cells.
type Frame struct {
	Width  int
	Height int
	rows   []string
}

// Rows returns the frame's rows, top first.
func (f Frame) Rows() []string { return f.rows }

// String joins the rows with line breaks. There is no trailing newline so a
// full-height frame does not scroll the terminal.
func (f Frame) String() string {
	return strings.Join(f.rows, "\n")
}

// WriteTo writes the whole frame with a single Write call.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, f.String())
	return int64(n), err
}

// Render paints heights as vertical bars in vp. Each bar occupies a stripe of
// barWidth columns preceded by an equally wide gap; cells fill from the bottom.
func Render(heights BarHeights, vp Viewport, glyph rune) Frame {
	if vp.Empty() {
		return Frame{}
	}
	w, h := vp.Width, vp.Height
	f := Frame{Width: w, Height: h, rows: make([]string, h)}

	numBars := len(heights)
	barWidth := 0
	if numBars > 0 {
		barWidth = w / (2 * numBars)
	}
	if barWidth == 0 {
		blank := strings.Repeat(" ", w)
		for i := range f.rows {
			f.rows[i] = blank
		}
		return f
	}

	var line strings.Builder
	for i := 0; i < h; i++ {
		line.Reset()
		for j := 0; j < w; j++ {
			bucket := j / barWidth
			bar := bucket / 2
			if bucket%2 == 1 && bar < numBars && h-heights[bar] <= i {
				line.WriteRune(glyph)
			} else {
				line.WriteByte(' ')
			}
		}
		f.rows[i] = line.String()
	}
	return f
}
