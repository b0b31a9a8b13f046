package visualizer

// Assembler accumulates interleaved capture samples into fixed-size mono windows.
type Assembler struct {
	size    int
	stride  int
	channel int
	phase   int // position of the next sample within one interleaved frame
	buf     []int16
}

// NewAssembler validates cfg and returns an empty assembler.
func NewAssembler(cfg Config) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Assembler{
		size:    cfg.WindowSize,
		stride:  cfg.Stride,
		channel: cfg.Channel,
		buf:     make([]int16, 0, cfg.WindowSize),
	}, nil
}

// Push offers one interleaved sample. It returns the completed window and true
// when the sample filled it; otherwise the window is still filling.
func (a *Assembler) Push(s int16) (Window, bool) {
	keep := a.phase == a.channel
	a.phase++
	if a.phase == a.stride {
		a.phase = 0
	}
	if !keep {
		return nil, false
	}

	a.buf = append(a.buf, s)
	if len(a.buf) < a.size {
		return nil, false
	}

	w := Window(a.buf)
	a.buf = make([]int16, 0, a.size)
	return w, true
}

// PushFrame pushes a chunk of interleaved samples and returns every window it
// completed, oldest first.
func (a *Assembler) PushFrame(samples []int16) []Window {
	var out []Window
	for _, s := range samples {
		if w, ok := a.Push(s); ok {
			out = append(out, w)
		}
	}
	return out
}

// Len returns the number of samples in the window being filled.
func (a *Assembler) Len() int { return len(a.buf) }

// Size returns the window capacity.
func (a *Assembler) Size() int { return a.size }

// Reset drops the partial window and realigns to the start of a frame.
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
	a.phase = 0
}
