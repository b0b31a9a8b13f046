package visualizer

// Analyzer runs one analysis cycle per window: transform, magnitudes, bin
// selection, scaling and rendering. Nothing computed for one window is reused
// by the next except the last heights, which are kept for display only.
type Analyzer struct {
	engine  *Engine
	bins    BinPolicy
	glyph   rune
	heights BarHeights
}

// NewAnalyzer validates cfg and builds the pipeline stages.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	engine, err := NewEngine(cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		engine: engine,
		bins:   cfg.Bins,
		glyph:  cfg.Glyph,
	}, nil
}

// Process turns w into a frame sized to vp. A size error aborts the cycle.
func (a *Analyzer) Process(w Window, vp Viewport) (Frame, error) {
	spectrum, err := a.engine.Transform(w)
	if err != nil {
		return Frame{}, err
	}
	mags := a.bins.Select(Magnitudes(spectrum))
	a.heights = Scale(mags, vp.Height)
	return Render(a.heights, vp, a.glyph), nil
}

// Heights returns a copy of the bar heights from the last cycle.
func (a *Analyzer) Heights() BarHeights {
	out := make(BarHeights, len(a.heights))
	copy(out, a.heights)
	return out
}

// Bins returns the active bin policy.
func (a *Analyzer) Bins() BinPolicy { return a.bins }

// SetBins switches the bin policy; it takes effect on the next Process call.
func (a *Analyzer) SetBins(p BinPolicy) {
	if p.valid() {
		a.bins = p
	}
}

// WindowSize returns the number of samples per analysis window.
func (a *Analyzer) WindowSize() int { return a.engine.Size() }
