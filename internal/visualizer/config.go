package visualizer

import (
	"errors"
	"fmt"
)

const (
	defaultWindowSize = 16
	// Interleaved stereo capture: keep every second sample (the left channel).
	defaultStride  = 2
	defaultChannel = 0
	defaultGlyph   = '■'
)

var (
	// ErrInvalidWindowSize is returned when a window capacity is not a power of two.
	ErrInvalidWindowSize = errors.New("invalid window size")
	// ErrNonPowerOfTwo is returned by the transform for inputs it cannot split evenly.
	ErrNonPowerOfTwo = errors.New("size is not a power of two")
)

// SizeError reports the offending length alongside one of the size sentinels.
type SizeError struct {
	Size int
	Err  error
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%v: %d", e.Err, e.Size)
}

func (e *SizeError) Unwrap() error { return e.Err }

// Config fixes the shape of the analysis pipeline at construction time.
type Config struct {
	// WindowSize is the number of mono samples per transform. Must be a power of two.
	WindowSize int
	// Stride is the number of interleaved channels in the capture stream; the
	// assembler keeps one sample out of every Stride.
	Stride int
	// Channel selects which interleaved position is kept, in [0, Stride).
	Channel int
	Bins    BinPolicy
	Glyph   rune
}

// DefaultConfig returns a 16-sample window over the left channel of a stereo stream.
func DefaultConfig() Config {
	return Config{
		WindowSize: defaultWindowSize,
		Stride:     defaultStride,
		Channel:    defaultChannel,
		Bins:       BinsHalf,
		Glyph:      defaultGlyph,
	}
}

// Validate checks every field; a window of one sample yields no bars and is rejected.
func (c Config) Validate() error {
	if c.WindowSize < 2 || !isPowerOfTwo(c.WindowSize) {
		return &SizeError{Size: c.WindowSize, Err: ErrInvalidWindowSize}
	}
	if c.Stride < 1 {
		return fmt.Errorf("stride must be at least 1, got %d", c.Stride)
	}
	if c.Channel < 0 || c.Channel >= c.Stride {
		return fmt.Errorf("channel %d out of range for stride %d", c.Channel, c.Stride)
	}
	if !c.Bins.valid() {
		return fmt.Errorf("unknown bin policy %q", c.Bins)
	}
	if c.Glyph == 0 {
		return fmt.Errorf("glyph must be set")
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
