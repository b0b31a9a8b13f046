package capture

import (
	"errors"
	"time"
)

// ErrClosed is returned by ReadFrame after Close.
var ErrClosed = errors.New("capture source closed")

// Format describes interleaved signed 16-bit little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// FrameBytes is the size of one interleaved frame (one sample per channel).
func (f Format) FrameBytes() int { return f.Channels * 2 }

// BytesPerSecond is the PCM data rate.
func (f Format) BytesPerSecond() int { return f.SampleRate * f.FrameBytes() }

// Source supplies interleaved samples. ReadFrame blocks until a chunk of whole
// frames is available; io.EOF marks the end of a finite source.
type Source interface {
	ReadFrame() ([]int16, error)
	Format() Format
	Close() error
}

// Progress is implemented by sources with a known length.
type Progress interface {
	Position() time.Duration
	Duration() time.Duration
}

func bytesToDuration(n int64, f Format) time.Duration {
	bps := f.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(float64(n) / float64(bps) * float64(time.Second))
}
