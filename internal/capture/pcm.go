package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
)

// pcmSource decodes raw s16le bytes from a reader into whole interleaved frames.
type pcmSource struct {
	r      io.Reader
	closer io.Closer
	format Format
	buf    []byte
	carry  int // bytes of an incomplete frame kept at the front of buf
	total  atomic.Int64
	err    error // deferred until the chunk read with it has been delivered
	closed atomic.Bool
}

// NewPCMSource reads chunks of up to frames interleaved frames from r. If r is
// an io.Closer it is closed with the source.
func NewPCMSource(r io.Reader, format Format, frames int) (Source, error) {
	return newPCMSource(r, format, frames)
}

func newPCMSource(r io.Reader, format Format, frames int) (*pcmSource, error) {
	if format.Channels < 1 || format.SampleRate < 1 {
		return nil, fmt.Errorf("invalid capture format %+v", format)
	}
	if frames < 1 {
		return nil, fmt.Errorf("frames per read must be positive, got %d", frames)
	}
	s := &pcmSource{
		r:      r,
		format: format,
		buf:    make([]byte, frames*format.FrameBytes()),
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

func (s *pcmSource) ReadFrame() ([]int16, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if s.err != nil {
		err := s.err
		s.err = nil
		return nil, err
	}

	n, err := s.r.Read(s.buf[s.carry:])
	avail := s.carry + n
	frameBytes := s.format.FrameBytes()
	whole := avail - avail%frameBytes

	var samples []int16
	if whole > 0 {
		samples = make([]int16, whole/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(s.buf[i*2:]))
		}
		s.total.Add(int64(whole))
	}
	s.carry = copy(s.buf, s.buf[whole:avail])

	if len(samples) > 0 {
		s.err = err
		return samples, nil
	}
	return nil, err
}

func (s *pcmSource) Format() Format { return s.format }

func (s *pcmSource) consumed() int64 { return s.total.Load() }

func (s *pcmSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
