package capture

import (
	"io"
	"time"

	"github.com/olivier-w/barscope/internal/player"
)

// DecoderOptions controls how a decoded stream is turned into capture frames.
type DecoderOptions struct {
	// Channels is the interleaved channel count handed to the assembler.
	Channels int
	// Frames is the number of frames per ReadFrame.
	Frames int
	// Play sends the audio to the default output and visualizes what is played.
	Play bool
	// Realtime paces reads at the decoder's sample rate when not playing.
	Realtime bool
}

// decoderSource adapts a player.Decoder, optionally played through oto.
type decoderSource struct {
	dec      player.Decoder
	player   *player.Player
	pcm      *pcmSource
	src      Format
	channels int
	pace     *pacer
}

// NewDecoderSource takes ownership of dec.
func NewDecoderSource(dec player.Decoder, opts DecoderOptions) (Source, error) {
	src := Format{SampleRate: dec.SampleRate(), Channels: dec.ChannelCount()}

	var r io.Reader = dec
	var p *player.Player
	if opts.Play {
		var err error
		p, err = player.New(dec)
		if err != nil {
			dec.Close()
			return nil, err
		}
		r = &tapSource{taps: p.Taps(), err: p.Err}
	}

	pcm, err := newPCMSource(r, src, opts.Frames)
	if err != nil {
		if p != nil {
			p.Close()
		} else {
			dec.Close()
		}
		return nil, err
	}
	// the decoder or player is closed by decoderSource, not by pcmSource
	pcm.closer = nil

	s := &decoderSource{
		dec:      dec,
		player:   p,
		pcm:      pcm,
		src:      src,
		channels: opts.Channels,
	}
	if opts.Realtime && !opts.Play {
		s.pace = newPacer(src.BytesPerSecond())
	}
	return s, nil
}

func (s *decoderSource) ReadFrame() ([]int16, error) {
	samples, err := s.pcm.ReadFrame()
	if len(samples) == 0 {
		return nil, err
	}
	if s.pace != nil {
		s.pace.wait(s.pcm.consumed())
	}
	return remapChannels(samples, s.src.Channels, s.channels), err
}

func (s *decoderSource) Format() Format {
	return Format{SampleRate: s.src.SampleRate, Channels: s.channels}
}

func (s *decoderSource) Position() time.Duration {
	return bytesToDuration(s.pcm.consumed(), s.src)
}

func (s *decoderSource) Duration() time.Duration {
	if s.dec.Length() < 0 {
		return 0
	}
	return bytesToDuration(s.dec.Length(), s.src)
}

// Dropped counts played chunks the visualizer never saw.
func (s *decoderSource) Dropped() int64 {
	if s.player == nil {
		return 0
	}
	return s.player.Dropped()
}

func (s *decoderSource) Close() error {
	if s.pcm.closed.Load() {
		return nil
	}
	s.pcm.Close()
	if s.player != nil {
		return s.player.Close()
	}
	return s.dec.Close()
}

// remapChannels converts interleaved frames from src to dst channels. Missing
// channels repeat the last source channel; extra ones are dropped.
func remapChannels(samples []int16, src, dst int) []int16 {
	if src == dst || src < 1 || dst < 1 {
		return samples
	}
	frames := len(samples) / src
	out := make([]int16, frames*dst)
	for i := 0; i < frames; i++ {
		for c := 0; c < dst; c++ {
			out[i*dst+c] = samples[i*src+min(c, src-1)]
		}
	}
	return out
}

// tapSource reads the chunks a player has already sent to the audio output.
type tapSource struct {
	taps  <-chan []byte
	chunk []byte
	err   func() error
}

func (t *tapSource) Read(p []byte) (int, error) {
	if len(t.chunk) == 0 {
		chunk, ok := <-t.taps
		if !ok {
			if err := t.err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		t.chunk = chunk
	}
	n := copy(p, t.chunk)
	t.chunk = t.chunk[n:]
	return n, nil
}

// pacer holds reads back to the stream's real-time rate.
type pacer struct {
	start       time.Time
	bytesPerSec int
	now         func() time.Time
	sleep       func(time.Duration)
}

func newPacer(bytesPerSec int) *pacer {
	return &pacer{
		bytesPerSec: bytesPerSec,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// wait blocks until consumed bytes would have been played.
func (p *pacer) wait(consumed int64) {
	if p.bytesPerSec <= 0 {
		return
	}
	if p.start.IsZero() {
		p.start = p.now()
	}
	due := p.start.Add(time.Duration(float64(consumed) / float64(p.bytesPerSec) * float64(time.Second)))
	if d := due.Sub(p.now()); d > 0 {
		p.sleep(d)
	}
}
