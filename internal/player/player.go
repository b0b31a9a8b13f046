package player

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// tapDepth is how many played chunks may wait for the visualizer before new
// ones are dropped. Playback never blocks on the visualizer.
const tapDepth = 64

// Player plays a Decoder through the default audio output and hands a copy of
// every chunk it plays to Taps, so the visualizer sees what is heard.
type Player struct {
	dec    Decoder
	out    *oto.Player
	tap    *tapReader
	mu     sync.Mutex
	closed bool
}

var (
	otoCtx     *oto.Context
	otoOnce    sync.Once
	otoInitErr error
	otoRate    int
	otoChans   int
)

// initOto opens the process-wide audio context. oto allows one context per
// process, so later players must use the same format.
func initOto(rate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoRate, otoChans = rate, channels
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if rate != otoRate || channels != otoChans {
		return nil, fmt.Errorf("audio output already open at %d Hz, %d channels", otoRate, otoChans)
	}
	return otoCtx, nil
}

// New starts playing dec. The player owns dec and closes it on Close.
func New(dec Decoder) (*Player, error) {
	ctx, err := initOto(dec.SampleRate(), dec.ChannelCount())
	if err != nil {
		return nil, fmt.Errorf("opening audio output: %w", err)
	}

	tap := newTapReader(dec, tapDepth)
	p := &Player{
		dec: dec,
		tap: tap,
		out: ctx.NewPlayer(tap),
	}
	p.out.Play()
	return p, nil
}

// Taps delivers copies of played PCM. It is closed when the decoder is exhausted or fails.
func (p *Player) Taps() <-chan []byte { return p.tap.ch }

// Dropped returns the number of chunks the visualizer was too slow to take.
func (p *Player) Dropped() int64 { return p.tap.droppedCount() }

// Err returns the decoder error that ended playback, if any.
func (p *Player) Err() error {
	if err := p.tap.error(); err != nil && err != io.EOF {
		return err
	}
	return p.out.Err()
}

// Close stops playback and releases the decoder.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.out.Pause()
	err := p.out.Close()
	if cerr := p.dec.Close(); err == nil {
		err = cerr
	}
	return err
}

// tapReader forwards reads from src and publishes a copy of each chunk.
type tapReader struct {
	src     io.Reader
	ch      chan []byte
	mu      sync.Mutex
	dropped int64
	err     error
	closed  bool
}

func newTapReader(src io.Reader, depth int) *tapReader {
	return &tapReader{src: src, ch: make(chan []byte, depth)}
}

func (t *tapReader) Read(p []byte) (int, error) {
	n, err := t.src.Read(p)
	t.publish(p[:n], err)
	return n, err
}

func (t *tapReader) publish(chunk []byte, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if len(chunk) > 0 {
		select {
		case t.ch <- bytes.Clone(chunk):
		default:
			t.dropped++
		}
	}
	if err != nil {
		t.err = err
		t.closed = true
		close(t.ch)
	}
}

func (t *tapReader) droppedCount() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

func (t *tapReader) error() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
