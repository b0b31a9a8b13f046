package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// Decoder yields interleaved signed 16-bit little-endian PCM.
type Decoder interface {
	io.ReadCloser
	// Length is the total PCM size in bytes, or -1 for live input.
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// OpenDecoder opens path and picks a decoder by file extension.
func OpenDecoder(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return dec, nil
}

func newDecoder(f *os.File) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(f.Name()))
	switch ext {
	case ".mp3":
		return newMP3Decoder(f)
	case ".wav":
		return newWAVDecoder(f)
	case ".flac":
		return newFLACDecoder(f)
	case ".ogg":
		return newOGGDecoder(f)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
}

// pcmBuffer holds converted PCM that did not fit the caller's slice.
type pcmBuffer struct {
	pending []byte
}

func (b *pcmBuffer) drain(p []byte) int {
	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	return n
}

func (b *pcmBuffer) emit(p, raw []byte) int {
	n := copy(p, raw)
	if n < len(raw) {
		b.pending = raw[n:]
	}
	return n
}

func clampInt16(v int) int16 {
	return int16(min(max(v, math.MinInt16), math.MaxInt16))
}

func putSample(dst []byte, v int) {
	binary.LittleEndian.PutUint16(dst, uint16(clampInt16(v)))
}

// --- MP3 ---

type mp3Decoder struct {
	file *os.File
	dec  *mp3.Decoder
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Decoder{file: f, dec: dec}, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Close() error               { return d.file.Close() }
func (d *mp3Decoder) Length() int64              { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int            { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int          { return 2 }

// --- WAV ---

type wavDecoder struct {
	pcmBuffer
	file       *os.File
	pcm        io.Reader // bounded to the data chunk
	totalBytes int64
	sampleRate int
	channels   int
	srcDepth   int
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	switch depth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth: %d", depth)
	}
	srcFrame := int64(channels * depth / 8)
	if srcFrame == 0 {
		return nil, fmt.Errorf("WAV file has no channels")
	}

	return &wavDecoder{
		file:       f,
		pcm:        io.LimitReader(f, dec.PCMLen()),
		totalBytes: dec.PCMLen() / srcFrame * int64(channels) * 2,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		srcDepth:   depth,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}

	width := d.srcDepth / 8
	src := make([]byte, max(len(p)/2, 1)*width)
	n, err := io.ReadFull(d.pcm, src)
	samples := n / width
	if samples == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		putSample(raw[i*2:], wavSample(src[i*width:], d.srcDepth))
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return d.emit(p, raw), err
}

// wavSample converts one little-endian source sample to the 16-bit range.
func wavSample(b []byte, depth int) int {
	switch depth {
	case 8:
		return (int(b[0]) - 128) << 8
	case 16:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		s := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
		return int(s >> 8)
	default:
		return int(int32(binary.LittleEndian.Uint32(b)) >> 16)
	}
}

func (d *wavDecoder) Close() error      { return d.file.Close() }
func (d *wavDecoder) Length() int64     { return d.totalBytes }
func (d *wavDecoder) SampleRate() int   { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

// --- FLAC ---

type flacDecoder struct {
	pcmBuffer
	file       *os.File
	stream     *flac.Stream
	totalBytes int64
	sampleRate int
	channels   int
	bps        int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	return &flacDecoder{
		file:       f,
		stream:     stream,
		totalBytes: int64(info.NSamples) * int64(info.NChannels) * 2,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bps:        int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	n := int(frame.Subframes[0].NSamples)
	raw := make([]byte, n*d.channels*2)
	for i := 0; i < n; i++ {
		for ch := 0; ch < d.channels; ch++ {
			s := int(frame.Subframes[ch].Samples[i])
			if d.bps > 16 {
				s >>= d.bps - 16
			} else {
				s <<= 16 - d.bps
			}
			putSample(raw[(i*d.channels+ch)*2:], s)
		}
	}
	return d.emit(p, raw), nil
}

func (d *flacDecoder) Close() error {
	d.stream.Close()
	// the stream may already have closed the file
	if err := d.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

func (d *flacDecoder) Length() int64     { return d.totalBytes }
func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// --- OGG Vorbis ---

type oggDecoder struct {
	pcmBuffer
	file       *os.File
	reader     *oggvorbis.Reader
	totalBytes int64
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	return &oggDecoder{
		file:       f,
		reader:     reader,
		totalBytes: reader.Length() * int64(reader.Channels()) * 2,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}

	samples := make([]float32, max(len(p)/2, 1))
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, n*2)
	for i, s := range samples[:n] {
		putSample(raw[i*2:], int(s*math.MaxInt16))
	}
	return d.emit(p, raw), err
}

func (d *oggDecoder) Close() error      { return d.file.Close() }
func (d *oggDecoder) Length() int64     { return d.totalBytes }
func (d *oggDecoder) SampleRate() int   { return d.reader.SampleRate() }
func (d *oggDecoder) ChannelCount() int { return d.reader.Channels() }
