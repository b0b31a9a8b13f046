package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// ErrFFmpegNotFound is returned when live capture needs ffmpeg and it is not on PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg not found (required for live capture)")

// ffmpegDecoder adapts an ffmpeg decode subprocess writing s16le to stdout.
type ffmpegDecoder struct {
	cmd        *exec.Cmd
	cancel     context.CancelFunc
	stdout     io.ReadCloser
	stderr     *tailBuffer
	sampleRate int
	channels   int
	waitOnce   sync.Once
	waitErr    error
}

// NewFFmpegDecoder starts ffmpeg with the given input arguments (for example
// "-f", "pulse", "-i", "default.monitor") and resamples to rate and channels.
func NewFFmpegDecoder(ctx context.Context, input []string, rate, channels int) (Decoder, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, ErrFFmpegNotFound
	}

	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error"}
	args = append(args, input...)
	args = append(args,
		"-vn",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(rate),
		"-f", "s16le",
		"pipe:1",
	)

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	stderr := &tailBuffer{limit: 512}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setting up ffmpeg: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}

	return &ffmpegDecoder{
		cmd:        cmd,
		cancel:     cancel,
		stdout:     stdout,
		stderr:     stderr,
		sampleRate: rate,
		channels:   channels,
	}, nil
}

// wait reaps the process. Wait closes stdout, so it only runs once reads are done.
func (d *ffmpegDecoder) wait() error {
	d.waitOnce.Do(func() {
		d.waitErr = d.cmd.Wait()
	})
	return d.waitErr
}

// Read returns the exit status and the tail of ffmpeg's stderr once the
// process has failed, so a dead capture is not reported as a clean end.
func (d *ffmpegDecoder) Read(p []byte) (int, error) {
	n, err := d.stdout.Read(p)
	if err == nil || n > 0 {
		return n, err
	}
	if werr := d.wait(); werr != nil {
		if msg := d.stderr.String(); msg != "" {
			return 0, fmt.Errorf("ffmpeg: %w: %s", werr, msg)
		}
		return 0, fmt.Errorf("ffmpeg: %w", werr)
	}
	return 0, io.EOF
}

func (d *ffmpegDecoder) Length() int64     { return -1 }
func (d *ffmpegDecoder) SampleRate() int   { return d.sampleRate }
func (d *ffmpegDecoder) ChannelCount() int { return d.channels }

func (d *ffmpegDecoder) Close() error {
	d.cancel()
	d.wait()
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
