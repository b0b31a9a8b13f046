package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/olivier-w/barscope/internal/capture"
	"github.com/olivier-w/barscope/internal/viewport"
	"github.com/olivier-w/barscope/internal/visualizer"
)

type read struct {
	samples []int16
	err     error
}

// scriptedSource replays reads and then reports io.EOF.
type scriptedSource struct {
	reads  []read
	onRead func(n int)
	calls  int
}

func (s *scriptedSource) ReadFrame() ([]int16, error) {
	s.calls++
	if s.onRead != nil {
		s.onRead(s.calls)
	}
	if len(s.reads) == 0 {
		return nil, io.EOF
	}
	r := s.reads[0]
	s.reads = s.reads[1:]
	return r.samples, r.err
}

func (s *scriptedSource) Format() capture.Format {
	return capture.Format{SampleRate: 44100, Channels: 2}
}
func (s *scriptedSource) Close() error { return nil }

type recordingWriter struct{ writes []string }

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.writes = append(w.writes, string(p))
	return len(p), nil
}

type noViewport struct{}

func (noViewport) Dimensions() (visualizer.Viewport, bool) { return visualizer.Viewport{}, false }

// interleaved returns windows*16 stereo frames with a tone on the left channel.
func interleaved(windows int) []int16 {
	out := make([]int16, windows*16*2)
	for i := 0; i < len(out); i += 2 {
		if (i/2)%2 == 0 {
			out[i] = 1000
		} else {
			out[i] = -1000
		}
	}
	return out
}

func newRunner(t *testing.T, src capture.Source, vp viewport.Provider, out io.Writer) *Runner {
	t.Helper()
	cfg := visualizer.DefaultConfig()
	asm, err := visualizer.NewAssembler(cfg)
	if err != nil {
		t.Fatal(err)
	}
	an, err := visualizer.NewAnalyzer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return &Runner{Source: src, Assembler: asm, Analyzer: an, Viewport: vp, Out: out}
}

func TestRunRendersLatestWindowPerRead(t *testing.T) {
	src := &scriptedSource{reads: []read{{samples: interleaved(2)}, {samples: interleaved(1)}}}
	out := &recordingWriter{}
	r := newRunner(t, src, viewport.Fixed{Width: 30, Height: 6}, out)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out.writes) != 2 {
		t.Fatalf("got %d writes, want 2", len(out.writes))
	}
	st := r.Stats()
	if st.Reads != 2 || st.Windows != 3 || st.Frames != 2 || st.Dropped != 1 {
		t.Fatalf("Stats() = %+v", st)
	}
	rows := strings.Split(out.writes[0], "\n")
	if len(rows) != 6 || len([]rune(rows[0])) != 30 {
		t.Fatalf("frame has %d rows, first row %q", len(rows), rows[0])
	}
}

func TestRunEveryWindow(t *testing.T) {
	src := &scriptedSource{reads: []read{{samples: interleaved(3)}}}
	out := &recordingWriter{}
	r := newRunner(t, src, viewport.Fixed{Width: 30, Height: 6}, out)
	r.EveryWindow = true

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out.writes) != 3 || r.Stats().Dropped != 0 {
		t.Fatalf("writes = %d, stats = %+v", len(out.writes), r.Stats())
	}
}

func TestRunHomePrefixesSingleWrite(t *testing.T) {
	src := &scriptedSource{reads: []read{{samples: interleaved(1)}}}
	out := &recordingWriter{}
	r := newRunner(t, src, viewport.Fixed{Width: 30, Height: 6}, out)
	r.Home = true

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out.writes) != 1 || !strings.HasPrefix(out.writes[0], homeCursor) {
		t.Fatalf("writes = %q", out.writes)
	}
	if strings.HasSuffix(out.writes[0], "\n") {
		t.Fatal("frame should not end with a newline")
	}
}

func TestRunSkipsWithoutViewport(t *testing.T) {
	src := &scriptedSource{reads: []read{{samples: interleaved(1)}}}
	out := &recordingWriter{}
	r := newRunner(t, src, noViewport{}, out)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out.writes) != 0 || r.Stats().Skipped != 1 {
		t.Fatalf("writes = %d, stats = %+v", len(out.writes), r.Stats())
	}
}

func TestRunSurvivesCaptureErrors(t *testing.T) {
	boom := errors.New("boom")
	src := &scriptedSource{reads: []read{
		{err: boom},
		{err: boom},
		{samples: interleaved(1)},
		{err: boom},
	}}
	out := &recordingWriter{}
	r := newRunner(t, src, viewport.Fixed{Width: 30, Height: 6}, out)
	r.MaxErrors = 3

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st := r.Stats(); st.CaptureErrors != 3 || st.Frames != 1 {
		t.Fatalf("Stats() = %+v", st)
	}
}

func TestRunAbortsAfterMaxErrors(t *testing.T) {
	boom := errors.New("boom")
	src := &scriptedSource{reads: []read{{err: boom}, {err: boom}, {samples: interleaved(1)}}}
	r := newRunner(t, src, viewport.Fixed{Width: 30, Height: 6}, &recordingWriter{})
	r.MaxErrors = 2

	err := r.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want wrapped boom", err)
	}
	if src.calls != 2 {
		t.Fatalf("source read %d times, want 2", src.calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &scriptedSource{reads: []read{{samples: interleaved(1)}}}
	r := newRunner(t, src, viewport.Fixed{Width: 30, Height: 6}, &recordingWriter{})

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if src.calls != 0 {
		t.Fatalf("source read %d times after cancel", src.calls)
	}
}

func TestAssembleDropsWhenConsumerBusy(t *testing.T) {
	reached := make(chan struct{})
	src := &scriptedSource{
		reads: []read{{samples: interleaved(3)}},
		onRead: func(n int) {
			if n == 2 {
				close(reached)
			}
		},
	}
	asm, err := visualizer.NewAssembler(visualizer.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	events := make(chan Event, 1)
	result := make(chan int, 1)
	go func() { result <- Assemble(context.Background(), src, asm, events) }()

	<-reached
	var windows, done int
	for ev := range events {
		switch {
		case ev.Done:
			done++
		case ev.Window != nil:
			windows++
			if len(ev.Window) != 16 {
				t.Fatalf("window length = %d", len(ev.Window))
			}
		}
	}
	if windows != 1 || done != 1 {
		t.Fatalf("windows = %d, done = %d", windows, done)
	}
	if dropped := <-result; dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
}

func TestAssembleForwardsErrors(t *testing.T) {
	boom := errors.New("boom")
	src := &scriptedSource{reads: []read{{err: boom}}}
	asm, err := visualizer.NewAssembler(visualizer.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	events := make(chan Event, 4)
	Assemble(context.Background(), src, asm, events)

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 2 || !errors.Is(got[0].Err, boom) || !got[1].Done {
		t.Fatalf("events = %+v", got)
	}
}
