package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/olivier-w/barscope/internal/capture"
	"github.com/olivier-w/barscope/internal/visualizer"
)

// Event is sent by Assemble. Exactly one of Window and Err is set; a final
// event with Done set closes the stream.
type Event struct {
	Window visualizer.Window
	Err    error
	Done   bool
}

// Assemble reads src on the calling goroutine and hands completed windows to
// events. A window the consumer is not ready for is dropped; the assembler
// allocates a fresh buffer per window, so a sent window is never shared.
// Read errors are forwarded (blocking) and reading continues; io.EOF and
// ctx cancellation end the loop with a Done event. events is closed on return.
func Assemble(ctx context.Context, src capture.Source, asm *visualizer.Assembler, events chan<- Event) (dropped int) {
	defer close(events)

	send := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for ctx.Err() == nil {
		samples, err := src.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, capture.ErrClosed) || ctx.Err() != nil {
				break
			}
			if !send(Event{Err: err}) {
				return dropped
			}
			continue
		}
		for _, w := range asm.PushFrame(samples) {
			select {
			case events <- Event{Window: w}:
			default:
				dropped++
			}
		}
	}
	send(Event{Done: true})
	return dropped
}
