package capture

import (
	"context"
	"fmt"
	"os"

	"github.com/olivier-w/barscope/internal/media"
	"github.com/olivier-w/barscope/internal/player"
)

// Options configures Open.
type Options struct {
	// Format is the capture format for live input; file sources keep their
	// own sample rate but are remapped to Format.Channels.
	Format Format
	// Frames is the number of interleaved frames per ReadFrame.
	Frames int
	// Play sends file and stream audio to the default output.
	Play bool
}

// Info describes an opened source.
type Info struct {
	Kind  media.Kind
	Title string
}

// Open resolves target (see media.Classify) to a Source.
func Open(ctx context.Context, target string, opts Options) (Source, Info, error) {
	t := media.Classify(target)
	info := Info{Kind: t.Kind, Title: t.Location}

	switch t.Kind {
	case media.KindStdin:
		info.Title = "stdin"
		src, err := NewPCMSource(os.Stdin, opts.Format, opts.Frames)
		return src, info, err

	case media.KindMonitor:
		dec, err := player.NewFFmpegDecoder(ctx, []string{"-f", "pulse", "-i", t.Location},
			opts.Format.SampleRate, opts.Format.Channels)
		if err != nil {
			return nil, info, fmt.Errorf("capturing %s: %w", t.Location, err)
		}
		// never play a monitor back into the output it is monitoring
		src, err := NewDecoderSource(dec, DecoderOptions{Channels: opts.Format.Channels, Frames: opts.Frames})
		return src, info, err

	case media.KindURL:
		dec, err := player.NewFFmpegDecoder(ctx, []string{
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_delay_max", "5",
			"-i", t.Location,
		}, opts.Format.SampleRate, opts.Format.Channels)
		if err != nil {
			return nil, info, fmt.Errorf("opening stream %s: %w", t.Location, err)
		}
		src, err := NewDecoderSource(dec, DecoderOptions{
			Channels: opts.Format.Channels,
			Frames:   opts.Frames,
			Play:     opts.Play,
		})
		return src, info, err

	case media.KindFile:
		dec, err := player.OpenDecoder(t.Location)
		if err != nil {
			return nil, info, fmt.Errorf("opening %s: %w", t.Location, err)
		}
		info.Title = player.ReadMetadata(t.Location).String()
		src, err := NewDecoderSource(dec, DecoderOptions{
			Channels: opts.Format.Channels,
			Frames:   opts.Frames,
			Play:     opts.Play,
			Realtime: true,
		})
		return src, info, err

	default:
		if _, err := os.Stat(t.Location); err != nil {
			return nil, info, err
		}
		input := []string{"-i", t.Location}
		if !opts.Play {
			input = append([]string{"-re"}, input...)
		}
		dec, err := player.NewFFmpegDecoder(ctx, input, opts.Format.SampleRate, opts.Format.Channels)
		if err != nil {
			return nil, info, fmt.Errorf("opening %s (%s): %w", t.Location, media.SupportedExtsList(), err)
		}
		info.Title = player.ReadMetadata(t.Location).String()
		src, err := NewDecoderSource(dec, DecoderOptions{
			Channels: opts.Format.Channels,
			Frames:   opts.Frames,
			Play:     opts.Play,
		})
		return src, info, err
	}
}
