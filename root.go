package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/olivier-w/barscope/internal/config"
	"github.com/olivier-w/barscope/internal/media"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"window-size":  "window.size",
	"stride":       "window.stride",
	"channel":      "window.channel",
	"bins":         "render.bins",
	"glyph":        "render.glyph",
	"width":        "render.width",
	"height":       "render.height",
	"every-window": "render.every_window",
	"rate":         "capture.sample_rate",
	"channels":     "capture.channels",
	"frames":       "capture.frames",
	"play":         "capture.play",
	"max-errors":   "capture.max_errors",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"log-file":     "log.file",
	"mode":         "ui.mode",
}

type app struct {
	v          *viper.Viper
	configFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	cmd := &cobra.Command{
		Use:   "barscope [source]",
		Short: "Terminal audio spectrum visualizer",
		Long: `barscope draws a live bar spectrum of an audio stream in the terminal.

Sources:
  monitor          the PulseAudio monitor of the default output (default)
  pulse:<device>   any PulseAudio source
  -                raw s16le PCM on stdin, e.g. parec --format=s16le | barscope -
  <url>            an http(s) stream, decoded by ffmpeg
  <file>           ` + media.SupportedExtsList() + ` natively, anything else through ffmpeg`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			target := cfg.Capture.Source
			if len(args) == 1 {
				target = args[0]
			}
			return run(cmd.Context(), cfg, target)
		},
	}

	def := config.New()
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "",
		"config file (default is $HOME/.config/barscope/barscope.yaml)")
	flags.IntP("window-size", "n", def.GetInt("window.size"), "samples per analysis window (power of two)")
	flags.Int("stride", def.GetInt("window.stride"), "interleaved channels per frame (0 follows --channels)")
	flags.Int("channel", def.GetInt("window.channel"), "channel to analyze")
	flags.StringP("bins", "b", def.GetString("render.bins"), "bin selection (half, drop-last)")
	flags.String("glyph", def.GetString("render.glyph"), "character used to draw bars")
	flags.Int("width", 0, "frame width (default is the terminal width)")
	flags.Int("height", 0, "frame height (default is the terminal height)")
	flags.Bool("every-window", false, "render every window instead of the latest per read")
	flags.Int("rate", def.GetInt("capture.sample_rate"), "capture sample rate for live sources")
	flags.Int("channels", def.GetInt("capture.channels"), "capture channel count")
	flags.Int("frames", def.GetInt("capture.frames"), "frames per capture read")
	flags.Bool("play", def.GetBool("capture.play"), "play files and streams while visualizing")
	flags.Int("max-errors", def.GetInt("capture.max_errors"), "consecutive capture errors before giving up")
	flags.String("log-level", def.GetString("log.level"), "log level (debug, info, warn, error)")
	flags.String("log-format", def.GetString("log.format"), "log encoding (console, json)")
	flags.String("log-file", "", "log file (the TUI logs nowhere without one)")
	flags.String("mode", def.GetString("ui.mode"), "presentation (auto, tui, raw)")

	if err := bindFlags(flags, a.v); err != nil {
		// only fails for a flag missing from the table above
		panic(err)
	}

	cmd.AddCommand(newConfigCmd(a))
	return cmd
}

func bindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	var errs []error
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			errs = append(errs, fmt.Errorf("unknown flag %q", name))
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initConfig reads the config file, if any. A missing default file is not an error.
func (a *app) initConfig() error {
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	} else {
		config.AddConfigPaths(a.v)
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "# from %s\n", used)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
