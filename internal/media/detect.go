package media

import (
	"path/filepath"
	"slices"
	"strings"
)

// Extensions decoded natively; everything else goes through ffmpeg.
var nativeExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// Kind classifies a capture target.
type Kind int

const (
	KindStdin Kind = iota
	KindMonitor
	KindURL
	KindFile
	KindFFmpegFile
)

func (k Kind) String() string {
	switch k {
	case KindStdin:
		return "stdin"
	case KindMonitor:
		return "monitor"
	case KindURL:
		return "url"
	case KindFile:
		return "file"
	default:
		return "ffmpeg"
	}
}

// Target is a parsed capture argument.
type Target struct {
	Kind Kind
	// Location is the path, URL or PulseAudio device name.
	Location string
}

// DefaultMonitor is the PulseAudio source that mirrors the default output.
const DefaultMonitor = "default.monitor"

// Classify parses a capture argument: "-" is stdin, "monitor" or
// "pulse:<device>" is a PulseAudio capture, http(s) URLs are streams and
// anything else is a file.
func Classify(arg string) Target {
	switch {
	case arg == "" || arg == "-":
		return Target{Kind: KindStdin, Location: "-"}
	case arg == "monitor":
		return Target{Kind: KindMonitor, Location: DefaultMonitor}
	case strings.HasPrefix(arg, "pulse:"):
		dev := strings.TrimPrefix(arg, "pulse:")
		if dev == "" {
			dev = DefaultMonitor
		}
		return Target{Kind: KindMonitor, Location: dev}
	case IsURL(arg):
		return Target{Kind: KindURL, Location: arg}
	case IsSupportedExt(filepath.Ext(arg)):
		return Target{Kind: KindFile, Location: arg}
	default:
		return Target{Kind: KindFFmpegFile, Location: arg}
	}
}

// IsURL reports whether arg is an http(s) URL.
func IsURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// IsSupportedExt returns true if the extension is decoded without ffmpeg.
func IsSupportedExt(ext string) bool {
	return nativeExts[strings.ToLower(ext)]
}

// SupportedExtsList returns a human-readable list of natively decoded formats.
func SupportedExtsList() string {
	exts := make([]string, 0, len(nativeExts))
	for ext := range nativeExts {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return strings.Join(exts, ", ")
}
