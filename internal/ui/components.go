package ui

import (
	"fmt"
	"strings"
	"time"
)

// formatDuration formats a duration as m:ss.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// statusText summarizes the analysis settings and counters.
func statusText(windowSize int, bins string, frames int, dropped int64) string {
	parts := []string{
		fmt.Sprintf("N=%d", windowSize),
		"bins " + bins,
		fmt.Sprintf("%d frames", frames),
	}
	if dropped > 0 {
		parts = append(parts, fmt.Sprintf("%d dropped", dropped))
	}
	return strings.Join(parts, "  ·  ")
}

func progressRatio(pos, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	r := float64(pos) / float64(total)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
