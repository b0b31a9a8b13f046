package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/barscope/internal/pipeline"
	"github.com/olivier-w/barscope/internal/visualizer"
)

type tickMsg time.Time
type windowMsg visualizer.Window
type captureErrMsg struct{ err error }
type sourceDoneMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent turns the next capture event into a message.
func waitForEvent(events <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		switch {
		case !ok || ev.Done:
			return sourceDoneMsg{}
		case ev.Err != nil:
			return captureErrMsg{err: ev.Err}
		default:
			return windowMsg(ev.Window)
		}
	}
}
