package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(frozen bool) string {
	s := "space freeze"
	if frozen {
		s = "space resume"
	}
	return s + "  b bins  q quit"
}
