package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/olivier-w/barscope/internal/capture"
	"github.com/olivier-w/barscope/internal/pipeline"
	"github.com/olivier-w/barscope/internal/viewport"
	"github.com/olivier-w/barscope/internal/visualizer"
)

const (
	margin = 2
	// header, blank, blank, status, progress, help and the leading newline
	chromeRows = 7
)

// Options configures a Model.
type Options struct {
	Title    string
	Analyzer *visualizer.Analyzer
	Events   <-chan pipeline.Event
	// Progress is set for finite sources.
	Progress capture.Progress
	// Dropped reports chunks the visualizer missed during playback.
	Dropped func() int64
	// Width and Height override the frame size when non-zero.
	Width     int
	Height    int
	MaxErrors int
	Logger    *zap.Logger
}

// Model is the Bubbletea model for the barscope TUI.
type Model struct {
	title    string
	analyzer *visualizer.Analyzer
	events   <-chan pipeline.Event
	source   capture.Progress
	dropped  func() int64
	log      *zap.Logger

	spinner  spinner.Model
	progress progress.Model

	override  viewport.Override
	window    visualizer.Window
	frame     visualizer.Frame
	hasFrame  bool
	frozen    bool
	width     int
	height    int
	frames    int
	errs      int
	maxErrors int
	lastErr   error
	err       error
	quitting  bool
}

// New creates a Model that renders windows arriving on opts.Events.
func New(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	p := progress.New(
		progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		progress.WithoutPercentage(),
	)

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxErrors := opts.MaxErrors
	if maxErrors <= 0 {
		maxErrors = pipeline.DefaultMaxErrors
	}

	return Model{
		title:     opts.Title,
		analyzer:  opts.Analyzer,
		events:    opts.Events,
		source:    opts.Progress,
		dropped:   opts.Dropped,
		log:       log,
		spinner:   s,
		progress:  p,
		override:  viewport.Override{Width: opts.Width, Height: opts.Height},
		maxErrors: maxErrors,
	}
}

// Err returns the error that ended the session, if any.
func (m Model) Err() error { return m.err }

// Frames returns the number of frames rendered.
func (m Model) Frames() int { return m.frames }

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
		waitForEvent(m.events),
		tea.SetWindowTitle(windowTitle(m.title, false)),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isQuit(msg) {
			m.quitting = true
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
		switch msg.String() {
		case " ":
			m.frozen = !m.frozen
			return m, tea.SetWindowTitle(windowTitle(m.title, m.frozen))
		case "b":
			m.analyzer.SetBins(m.analyzer.Bins().Next())
			m.log.Debug("bin policy changed", zap.String("bins", string(m.analyzer.Bins())))
			return m.redraw()
		}
		return m, nil

	case windowMsg:
		m.errs = 0
		if m.frozen {
			return m, waitForEvent(m.events)
		}
		m.window = visualizer.Window(msg)
		var cmd tea.Cmd
		if m, cmd = m.redraw(); cmd != nil {
			return m, cmd
		}
		return m, waitForEvent(m.events)

	case captureErrMsg:
		m.errs++
		m.lastErr = msg.err
		m.log.Warn("capture read failed", zap.Error(msg.err), zap.Int("consecutive", m.errs))
		if m.errs >= m.maxErrors {
			m.err = fmt.Errorf("capture failed %d times in a row: %w", m.errs, msg.err)
			m.quitting = true
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)

	case sourceDoneMsg:
		m.log.Info("source finished", zap.Int("frames", m.frames))
		m.quitting = true
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		if m.hasFrame {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 2*margin - 12
		if m.progress.Width < 10 {
			m.progress.Width = 10
		}
		return m.redraw()
	}

	return m, nil
}

// redraw renders the last window at the current size. A size error is fatal.
func (m Model) redraw() (Model, tea.Cmd) {
	if m.window == nil {
		return m, nil
	}
	vp, ok := m.viewport().Dimensions()
	if !ok {
		m.log.Debug("no room for a frame", zap.Int("width", m.width), zap.Int("height", m.height))
		return m, nil
	}
	frame, err := m.analyzer.Process(m.window, vp)
	if err != nil {
		m.err = err
		m.quitting = true
		return m, tea.Quit
	}
	m.frame = frame
	m.hasFrame = true
	m.frames++
	return m, nil
}

func (m Model) viewport() viewport.Provider {
	o := m.override
	o.Base = viewport.Reserve{
		Base: viewport.Fixed{Width: m.width - 2*margin, Height: m.height},
		Rows: chromeRows,
	}
	return o
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	header := headerStyle.Render("barscope")
	if m.title != "" {
		header += "  " + titleStyle.Render(m.title)
	}
	b.WriteString("  " + header + "\n\n")

	if m.hasFrame {
		for _, row := range m.frame.Rows() {
			b.WriteString("  " + barStyle.Render(row) + "\n")
		}
	} else {
		b.WriteString("  " + m.spinner.View() + " " + statusStyle.Render("Waiting for audio...") + "\n")
	}
	b.WriteString("\n")

	var dropped int64
	if m.dropped != nil {
		dropped = m.dropped()
	}
	status := statusStyle.Render(statusText(m.analyzer.WindowSize(), string(m.analyzer.Bins()), m.frames, dropped))
	if m.frozen {
		status += "  " + titleStyle.Render("frozen")
	}
	if m.lastErr != nil {
		status += "  " + errorStyle.Render(m.lastErr.Error())
	}
	b.WriteString("  " + status + "\n")

	if m.source != nil && m.source.Duration() > 0 {
		pos, total := m.source.Position(), m.source.Duration()
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			timeStyle.Render(formatDuration(pos)),
			m.progress.ViewAs(progressRatio(pos, total)),
			timeStyle.Render(formatDuration(total))))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("  " + helpStyle.Render(helpText(m.frozen)))
	return b.String()
}

func windowTitle(title string, frozen bool) string {
	if title == "" {
		title = "barscope"
	} else {
		title += " · barscope"
	}
	if frozen {
		return "❚❚ " + title
	}
	return title
}
