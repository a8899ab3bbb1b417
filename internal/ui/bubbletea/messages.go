package bubbletea

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshsymonds/tyr/internal/models"
)

// ScanStartedMsg announces the files a scan will analyze.
type ScanStartedMsg struct {
	RunID string
	Files []string
}

// FileStartedMsg marks a file as being analyzed.
type FileStartedMsg struct {
	Path string
}

// FileFinishedMsg reports the outcome for one file.
type FileFinishedMsg struct {
	Result *models.AnalysisResult
	Err    error
	Path   string
	Kind   models.ErrorKind
}

// FinalSummaryMsg displays the final summary and exits.
type FinalSummaryMsg struct {
	Lines []string
}

// TickMsg is sent periodically to update durations.
type TickMsg time.Time

// Update handles all incoming messages and updates the model accordingly.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ScanStartedMsg:
		m.startScan(msg)
		return m, nil

	case FileStartedMsg:
		m.startFile(msg)
		return m, nil

	case FileFinishedMsg:
		m.finishFile(msg)
		return m, nil

	case FinalSummaryMsg:
		m.showFinalSummary = true
		m.finalMessage = msg.Lines
		m.updateElapsedTimes()
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.updateElapsedTimes()
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.stopped = true
		return m, tea.Quit
	case tea.KeyUp, tea.KeyCtrlP:
		m.scroll(-1)
		return m, nil
	case tea.KeyDown, tea.KeyCtrlN:
		m.scroll(1)
		return m, nil
	case tea.KeyHome:
		m.infoScrollOffset = 0
		return m, nil
	case tea.KeyPgUp:
		m.scroll(-m.infoMaxHeight / 2)
		return m, nil
	case tea.KeyPgDown:
		m.scroll(m.infoMaxHeight / 2)
		return m, nil
	}

	switch msg.String() {
	case "q", "Q":
		m.stopped = !m.showFinalSummary
		return m, tea.Quit
	case "k":
		m.scroll(-1)
	case "j":
		m.scroll(1)
	case "g":
		m.infoScrollOffset = 0
	case "G":
		m.infoScrollOffset = m.maxScroll()
	}
	return m, nil
}

// scroll moves the file list window, clamped to its content.
func (m *Model) scroll(delta int) {
	m.infoScrollOffset = min(max(m.infoScrollOffset+delta, 0), m.maxScroll())
}

func (m Model) maxScroll() int {
	return max(len(m.files)-m.infoMaxHeight, 0)
}
