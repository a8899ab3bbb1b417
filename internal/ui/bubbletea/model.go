package bubbletea

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshsymonds/tyr/internal/models"
)

// Model is the full UI state of a batch scan.
type Model struct {
	startTime    time.Time
	now          func() time.Time
	fileIndex    map[string]int
	errors       *RingBuffer[ErrorEntry]
	runID        string
	directory    string
	pattern      string
	provider     string
	files        []FileState
	finalMessage []string
	width        int
	height       int

	infoScrollOffset int
	infoMaxHeight    int

	showFinalSummary bool
	stopped          bool
}

// FileState tracks one file through the scan.
type FileState struct {
	StartTime time.Time
	Result    *models.AnalysisResult
	Path      string
	Status    FileStatus
	Kind      models.ErrorKind
	Message   string
	Duration  time.Duration
}

// FileStatus is where a file is in the scan.
type FileStatus string

// File status constants.
const (
	FileStatusPending FileStatus = "pending"
	FileStatusRunning FileStatus = "running"
	FileStatusSuccess FileStatus = "success"
	FileStatusFailed  FileStatus = "failed"
)

// ErrorEntry is one failed file in the recent errors box.
type ErrorEntry struct {
	Timestamp time.Time
	Path      string
	Kind      models.ErrorKind
	Message   string
}

// NewModel creates the model for a scan of directory.
func NewModel(cfg Config) Model {
	start := cfg.StartTime
	if start.IsZero() {
		start = time.Now()
	}
	return Model{
		startTime:     start,
		now:           time.Now,
		directory:     cfg.Directory,
		pattern:       cfg.Pattern,
		provider:      cfg.Provider,
		fileIndex:     make(map[string]int),
		errors:        NewRingBuffer[ErrorEntry](5),
		infoMaxHeight: 10,
	}
}

// Init starts the duration ticker.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Stopped reports whether the user quit before the scan finished.
func (m Model) Stopped() bool {
	return m.stopped
}

// Counts returns how many files are done, failed and known in total.
func (m Model) Counts() (done, failed, total int) {
	for _, f := range m.files {
		switch f.Status {
		case FileStatusSuccess:
			done++
		case FileStatusFailed:
			done++
			failed++
		}
	}
	return done, failed, len(m.files)
}

// Summary merges the threat summaries of finished files.
func (m Model) Summary() models.Summary {
	var s models.Summary
	for _, f := range m.files {
		if f.Result != nil {
			s.Merge(models.Summarize(f.Result))
		}
	}
	return s
}

func (m *Model) updateElapsedTimes() {
	now := m.now()
	for i := range m.files {
		if m.files[i].Status == FileStatusRunning {
			m.files[i].Duration = now.Sub(m.files[i].StartTime)
		}
	}
}

// startScan lists every file as pending in enumeration order.
func (m *Model) startScan(msg ScanStartedMsg) {
	m.runID = msg.RunID
	for _, path := range msg.Files {
		m.file(path)
	}
}

// file returns the state for path, adding it if unseen.
func (m *Model) file(path string) *FileState {
	idx, ok := m.fileIndex[path]
	if !ok {
		idx = len(m.files)
		m.files = append(m.files, FileState{Path: path, Status: FileStatusPending})
		m.fileIndex[path] = idx
	}
	return &m.files[idx]
}

func (m *Model) startFile(msg FileStartedMsg) {
	f := m.file(msg.Path)
	f.Status = FileStatusRunning
	f.StartTime = m.now()
}

func (m *Model) finishFile(msg FileFinishedMsg) {
	f := m.file(msg.Path)
	if !f.StartTime.IsZero() {
		f.Duration = m.now().Sub(f.StartTime)
	}

	if msg.Err != nil {
		f.Status = FileStatusFailed
		f.Kind = msg.Kind
		f.Message = msg.Err.Error()
		m.errors.Add(ErrorEntry{
			Timestamp: m.now(),
			Path:      msg.Path,
			Kind:      msg.Kind,
			Message:   msg.Err.Error(),
		})
		return
	}

	f.Status = FileStatusSuccess
	f.Result = msg.Result
}
