// Package bubbletea renders live batch-scan progress in the terminal.
package bubbletea

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshsymonds/tyr/internal/analyzer"
	"github.com/joshsymonds/tyr/internal/batch"
	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/pkg/logger"
)

// Config describes the scan being displayed.
type Config struct {
	StartTime time.Time
	Logger    logger.Logger
	// OnQuit runs when the user quits before the scan finishes, typically
	// to cancel the scan context.
	OnQuit    func()
	Directory string
	Pattern   string
	Provider  string
	Options   []tea.ProgramOption
	// Headless applies updates to the model without running a terminal
	// program.
	Headless bool
}

var _ batch.Observer = (*ProgressUI)(nil)

// ProgressUI drives the bubbletea program from batch scan events.
type ProgressUI struct {
	program  *tea.Program
	logger   logger.Logger
	onQuit   func()
	done     chan struct{}
	model    Model
	stopOnce sync.Once
	mu       sync.Mutex
	headless bool
	started  bool
}

// NewProgressUI creates the UI. Call Start before the scan begins.
func NewProgressUI(cfg Config) *ProgressUI {
	log := cfg.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	ui := &ProgressUI{
		model:    NewModel(cfg),
		logger:   log,
		onQuit:   cfg.OnQuit,
		done:     make(chan struct{}),
		headless: cfg.Headless,
	}
	if !ui.headless {
		opts := append([]tea.ProgramOption{tea.WithAltScreen()}, cfg.Options...)
		ui.program = tea.NewProgram(ui.model, opts...)
	}
	return ui
}

// Start runs the terminal program in the background.
func (u *ProgressUI) Start() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.headless || u.started {
		return
	}
	u.started = true

	go func() {
		defer close(u.done)
		final, err := u.program.Run()
		if err != nil {
			u.logger.Error("Progress UI failed", "error", err)
			return
		}
		if m, ok := final.(Model); ok && m.Stopped() && u.onQuit != nil {
			u.onQuit()
		}
	}()
}

// ScanStarted lists the files about to be analyzed.
func (u *ProgressUI) ScanStarted(runID string, files []string) {
	u.send(ScanStartedMsg{RunID: runID, Files: files})
}

// FileStarted marks path as running.
func (u *ProgressUI) FileStarted(path string) {
	u.send(FileStartedMsg{Path: path})
}

// FileFinished records the outcome for path.
func (u *ProgressUI) FileFinished(path string, result *models.AnalysisResult, err error) {
	u.send(FileFinishedMsg{Path: path, Result: result, Err: err, Kind: analyzer.KindOf(err)})
}

// Finish shows the final summary and waits for the program to exit.
func (u *ProgressUI) Finish(lines []string) {
	u.send(FinalSummaryMsg{Lines: lines})
	u.wait()
}

// Stop quits the program and restores the terminal.
func (u *ProgressUI) Stop() {
	u.stopOnce.Do(func() {
		if u.program != nil && u.isStarted() {
			u.program.Quit()
			u.wait()
		}
	})
}

// Model returns a snapshot of the current model in headless mode.
func (u *ProgressUI) Model() Model {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.model
}

func (u *ProgressUI) send(msg tea.Msg) {
	if u.headless {
		u.mu.Lock()
		defer u.mu.Unlock()
		updated, _ := u.model.Update(msg)
		u.model = updated.(Model)
		return
	}
	if u.isStarted() {
		u.program.Send(msg)
	}
}

func (u *ProgressUI) wait() {
	if u.headless || !u.isStarted() {
		return
	}
	select {
	case <-u.done:
	case <-time.After(2 * time.Second):
		u.program.Kill()
		<-u.done
	}
}

func (u *ProgressUI) isStarted() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.started
}
