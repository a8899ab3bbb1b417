package bubbletea

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/tyr/internal/models"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestModel returns a model whose clock advances only when told to.
func newTestModel(t *testing.T) (Model, *time.Time) {
	t.Helper()
	now := testStart
	m := NewModel(Config{
		StartTime: testStart,
		Directory: "/srv/infra",
		Pattern:   "**/*.tf",
		Provider:  "mock",
	})
	m.now = func() time.Time { return now }
	return m, &now
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(Model)
	require.True(t, ok)
	return updated, cmd
}

func threatResult(levels ...models.RiskLevel) *models.AnalysisResult {
	result := &models.AnalysisResult{}
	for _, level := range levels {
		result.Threats = append(result.Threats, models.Threat{
			Title:     "threat",
			Category:  models.CategorySpoofing,
			RiskLevel: level,
		})
	}
	scored := result.WithScore(40)
	return &scored
}

func TestModel_ScanStarted(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, ScanStartedMsg{RunID: "run-1", Files: []string{"b.tf", "a.tf"}})

	assert.Nil(t, cmd)
	assert.Equal(t, "run-1", m.runID)
	require.Len(t, m.files, 2)
	assert.Equal(t, "b.tf", m.files[0].Path)
	assert.Equal(t, "a.tf", m.files[1].Path)
	for _, f := range m.files {
		assert.Equal(t, FileStatusPending, f.Status)
	}
	_, _, total := m.Counts()
	assert.Equal(t, 2, total)
}

func TestModel_FileLifecycle(t *testing.T) {
	m, now := newTestModel(t)
	m, _ = update(t, m, ScanStartedMsg{RunID: "run-1", Files: []string{"a.tf", "b.tf"}})

	m, _ = update(t, m, FileStartedMsg{Path: "a.tf"})
	assert.Equal(t, FileStatusRunning, m.files[0].Status)
	assert.Equal(t, testStart, m.files[0].StartTime)

	*now = testStart.Add(3 * time.Second)
	m, _ = update(t, m, TickMsg(*now))
	assert.Equal(t, 3*time.Second, m.files[0].Duration)
	assert.Zero(t, m.files[1].Duration)

	*now = testStart.Add(5 * time.Second)
	result := threatResult(models.RiskHigh, models.RiskLow)
	m, _ = update(t, m, FileFinishedMsg{Path: "a.tf", Result: result})

	assert.Equal(t, FileStatusSuccess, m.files[0].Status)
	assert.Equal(t, 5*time.Second, m.files[0].Duration)
	assert.Same(t, result, m.files[0].Result)

	done, failed, total := m.Counts()
	assert.Equal(t, 1, done)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 2, total)
}

func TestModel_FileFailed(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, ScanStartedMsg{Files: []string{"a.tf"}})
	m, _ = update(t, m, FileStartedMsg{Path: "a.tf"})

	m, _ = update(t, m, FileFinishedMsg{
		Path: "a.tf",
		Err:  errors.New("no JSON object found"),
		Kind: models.ErrorKindMalformed,
	})

	f := m.files[0]
	assert.Equal(t, FileStatusFailed, f.Status)
	assert.Equal(t, models.ErrorKindMalformed, f.Kind)
	assert.Equal(t, "no JSON object found", f.Message)
	assert.Nil(t, f.Result)

	entries := m.errors.Items()
	require.Len(t, entries, 1)
	assert.Equal(t, "a.tf", entries[0].Path)
	assert.Equal(t, models.ErrorKindMalformed, entries[0].Kind)

	done, failed, _ := m.Counts()
	assert.Equal(t, 1, done)
	assert.Equal(t, 1, failed)
}

func TestModel_UnknownFileIsAdded(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, FileFinishedMsg{Path: "late.tf", Result: threatResult()})

	require.Len(t, m.files, 1)
	assert.Equal(t, FileStatusSuccess, m.files[0].Status)
	assert.Zero(t, m.files[0].Duration)
}

func TestModel_Summary(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, FileFinishedMsg{Path: "a.tf", Result: threatResult(models.RiskCritical, models.RiskHigh)})
	m, _ = update(t, m, FileFinishedMsg{Path: "b.tf", Result: threatResult(models.RiskHigh)})
	m, _ = update(t, m, FileFinishedMsg{Path: "c.tf", Err: errors.New("boom"), Kind: models.ErrorKindIO})

	s := m.Summary()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.ByRiskLevel[models.RiskCritical])
	assert.Equal(t, 2, s.ByRiskLevel[models.RiskHigh])
}

func TestModel_FinalSummaryQuits(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, FinalSummaryMsg{Lines: []string{"3 files analyzed"}})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.showFinalSummary)
	assert.Equal(t, []string{"3 files analyzed"}, m.finalMessage)
	assert.False(t, m.Stopped())
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name        string
		key         tea.KeyMsg
		finished    bool
		wantStopped bool
	}{
		{name: "q during scan", key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, wantStopped: true},
		{name: "Q during scan", key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'Q'}}, wantStopped: true},
		{name: "q after summary", key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, finished: true},
		{name: "ctrl+c during scan", key: tea.KeyMsg{Type: tea.KeyCtrlC}, wantStopped: true},
		{name: "ctrl+c after summary", key: tea.KeyMsg{Type: tea.KeyCtrlC}, finished: true, wantStopped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)
			m.showFinalSummary = tt.finished

			m, cmd := update(t, m, tt.key)

			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
			assert.Equal(t, tt.wantStopped, m.Stopped())
		})
	}
}

func TestModel_Scrolling(t *testing.T) {
	m, _ := newTestModel(t)
	files := make([]string, 25)
	for i := range files {
		files[i] = string(rune('a'+i)) + ".tf"
	}
	m, _ = update(t, m, ScanStartedMsg{Files: files})
	// 25 files, 10 visible
	maxOffset := 15

	keys := func(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

	m, _ = update(t, m, keys("k"))
	assert.Equal(t, 0, m.infoScrollOffset, "cannot scroll above the top")

	m, _ = update(t, m, keys("j"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.infoScrollOffset)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.infoScrollOffset)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 6, m.infoScrollOffset)

	m, _ = update(t, m, keys("G"))
	assert.Equal(t, maxOffset, m.infoScrollOffset)

	m, _ = update(t, m, keys("j"))
	assert.Equal(t, maxOffset, m.infoScrollOffset, "cannot scroll below the bottom")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, maxOffset-5, m.infoScrollOffset)

	m, _ = update(t, m, keys("g"))
	assert.Equal(t, 0, m.infoScrollOffset)

	m.infoScrollOffset = 7
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyHome})
	assert.Equal(t, 0, m.infoScrollOffset)
}

func TestModel_ScrollingShortList(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, ScanStartedMsg{Files: []string{"a.tf", "b.tf"}})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})

	assert.Equal(t, 0, m.infoScrollOffset)
}

func TestModel_WindowSize(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Nil(t, cmd)
	assert.Equal(t, 100, m.width)
	assert.Equal(t, 40, m.height)
}

func TestModel_Init(t *testing.T) {
	m, _ := newTestModel(t)
	assert.NotNil(t, m.Init())
}
