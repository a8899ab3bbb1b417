package bubbletea

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/pkg/logger"
)

func newHeadlessUI() *ProgressUI {
	return NewProgressUI(Config{
		StartTime: testStart,
		Directory: "/srv/infra",
		Pattern:   "**/*",
		Provider:  "mock",
		Logger:    logger.NewMockLogger(),
		Headless:  true,
	})
}

func TestProgressUI_Creation(t *testing.T) {
	ui := NewProgressUI(Config{Directory: "/srv/infra", Provider: "claude"})

	require.NotNil(t, ui.program)
	assert.False(t, ui.headless)
	assert.Equal(t, "/srv/infra", ui.model.directory)
	assert.Equal(t, "claude", ui.model.provider)
	assert.False(t, ui.model.startTime.IsZero())
}

func TestProgressUI_HeadlessTracksScan(t *testing.T) {
	ui := newHeadlessUI()
	ui.Start()
	assert.Nil(t, ui.program)

	ui.ScanStarted("run-7", []string{"a.tf", "b.yaml"})
	ui.FileStarted("a.tf")
	ui.FileStarted("b.yaml")
	ui.FileFinished("a.tf", threatResult(models.RiskHigh), nil)
	ui.FileFinished("b.yaml", nil, context.DeadlineExceeded)

	m := ui.Model()
	assert.Equal(t, "run-7", m.runID)
	require.Len(t, m.files, 2)
	assert.Equal(t, FileStatusSuccess, m.files[0].Status)
	assert.Equal(t, FileStatusFailed, m.files[1].Status)
	assert.Equal(t, models.ErrorKindTimeout, m.files[1].Kind)

	done, failed, total := m.Counts()
	assert.Equal(t, 2, done)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, total)
}

func TestProgressUI_HeadlessErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want models.ErrorKind
	}{
		{name: "canceled", err: context.Canceled, want: models.ErrorKindCanceled},
		{name: "unclassified", err: errors.New("boom"), want: models.ErrorKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui := newHeadlessUI()
			ui.FileFinished("x.tf", nil, tt.err)

			m := ui.Model()
			require.Len(t, m.files, 1)
			assert.Equal(t, tt.want, m.files[0].Kind)
		})
	}
}

func TestProgressUI_HeadlessFinish(t *testing.T) {
	ui := newHeadlessUI()

	finished := make(chan struct{})
	go func() {
		ui.Finish([]string{"1 of 1 files analyzed"})
		ui.Stop()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Finish blocked in headless mode")
	}

	m := ui.Model()
	assert.True(t, m.showFinalSummary)
	assert.Equal(t, []string{"1 of 1 files analyzed"}, m.finalMessage)
}

func TestProgressUI_NotStarted(t *testing.T) {
	ui := NewProgressUI(Config{Logger: logger.NewMockLogger()})

	finished := make(chan struct{})
	go func() {
		// Events before Start are dropped rather than blocking on Send.
		ui.ScanStarted("run", []string{"a.tf"})
		ui.FileFinished("a.tf", nil, nil)
		ui.Finish(nil)
		ui.Stop()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("unstarted UI blocked")
	}
}
