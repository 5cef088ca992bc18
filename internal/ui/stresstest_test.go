package ui

import (
	"encoding/json"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelops/internal/api"
	"modelops/internal/lifecycle"
	"modelops/internal/session"
	"modelops/internal/store"
)

func newTestStress(t *testing.T) (*StressTestView, *session.Tracker) {
	t.Helper()
	st, err := store.New(t.TempDir(), store.WithDebounce(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tracker := session.NewTracker(st)
	return NewStressTestView(NewStyles(), tracker), tracker
}

func (v *StressTestView) fill(model, requests, concurrency string) {
	v.inputs[fieldModel].SetValue(model)
	v.inputs[fieldRequests].SetValue(requests)
	v.inputs[fieldConcurrency].SetValue(concurrency)
}

func TestStressSubmitValid(t *testing.T) {
	v, _ := newTestStress(t)
	v.fill("qwen", "50,100", "1,5")

	cmd := v.submit()
	require.NotNil(t, cmd)

	msg, ok := cmd().(stressSubmitMsg)
	require.True(t, ok)
	assert.Equal(t, "qwen", msg.Params.Model)
	assert.Equal(t, 2, msg.Params.Stages())
	assert.Empty(t, v.formErr)
}

func TestStressSubmitRejectsMismatchedStages(t *testing.T) {
	v, _ := newTestStress(t)
	v.fill("qwen", "50,100,200", "1,5")

	assert.Nil(t, v.submit())
	assert.Contains(t, v.formErr, "match")
}

func TestStressSubmitRejectsBadTokenCount(t *testing.T) {
	v, _ := newTestStress(t)
	v.fill("qwen", "50", "1")
	v.inputs[fieldTokens].SetValue("lots")

	assert.Nil(t, v.submit())
	assert.Contains(t, v.formErr, "number")
}

func TestStressSubmitBlockedWhileRunning(t *testing.T) {
	v, _ := newTestStress(t)
	v.fill("qwen", "50", "1")
	v.active = &session.Session{ID: "s1", Status: lifecycle.StatusRunning}

	assert.Nil(t, v.submit())
	assert.Contains(t, v.formErr, "already running")
}

func TestProgressUpdatesActiveSession(t *testing.T) {
	v, _ := newTestStress(t)
	v.active = &session.Session{ID: "s1", Status: lifecycle.StatusRunning}

	v.Update(stressProgressMsg{Session: api.StressTestSession{
		SessionID: "s1",
		Status:    lifecycle.StatusCompleted,
		Progress:  100,
		Results:   json.RawMessage(`[{"rps":12.5}]`),
	}})

	assert.Equal(t, lifecycle.StatusCompleted, v.active.Status)
	assert.Equal(t, 100, v.active.Progress)
	assert.Contains(t, v.View(80, 24), "rps=12.5")
}

func TestStageResultsRenderNamesAndErrors(t *testing.T) {
	raw := json.RawMessage(`[{"name":"warmup","rps":3.2},{"rps":12.5,"error":"worker crashed"}]`)
	out := renderStages(NewStyles(), raw)

	assert.Contains(t, out, "warmup: rps=3.2")
	assert.Contains(t, out, "stage 2: rps=12.5")
	assert.Contains(t, out, "worker crashed")
	assert.NotContains(t, out, "name=")
	assert.NotContains(t, out, "error=")
}

func TestOrphanClearsActiveSession(t *testing.T) {
	v, _ := newTestStress(t)
	v.active = &session.Session{ID: "s1", Status: lifecycle.StatusRunning}

	v.Update(stressOrphanMsg{ID: "s1", WasActive: true})

	assert.Nil(t, v.active)
	assert.Contains(t, v.notice, "no longer exists")
}

func TestReportableIDPrefersActive(t *testing.T) {
	v, tracker := newTestStress(t)
	tracker.Begin(session.Session{ID: "old", Status: lifecycle.StatusCompleted, StartedAt: time.Now()})

	assert.Equal(t, "old", v.ReportableID())

	v.active = &session.Session{ID: "s1", Status: lifecycle.StatusRunning}
	assert.Equal(t, "old", v.ReportableID(), "running session has no report yet")

	v.active.Status = lifecycle.StatusCompleted
	assert.Equal(t, "s1", v.ReportableID())
}

func TestEscLeavesFormAndExposesReportKeys(t *testing.T) {
	v, tracker := newTestStress(t)
	tracker.Begin(session.Session{ID: "s1", Status: lifecycle.StatusCompleted, StartedAt: time.Now()})
	require.True(t, v.EditingText())

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, v.EditingText())

	cmd := v.Update(keyPress("r"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(downloadReportRequestMsg)
	require.True(t, ok)
	assert.Equal(t, "s1", msg.ID)
}

func TestZipDownloadKeyUsesReportableSession(t *testing.T) {
	v, tracker := newTestStress(t)
	tracker.Begin(session.Session{ID: "s1", Status: lifecycle.StatusCompleted, StartedAt: time.Now()})
	v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	cmd := v.Update(keyPress("z"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(downloadZipRequestMsg)
	require.True(t, ok)
	assert.Equal(t, "s1", msg.ID)
}
