package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"modelops/internal/api"
	"modelops/internal/lifecycle"
	"modelops/internal/poll"
	"modelops/internal/session"
	"modelops/internal/sse"
)

func (a *AppModel) loadCatalogCmd() tea.Cmd {
	return func() tea.Msg {
		cat, err := a.Client.ListModels(a.ctx)
		return catalogLoadedMsg{Catalog: cat, Err: err}
	}
}

// initialStatusCmd fetches the first status batch after the catalog loads.
// The merged result seeds the poller's tracking set.
func (a *AppModel) initialStatusCmd(keys []string) tea.Cmd {
	return func() tea.Msg {
		batch, err := a.Client.CheckModelStatus(a.ctx, keys, false)
		if err != nil {
			return warnMsg{Text: "status check failed: " + err.Error()}
		}
		a.Registry.Merge(batch)
		return statusMergedMsg{Batch: batch}
	}
}

func (a *AppModel) forceRefreshCmd(keys []string) tea.Cmd {
	return func() tea.Msg {
		batch, err := a.Client.CheckModelStatus(a.ctx, keys, true)
		if err != nil {
			return warnMsg{Text: "refresh failed: " + err.Error()}
		}
		a.Registry.Merge(batch)
		return statusMergedMsg{Batch: batch}
	}
}

// beginModelAction applies the optimistic transition and, only if the local
// state machine allows it, issues the backend request. A rejected transition
// never reaches the network.
func (a *AppModel) beginModelAction(key, action string) tea.Cmd {
	var err error
	switch action {
	case "deploy":
		err = a.Registry.BeginDeploy(key)
	case "stop":
		err = a.Registry.BeginStop(key)
	}
	if err != nil {
		a.notice = err.Error()
		return nil
	}

	a.poller.Track(key)
	a.poller.Start(a.ctx)

	call := a.Client.DeployModel
	if action == "stop" {
		call = a.Client.StopModel
	}
	return func() tea.Msg {
		return modelActionMsg{Key: key, Action: action, Err: call(a.ctx, key)}
	}
}

// beginBatchDeploy deploys every checked model with one request. Models the
// state machine rejects (already deployed, mid-transition) are skipped rather
// than failing the batch.
func (a *AppModel) beginBatchDeploy(keys []string) tea.Cmd {
	var accepted []string
	for _, k := range keys {
		if err := a.Registry.BeginDeploy(k); err != nil {
			slog.Warn("skipped in bulk deploy", "model", k, "error", err)
			continue
		}
		accepted = append(accepted, k)
	}
	if len(accepted) == 0 {
		a.notice = "nothing to deploy"
		return nil
	}

	a.poller.Track(accepted...)
	a.poller.Start(a.ctx)
	return func() tea.Msg {
		return deployBatchResultMsg{Keys: accepted, Err: a.Client.DeployModels(a.ctx, accepted)}
	}
}

func (a *AppModel) finishBatchDeploy(msg deployBatchResultMsg) tea.Cmd {
	if msg.Err != nil {
		for _, k := range msg.Keys {
			a.Registry.Rollback(k, msg.Err)
		}
		a.notice = "bulk deploy failed: " + msg.Err.Error()
		slog.Error("bulk deploy failed", "models", len(msg.Keys), "error", msg.Err)
		return nil
	}
	a.notice = fmt.Sprintf("deploying %d models", len(msg.Keys))
	return nil
}

func (a *AppModel) deleteModelCmd(key string) tea.Cmd {
	return func() tea.Msg {
		return modelActionMsg{Key: key, Action: "delete", Err: a.Client.DeleteModel(a.ctx, key)}
	}
}

// finishModelAction settles an optimistic transition: a failed request rolls
// the model back to its prior status, a successful one leaves confirmation
// to the poller.
func (a *AppModel) finishModelAction(msg modelActionMsg) tea.Cmd {
	if msg.Err != nil {
		if msg.Action == "deploy" || msg.Action == "stop" {
			a.Registry.Rollback(msg.Key, msg.Err)
		}
		a.notice = msg.Action + " " + msg.Key + " failed: " + msg.Err.Error()
		slog.Error("model action failed", "action", msg.Action, "model", msg.Key, "error", msg.Err)
		return nil
	}

	if msg.Action == "delete" {
		a.Registry.Delete(msg.Key)
		a.poller.Untrack(msg.Key)
		a.Hub.Drop(msg.Key)
	}
	a.notice = msg.Action + " " + msg.Key + " submitted"
	slog.Info("model action submitted", "action", msg.Action, "model", msg.Key)
	return nil
}

// openInferenceCmd opens the multi-inference stream and hands the body to
// the stream consumer. Consumer events arrive through the events channel.
func (a *AppModel) openInferenceCmd(ctx context.Context, req api.InferenceRequest) tea.Cmd {
	return func() tea.Msg {
		body, err := a.Client.MultiInference(ctx, req)
		if err != nil {
			return inferenceOpenedMsg{Err: err}
		}
		go func() {
			for ev := range sse.Consume(ctx, body) {
				a.emit(streamEventMsg{Event: ev})
			}
		}()
		return inferenceOpenedMsg{}
	}
}

func (a *AppModel) startStressCmd(p session.Params) tea.Cmd {
	return func() tea.Msg {
		sess, err := a.Client.StartStressTest(a.ctx, api.StressTestRequest{
			Model:       p.Model,
			NumRequests: p.NumRequests,
			Concurrency: p.Concurrency,
			InputTokens: p.InputTokens,
			Stream:      p.Stream,
		})
		return stressStartedMsg{Session: sess, Params: p, Err: err}
	}
}

func (a *AppModel) finishStressStart(msg stressStartedMsg) tea.Cmd {
	cmd := a.Stress.Update(msg)
	if msg.Err != nil {
		slog.Error("start stress test", "model", msg.Params.Model, "error", msg.Err)
		return cmd
	}

	status := msg.Session.Status
	if status == "" {
		status = lifecycle.StatusRunning
	}
	a.Sessions.Begin(session.Session{
		ID:        msg.Session.SessionID,
		Params:    msg.Params,
		Status:    status,
		Progress:  msg.Session.Progress,
		Message:   msg.Session.Message,
		StartedAt: time.Now(),
	})
	a.startStressPolling(msg.Session.SessionID)
	return cmd
}

// startStressPolling follows one session until it reaches a terminal state
// or disappears from the backend. At most one poll loop runs at a time.
func (a *AppModel) startStressPolling(id string) {
	if a.stressPolling || id == "" {
		return
	}
	a.stressPolling = true
	go func() {
		err := poll.Until(a.ctx, a.Cfg.StressPollInterval, func(ctx context.Context) (bool, error) {
			st, err := a.Client.StressTestStatus(ctx, id)
			if errors.Is(err, api.ErrNotFound) {
				was := a.Sessions.Orphan(id)
				a.emit(stressOrphanMsg{ID: id, WasActive: was})
				return true, nil
			}
			if err != nil {
				return false, err
			}
			a.Sessions.Update(id, st.Status, st.Progress, st.Message, st.Results)
			st.SessionID = id
			a.emit(stressProgressMsg{Session: st})
			return st.Status.Terminal(), nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("stress poll stopped", "session", id, "error", err)
		}
	}()
}

func (a *AppModel) downloadReportCmd(id string) tea.Cmd {
	return func() tea.Msg {
		b, err := a.Client.DownloadReport(a.ctx, id)
		if err != nil {
			return reportSavedMsg{Err: err}
		}
		dir := filepath.Join(filepath.Dir(a.Cfg.StateDir), "reports")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return reportSavedMsg{Err: err}
		}
		path := filepath.Join(dir, id+".html")
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return reportSavedMsg{Err: err}
		}
		return reportSavedMsg{Path: path}
	}
}

func (a *AppModel) downloadZipCmd(id string) tea.Cmd {
	return func() tea.Msg {
		b, err := a.Client.DownloadResultsZip(a.ctx, id)
		if err != nil {
			return reportSavedMsg{Err: err}
		}
		dir := filepath.Join(filepath.Dir(a.Cfg.StateDir), "reports")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return reportSavedMsg{Err: err}
		}
		path := filepath.Join(dir, id+"-results.zip")
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return reportSavedMsg{Err: err}
		}
		return reportSavedMsg{Path: path}
	}
}

func (a *AppModel) saveReportCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return reportSavedMsg{Err: a.Client.SaveReport(a.ctx, api.SaveReportRequest{SessionID: id})}
	}
}

func (a *AppModel) loadHyperpodCmd() tea.Cmd {
	return func() tea.Msg {
		presets, err := a.Client.HyperPodPresets(a.ctx)
		if err != nil {
			return hyperpodLoadedMsg{Err: err}
		}
		jobs, err := a.Client.HyperPodJobs(a.ctx)
		if err != nil {
			return hyperpodLoadedMsg{Err: err}
		}
		return hyperpodLoadedMsg{Presets: presets, Jobs: jobs}
	}
}

// startLaunchPolling refreshes the job list until no job is active.
func (a *AppModel) startLaunchPolling() {
	if a.launchPolling {
		return
	}
	a.launchPolling = true
	go func() {
		err := poll.Until(a.ctx, a.Cfg.DeployPollInterval, func(ctx context.Context) (bool, error) {
			jobs, err := a.Client.HyperPodJobs(ctx)
			if err != nil {
				return false, err
			}
			a.emit(hyperpodJobsMsg{Jobs: jobs})
			return !anyJobActive(jobs), nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("job poll stopped", "error", err)
		}
	}()
}

func (a *AppModel) hyperpodDeployCmd(presetID string) tea.Cmd {
	return func() tea.Msg {
		_, err := a.Client.HyperPodDeploy(a.ctx, presetID)
		return hyperpodActionMsg{Action: "launch", Err: err}
	}
}

func (a *AppModel) hyperpodDestroyCmd(jobID string) tea.Cmd {
	return func() tea.Msg {
		return hyperpodActionMsg{Action: "destroy", Err: a.Client.HyperPodDestroy(a.ctx, jobID)}
	}
}

func (a *AppModel) hyperpodLogsCmd(jobID string) tea.Cmd {
	return func() tea.Msg {
		logs, err := a.Client.HyperPodJobLogs(a.ctx, jobID)
		return hyperpodLogsMsg{JobID: jobID, Logs: logs, Err: err}
	}
}
