package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"modelops/internal/api"
	"modelops/internal/session"
	"modelops/internal/sse"
)

// eventMsg wraps a message produced outside the bubbletea loop (pollers,
// stream consumers). AppModel re-arms the channel listener whenever one
// arrives, then handles the inner message normally.
type eventMsg struct {
	inner tea.Msg
}

// switchModeMsg asks AppModel to activate a different page.
type switchModeMsg struct {
	Mode AppMode
}

// resetStateMsg asks AppModel to clear all locally persisted state.
type resetStateMsg struct{}

// catalogLoadedMsg carries the model catalog for the hub page.
type catalogLoadedMsg struct {
	Catalog api.Catalog
	Err     error
}

// statusMergedMsg signals that a status batch was merged into the registry.
// The sender applies the merge first; the message triggers a re-render and
// re-seeds the poller's tracking set from the registry.
type statusMergedMsg struct {
	Batch api.StatusMap
}

// orphanModelMsg signals that the backend no longer knows a tracked model.
type orphanModelMsg struct {
	Key string
}

// deployRequestedMsg and friends flow from the hub page to AppModel, which
// owns the registry and the API client.
type deployRequestedMsg struct{ Key string }
type stopRequestedMsg struct{ Key string }
type deleteRequestedMsg struct{ Key string }

// deployBatchRequestedMsg carries the checked models for a bulk deploy.
type deployBatchRequestedMsg struct{ Keys []string }

// deployBatchResultMsg reports the outcome of a bulk deploy request for the
// keys that passed the local transition check.
type deployBatchResultMsg struct {
	Keys []string
	Err  error
}

// modelActionMsg reports the outcome of a deploy/stop/delete request.
type modelActionMsg struct {
	Key    string
	Action string // "deploy", "stop", "delete"
	Err    error
}

// refreshRequestedMsg forces an immediate status check for tracked models.
type refreshRequestedMsg struct {
	Force bool
}

// submitInferenceMsg flows from the playground page when the user sends a
// prompt.
type submitInferenceMsg struct {
	Req api.InferenceRequest
}

// inferenceOpenedMsg reports whether the stream connection was established.
type inferenceOpenedMsg struct {
	Err error
}

// streamEventMsg carries one event from the inference stream consumer.
type streamEventMsg struct {
	Event sse.Event
}

// stressSubmitMsg flows from the stress test page with validated params.
type stressSubmitMsg struct {
	Params session.Params
}

// stressStartedMsg reports the backend's answer to a start request.
type stressStartedMsg struct {
	Session api.StressTestSession
	Params  session.Params
	Err     error
}

// stressProgressMsg carries one poll result for the active session.
type stressProgressMsg struct {
	Session api.StressTestSession
}

// stressOrphanMsg signals that the backend no longer knows the session.
type stressOrphanMsg struct {
	ID        string
	WasActive bool
}

// downloadReportRequestMsg asks for the session's HTML report to be
// fetched and written to the local reports directory.
type downloadReportRequestMsg struct {
	ID string
}

// saveReportRequestMsg asks the backend to archive the session's report.
type saveReportRequestMsg struct {
	ID string
}

// downloadZipRequestMsg asks for the session's raw results archive.
type downloadZipRequestMsg struct {
	ID string
}

// reportSavedMsg reports the outcome of downloading or saving a report.
type reportSavedMsg struct {
	Path string
	Err  error
}

// hyperpodLoadedMsg carries presets and jobs for the launch page.
type hyperpodLoadedMsg struct {
	Presets []api.HyperPodPreset
	Jobs    []api.HyperPodJob
	Err     error
}

// hyperpodJobsMsg carries a refreshed job list only.
type hyperpodJobsMsg struct {
	Jobs []api.HyperPodJob
	Err  error
}

// hyperpodDeployMsg, hyperpodDestroyMsg and hyperpodLogsRequestMsg flow from
// the launch page to AppModel.
type hyperpodDeployMsg struct{ PresetID string }
type hyperpodDestroyMsg struct{ JobID string }
type hyperpodLogsRequestMsg struct{ JobID string }

// hyperpodActionMsg reports the outcome of a deploy or destroy request.
type hyperpodActionMsg struct {
	Action string // "deploy", "destroy"
	Err    error
}

// hyperpodLogsMsg carries fetched logs for one job.
type hyperpodLogsMsg struct {
	JobID string
	Logs  string
	Err   error
}

// warnMsg surfaces a non-fatal problem in the status bar.
type warnMsg struct {
	Text string
}
