// Package lifecycle models deployment and test-session status: the allowed
// transitions, and a per-key registry that reconciles user-triggered
// optimistic updates with authoritative poll results.
package lifecycle

// Status is a deployment or session state reported by the backend or set
// optimistically by the UI.
type Status string

const (
	// Model deployment states.
	StatusAvailable   Status = "available" // always-on models (bedrock)
	StatusDeployed    Status = "deployed"
	StatusNotDeployed Status = "not_deployed"
	StatusInProgress  Status = "inprogress"
	StatusInit        Status = "init"
	StatusDeleting    Status = "deleting"
	StatusFailed      Status = "failed"
	StatusUnknown     Status = "unknown"

	// Test-session states.
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

// Terminal reports whether polling for an entity in this state should stop.
func (s Status) Terminal() bool {
	switch s {
	case StatusAvailable, StatusDeployed, StatusNotDeployed, StatusFailed, StatusCompleted:
		return true
	}
	return false
}

// Transitional reports whether the state represents an operation in flight.
func (s Status) Transitional() bool {
	switch s {
	case StatusInProgress, StatusInit, StatusDeleting, StatusRunning:
		return true
	}
	return false
}

// ModelStatus is one status entry as reported by the backend.
type ModelStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Tag     string `json:"tag,omitempty"`
}
