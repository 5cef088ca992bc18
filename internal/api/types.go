package api

import (
	"encoding/json"
	"time"

	"modelops/internal/lifecycle"
)

// Model categories. The category determines whether deployment and status
// tracking apply: bedrock models are always available, ec2 and emd models go
// through the deploy lifecycle.
const (
	CategoryBedrock = "bedrock"
	CategoryEC2     = "ec2"
	CategoryEMD     = "emd"
)

// ModelDescriptor is one catalog entry. Immutable once fetched.
type ModelDescriptor struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Category        string `json:"category"`
	AlwaysAvailable bool   `json:"always_available"`
}

// Catalog is the categorized model list from GET /api/model-list.
type Catalog struct {
	Bedrock []ModelDescriptor `json:"bedrock,omitempty"`
	EC2     []ModelDescriptor `json:"ec2,omitempty"`
	EMD     []ModelDescriptor `json:"emd,omitempty"`
}

// All returns every descriptor across categories, bedrock first.
func (c Catalog) All() []ModelDescriptor {
	out := make([]ModelDescriptor, 0, len(c.Bedrock)+len(c.EC2)+len(c.EMD))
	out = append(out, c.Bedrock...)
	out = append(out, c.EC2...)
	out = append(out, c.EMD...)
	return out
}

// StatusMap is the per-model response of POST /api/check-model-status.
type StatusMap map[string]lifecycle.ModelStatus

// Media types for playground attachments.
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// Attachment is one uploaded file, already base64 encoded by the caller.
type Attachment struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Payload   string `json:"payload"`
}

// InferenceRequest is the body of POST /api/multi-inference.
type InferenceRequest struct {
	Models      []string               `json:"models"`
	Prompt      string                 `json:"prompt"`
	Attachments []Attachment           `json:"attachments,omitempty"`
	Params      map[string]interface{} `json:"params,omitempty"`
}

// StressTestRequest is the body of POST /api/stress-test/start. NumRequests
// and Concurrency are comma-separated lists with matching lengths; the
// backend pairs them positionally into test stages.
type StressTestRequest struct {
	Model       string `json:"model"`
	NumRequests string `json:"num_requests"`
	Concurrency string `json:"concurrency"`
	InputTokens int    `json:"input_tokens,omitempty"`
	Stream      bool   `json:"stream,omitempty"`
}

// StressTestSession is the state of one stress test as reported by the
// backend.
type StressTestSession struct {
	SessionID string           `json:"session_id"`
	Status    lifecycle.Status `json:"status"`
	Progress  int              `json:"progress"`
	Message   string           `json:"message,omitempty"`
	Results   json.RawMessage  `json:"results,omitempty"`
}

// SaveReportRequest is the body of POST /api/stress-test/save-report.
type SaveReportRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name,omitempty"`
}

// HyperPodPreset is one launchable cluster configuration.
type HyperPodPreset struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	InstanceType string `json:"instance_type,omitempty"`
	NodeCount    int    `json:"node_count,omitempty"`
}

// HyperPodJob is one cluster launch job.
type HyperPodJob struct {
	ID        string           `json:"id"`
	Preset    string           `json:"preset"`
	Status    lifecycle.Status `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	Message   string           `json:"message,omitempty"`
}

// HyperPodDeployRequest is the body of POST /api/hyperpod/deploy.
type HyperPodDeployRequest struct {
	PresetID string `json:"preset_id"`
}

// HyperPodDestroyRequest is the body of POST /api/hyperpod/destroy.
type HyperPodDestroyRequest struct {
	JobID string `json:"job_id"`
}
