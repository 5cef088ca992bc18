package api

import (
	"context"
)

// HyperPodPresets lists the launchable cluster configurations.
func (c *Client) HyperPodPresets(ctx context.Context) ([]HyperPodPreset, error) {
	var out []HyperPodPreset
	if err := c.getJSON(ctx, "/api/hyperpod/presets", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HyperPodJobs lists cluster launch jobs.
func (c *Client) HyperPodJobs(ctx context.Context) ([]HyperPodJob, error) {
	var out []HyperPodJob
	if err := c.getJSON(ctx, "/api/hyperpod/jobs", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HyperPodDeploy launches a cluster from a preset.
func (c *Client) HyperPodDeploy(ctx context.Context, presetID string) (HyperPodJob, error) {
	var job HyperPodJob
	if err := c.postJSON(ctx, "/api/hyperpod/deploy", HyperPodDeployRequest{PresetID: presetID}, &job); err != nil {
		return HyperPodJob{}, err
	}
	return job, nil
}

// HyperPodDestroy tears a cluster down.
func (c *Client) HyperPodDestroy(ctx context.Context, jobID string) error {
	return c.postJSON(ctx, "/api/hyperpod/destroy", HyperPodDestroyRequest{JobID: jobID}, nil)
}

// HyperPodJobLogs fetches the log tail for a job. A 404 yields ErrNotFound.
func (c *Client) HyperPodJobLogs(ctx context.Context, jobID string) (string, error) {
	data, err := c.getBytes(ctx, "/api/hyperpod/jobs/"+jobID+"/logs")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
