package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.DeployPollInterval)
	assert.Equal(t, 2*time.Second, cfg.StressPollInterval)
	assert.Equal(t, 5*time.Second, cfg.StatusTimeout)
	assert.Equal(t, 30*time.Second, cfg.ForceStatusTimeout)
	assert.NotEmpty(t, cfg.StateDir)
	assert.NotEmpty(t, cfg.LogFile)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MODELOPS_API_URL", "http://backend:9000")
	t.Setenv("MODELOPS_DEPLOY_POLL_INTERVAL", "3s")
	t.Setenv("MODELOPS_STATE_DIR", "/tmp/modelops-test-state")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.DeployPollInterval)
	assert.Equal(t, "/tmp/modelops-test-state", cfg.StateDir)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("MODELOPS_HTTP_TIMEOUT", "soon")
	_, err := Load(context.Background())
	assert.Error(t, err)
}
