// Package config loads console configuration from the environment.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all tunables for the console. Every field can be overridden
// via MODELOPS_* environment variables.
type Config struct {
	// APIURL is the base URL of the deployment backend.
	APIURL string `env:"MODELOPS_API_URL, default=http://localhost:8000"`

	// HTTPTimeout bounds any single non-streaming request.
	HTTPTimeout time.Duration `env:"MODELOPS_HTTP_TIMEOUT, default=60s"`

	// StatusTimeout bounds a regular model status check; ForceStatusTimeout
	// applies when the backend cache is bypassed (force_refresh).
	StatusTimeout      time.Duration `env:"MODELOPS_STATUS_TIMEOUT, default=5s"`
	ForceStatusTimeout time.Duration `env:"MODELOPS_FORCE_STATUS_TIMEOUT, default=30s"`

	// DeployPollInterval is the cadence for deployment status polling;
	// StressPollInterval for stress-test session polling.
	DeployPollInterval time.Duration `env:"MODELOPS_DEPLOY_POLL_INTERVAL, default=10s"`
	StressPollInterval time.Duration `env:"MODELOPS_STRESS_POLL_INTERVAL, default=2s"`

	// StateDir is where persisted UI state lives. Empty means
	// $HOME/.modelops/state.
	StateDir string `env:"MODELOPS_STATE_DIR"`

	// LogFile is the console log destination. Empty means
	// $HOME/.modelops/modelops.log. A TUI cannot write logs to the terminal.
	LogFile string `env:"MODELOPS_LOG_FILE"`
}

// Load reads configuration from the environment and fills home-relative
// defaults for paths left unset.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.StateDir == "" || cfg.LogFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home dir: %w", err)
		}
		if cfg.StateDir == "" {
			cfg.StateDir = filepath.Join(home, ".modelops", "state")
		}
		if cfg.LogFile == "" {
			cfg.LogFile = filepath.Join(home, ".modelops", "modelops.log")
		}
	}
	return cfg, nil
}
