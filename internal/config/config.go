// Package config loads and saves the flat ADW configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the flat ADW configuration, stored as .adw/config.json in the
// orchestrated repository.
type Config struct {
	Version string `json:"version"`

	// RepoPath is the main repository whose history store worktrees share.
	// Empty means the current working directory.
	RepoPath string `json:"repo_path,omitempty"`
	// WorktreesRoot is the isolated-workspaces root, keyed by workflow id.
	WorktreesRoot string `json:"worktrees_root,omitempty"`
	// OutputRoot holds per-id state and log artifacts.
	OutputRoot string `json:"output_root,omitempty"`
	// DatabasePath overrides the default ~/.adw/adw.db location.
	DatabasePath string `json:"database_path,omitempty"`

	// AgentCommand is the external coding-agent executable invoked per
	// stage, with AgentArgs prepended to the stage arguments.
	AgentCommand string   `json:"agent_command"`
	AgentArgs    []string `json:"agent_args,omitempty"`

	// StalenessMinutes is the no-progress window before a workflow is
	// flagged stuck; SweepSeconds the detector period. Zero means default.
	StalenessMinutes int `json:"staleness_minutes,omitempty"`
	SweepSeconds     int `json:"sweep_seconds,omitempty"`

	// MaxStageRetries bounds explicit retries of an errored stage.
	// Zero means unbounded (operator judgment).
	MaxStageRetries int `json:"max_stage_retries,omitempty"`
}

// Path returns the location of the config file under dir.
func Path(dir string) string {
	return filepath.Join(dir, ".adw", "config.json")
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Version:      "1",
		AgentCommand: "adw-agent",
	}
}

// Load reads .adw/config.json from the specified directory.
// Returns an error if no config is found; callers decide whether to fall
// back to Default().
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to .adw/config.json under dir.
func Save(dir string, cfg *Config) error {
	adwDir := filepath.Join(dir, ".adw")
	if err := os.MkdirAll(adwDir, 0755); err != nil {
		return fmt.Errorf("failed to create .adw dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(adwDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
