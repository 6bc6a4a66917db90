package config

import (
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.RepoPath = dir
	cfg.AgentCommand = "my-agent"
	cfg.AgentArgs = []string{"--verbose"}
	cfg.StalenessMinutes = 45
	cfg.MaxStageRetries = 3

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.AgentCommand != "my-agent" || len(got.AgentArgs) != 1 {
		t.Errorf("agent settings = %q %v", got.AgentCommand, got.AgentArgs)
	}
	if got.StalenessMinutes != 45 || got.MaxStageRetries != 3 {
		t.Errorf("tuning = %d/%d, want 45/3", got.StalenessMinutes, got.MaxStageRetries)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load() without a config file should fail")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.AgentCommand == "" {
		t.Error("Default() must set an agent command")
	}
	if cfg.Version == "" {
		t.Error("Default() must set a version")
	}
}
