// Package tmux wraps the gotmux library for per-workflow inspection
// sessions: one session per workflow id, rooted at its worktree, so an
// operator can watch or steer a running agent.
package tmux

import (
	"fmt"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// Adapter wraps a gotmux client.
type Adapter struct {
	tmux *gotmux.Tmux
}

// NewAdapter creates a tmux adapter using the default tmux binary.
func NewAdapter() (*Adapter, error) {
	t, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("failed to create tmux client: %w", err)
	}
	return &Adapter{tmux: t}, nil
}

// SessionName returns the canonical session name for a workflow id.
func SessionName(workflowID string) string {
	return "adw-" + workflowID
}

// SessionExists checks if a tmux session exists.
func (a *Adapter) SessionExists(name string) bool {
	sessions, err := a.tmux.ListSessions()
	if err != nil {
		return false
	}
	for _, s := range sessions {
		if s.Name == name {
			return true
		}
	}
	return false
}

// CreateSession creates a detached session rooted at startDir.
func (a *Adapter) CreateSession(name, startDir string) error {
	_, err := a.tmux.NewSession(&gotmux.SessionOptions{
		Name:           name,
		StartDirectory: startDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create session %s: %w", name, err)
	}
	return nil
}

// KillSession terminates a session.
func (a *Adapter) KillSession(name string) error {
	sessions, err := a.tmux.ListSessions()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, s := range sessions {
		if s.Name == name {
			return s.Kill()
		}
	}
	return fmt.Errorf("session %s not found", name)
}
