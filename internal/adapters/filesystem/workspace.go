// Package filesystem contains filesystem-based adapter implementations:
// git worktree management and per-workflow output directories.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/adw/internal/ports/secondary"
)

// WorkspaceAdapter implements secondary.WorkspaceAdapter. Worktrees live
// under a single isolated-workspaces root keyed by workflow id; state and
// log artifacts live under a separate per-id output root.
type WorkspaceAdapter struct {
	repoPath      string
	worktreesRoot string
	outputRoot    string
}

// NewWorkspaceAdapter creates a filesystem workspace adapter. Empty roots
// default to <repo>/../adw-worktrees and ~/.adw/output.
func NewWorkspaceAdapter(repoPath, worktreesRoot, outputRoot string) (*WorkspaceAdapter, error) {
	if repoPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		repoPath = cwd
	}
	if worktreesRoot == "" {
		worktreesRoot = filepath.Join(filepath.Dir(repoPath), "adw-worktrees")
	}
	if outputRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		outputRoot = filepath.Join(home, ".adw", "output")
	}

	return &WorkspaceAdapter{
		repoPath:      repoPath,
		worktreesRoot: worktreesRoot,
		outputRoot:    outputRoot,
	}, nil
}

// CreateWorktree creates a git worktree on a new branch at targetPath,
// sharing the main repository's history store.
func (a *WorkspaceAdapter) CreateWorktree(ctx context.Context, branchName, targetPath string) error {
	if _, err := os.Stat(a.repoPath); os.IsNotExist(err) {
		return fmt.Errorf("repo not found at %s", a.repoPath)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("failed to create worktrees root: %w", err)
	}

	cmd := exec.CommandContext(ctx, "git", "worktree", "add", targetPath, "-b", branchName)
	cmd.Dir = a.repoPath

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git worktree add failed: %w: %s", err, string(output))
	}
	return nil
}

// RemoveWorktree removes a git worktree, falling back to direct directory
// removal when git no longer knows about the path.
func (a *WorkspaceAdapter) RemoveWorktree(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, "git", "worktree", "remove", path, "--force")
	cmd.Dir = a.repoPath
	if err := cmd.Run(); err != nil {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove worktree directory: %w", err)
		}
	}
	return nil
}

// WorktreeExists checks if a worktree exists at the given path.
func (a *WorkspaceAdapter) WorktreeExists(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check worktree: %w", err)
	}
	return info.IsDir(), nil
}

// CreateDirectory creates a directory with all parent directories.
func (a *WorkspaceAdapter) CreateDirectory(ctx context.Context, path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// RemoveDirectory removes a directory and all contents.
func (a *WorkspaceAdapter) RemoveDirectory(ctx context.Context, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove directory: %w", err)
	}
	return nil
}

// DirectoryExists checks if a directory exists.
func (a *WorkspaceAdapter) DirectoryExists(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check directory: %w", err)
	}
	return info.IsDir(), nil
}

// WriteEnvFile writes the per-workflow environment file (.adw/env) inside
// the worktree. Keys are written sorted so the file is diff-stable.
func (a *WorkspaceAdapter) WriteEnvFile(ctx context.Context, worktreePath string, env map[string]string) error {
	dir := filepath.Join(worktreePath, ".adw")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create .adw dir: %w", err)
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, env[k])
	}

	path := filepath.Join(dir, "env")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}
	return nil
}

// WorktreePath returns the canonical worktree location for a workflow id.
func (a *WorkspaceAdapter) WorktreePath(workflowID string) string {
	return filepath.Join(a.worktreesRoot, workflowID)
}

// OutputRoot returns the root holding all per-workflow output directories.
func (a *WorkspaceAdapter) OutputRoot() string {
	return a.outputRoot
}

// OutputPath returns the per-workflow output directory.
func (a *WorkspaceAdapter) OutputPath(workflowID string) string {
	return filepath.Join(a.outputRoot, workflowID)
}

// Ensure WorkspaceAdapter implements the interface.
var _ secondary.WorkspaceAdapter = (*WorkspaceAdapter)(nil)
