package secondary

import "context"

// WorkspaceAdapter defines the secondary port for filesystem and git
// worktree operations. Paths passed in are already validated against the
// 8-character hex id pattern by the application layer.
type WorkspaceAdapter interface {
	// Worktree operations
	CreateWorktree(ctx context.Context, branchName, targetPath string) error
	RemoveWorktree(ctx context.Context, path string) error
	WorktreeExists(ctx context.Context, path string) (bool, error)

	// Output directory operations
	CreateDirectory(ctx context.Context, path string) error
	RemoveDirectory(ctx context.Context, path string) error
	DirectoryExists(ctx context.Context, path string) (bool, error)

	// WriteEnvFile writes the per-workflow environment file (port
	// assignments and identifiers) inside the worktree.
	WriteEnvFile(ctx context.Context, worktreePath string, env map[string]string) error

	// Path resolution
	WorktreePath(workflowID string) string
	OutputPath(workflowID string) string
}
