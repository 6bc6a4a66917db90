package cli

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/tmux"
	"github.com/example/adw/internal/wire"
)

var attachCmd = &cobra.Command{
	Use:   "attach [workflow-id]",
	Short: "Attach to the tmux session for a workflow",
	Long: "Opens (creating if needed) a tmux session rooted at the workflow's\n" +
		"worktree and replaces this process with tmux attach.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if err := workflow.ValidateID(id); err != nil {
			return err
		}

		rec, err := wire.WorkflowService().Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get workflow: %w", err)
		}
		if rec.WorktreePath == "" {
			return fmt.Errorf("workflow %s has no worktree; run provision first", id)
		}

		adapter, err := tmux.NewAdapter()
		if err != nil {
			return fmt.Errorf("tmux unavailable: %w", err)
		}

		session := tmux.SessionName(id)
		if !adapter.SessionExists(session) {
			if err := adapter.CreateSession(session, rec.WorktreePath); err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}
		}

		tmuxPath, err := exec.LookPath("tmux")
		if err != nil {
			return fmt.Errorf("tmux not found in PATH: %w", err)
		}

		// Replace the current process so detaching returns the user to their
		// original shell, not to this command.
		return syscall.Exec(tmuxPath, []string{"tmux", "attach-session", "-t", session}, os.Environ())
	},
}

// AttachCmd returns the attach command.
func AttachCmd() *cobra.Command {
	return attachCmd
}
